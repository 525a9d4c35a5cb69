// Package console renders check events and run summaries for humans.
package console

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cast"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapcheck/internal/events"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ContactFunc looks up the contact of an owner.
type ContactFunc func(owner string) (string, bool)

// Console is a durable subscriber that prints one line per finished check.
// It is safe for use by concurrent workers.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	color    bool
	verbose  bool
	contacts ContactFunc
}

// Option configures a Console.
type Option func(*Console)

// WithColor forces colour output on or off.
func WithColor(on bool) Option {
	return func(c *Console) { c.color = on }
}

// WithVerbose also prints started checks and pattern expansions.
func WithVerbose(on bool) Option {
	return func(c *Console) { c.verbose = on }
}

// New creates a console writing to w. Colour is enabled when w is a terminal.
func New(w io.Writer, opts ...Option) *Console {
	c := &Console{w: w, color: IsTerminal(w)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetContacts installs the owner contact lookup used on failure lines.
func (c *Console) SetContacts(fn ContactFunc) {
	c.mu.Lock()
	c.contacts = fn
	c.mu.Unlock()
}

// Kinds implements events.Subscriber.
func (c *Console) Kinds() []events.Kind {
	return events.AllKinds
}

// Handle implements events.Subscriber.
func (c *Console) Handle(ev events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch e := ev.(type) {
	case events.CheckStartedEvent:
		if c.verbose {
			err = c.printf("%s %s\n", c.paint("…", text.FgHiBlack), e.Name)
		}
	case events.CheckPassedEvent:
		err = c.printf("%s %s %s\n", c.paint("PASS", text.FgGreen), e.Name, c.dim(formatDuration(e.Duration)))
	case events.CheckFailedEvent:
		err = c.printf("%s %s %s\n", c.paint(failLabel(e.Severity), severityColor(e.Severity)), e.Name, c.dim(formatDuration(e.Duration)))
		if err == nil {
			err = c.failureDetails(e)
		}
	case events.CheckErrorEvent:
		err = c.printf("%s %s: %v\n", c.paint("ERROR", text.FgRed, text.Bold), e.Check.DisplayName(), e.Err)
		if err == nil && c.verbose && len(e.Properties) > 0 {
			err = c.printf("      %s\n", c.dim(FormatProperties(e.Properties)))
		}
	case events.UnknownCheckEvent:
		err = c.printf("%s %s: no validator for %q\n", c.paint("SKIP", text.FgYellow), e.Check.DisplayName(), e.CheckName)
	case events.EntityExpandingEvent:
		if c.verbose {
			err = c.printf("%s %s matched %d tables: %s\n",
				c.paint("EXPAND", text.FgCyan), e.Match, len(e.Expansion), strings.Join(e.Expansion, ", "))
		}
	}
	return err
}

func (c *Console) failureDetails(e events.CheckFailedEvent) error {
	if e.Message != "" {
		if err := c.printf("      %s\n", e.Message); err != nil {
			return err
		}
	}
	line := fmt.Sprintf("value %s, goal %s", cast.ToString(e.Value), cast.ToString(e.Goal))
	if e.Details != "" {
		line += ", " + e.Details
	}
	if owner := e.Check.Owner; owner != "" {
		line += ", owner " + owner
		if c.contacts != nil {
			if contact, ok := c.contacts(owner); ok {
				line += " <" + contact + ">"
			}
		}
	}
	return c.printf("      %s\n", c.dim(line))
}

func (c *Console) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(c.w, format, args...)
	return err
}

func (c *Console) paint(s string, colors ...text.Color) string {
	if !c.color {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (c *Console) dim(s string) string {
	return c.paint(s, text.Faint)
}

func failLabel(s core.Severity) string {
	switch s {
	case core.SeverityWarning:
		return "WARN"
	case core.SeverityInfo, core.SeverityHint:
		return strings.ToUpper(s.String())
	default:
		return "FAIL"
	}
}

func severityColor(s core.Severity) text.Color {
	switch s {
	case core.SeverityWarning:
		return text.FgYellow
	case core.SeverityInfo, core.SeverityHint:
		return text.FgBlue
	default:
		return text.FgRed
	}
}

func formatDuration(d time.Duration) string {
	return "(" + d.Round(time.Millisecond).String() + ")"
}

// FormatProperties renders a property bag as sorted key=value pairs.
func FormatProperties(props map[string]any) string {
	keys := slices.Sorted(maps.Keys(props))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+cast.ToString(props[k]))
	}
	return strings.Join(parts, " ")
}

var _ events.Subscriber = (*Console)(nil)
