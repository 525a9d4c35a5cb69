package core

import (
	"fmt"
	"maps"
	"regexp"
)

// CheckSpec describes one rule to run against one entity.
//
// Specs coming out of the script parser may carry a Pattern instead of a
// concrete EntityName. The expander replaces every such spec with one spec
// per matching table, so a spec that reaches the engine always has a nil
// Pattern and a non-empty EntityName. Match keeps the pattern as written
// in the script, without the case-insensitivity flag compiled into Pattern.
type CheckSpec struct {
	ConnectionRef string
	Owner         string
	FeatureName   string
	EntityName    string
	Pattern       *regexp.Regexp
	Match         string
	CheckType     string
	Parameters    map[string]string
}

// IsPattern reports whether the spec still needs expansion.
func (c CheckSpec) IsPattern() bool {
	return c.Pattern != nil
}

// Param returns a rule parameter, or def when it is absent or empty.
func (c CheckSpec) Param(key, def string) string {
	if v, ok := c.Parameters[key]; ok && v != "" {
		return v
	}
	return def
}

// WithEntity returns a copy of the spec bound to a concrete entity.
// The parameter map is cloned so siblings never share it.
func (c CheckSpec) WithEntity(name string) CheckSpec {
	out := c
	out.EntityName = name
	out.Pattern = nil
	out.Match = ""
	out.Parameters = maps.Clone(c.Parameters)
	return out
}

// Clone returns a copy that shares no mutable state with c.
func (c CheckSpec) Clone() CheckSpec {
	out := c
	out.Parameters = maps.Clone(c.Parameters)
	return out
}

// Target returns the entity name, or the pattern source for unexpanded specs.
func (c CheckSpec) Target() string {
	if c.Pattern != nil {
		if c.Match != "" {
			return c.Match
		}
		return c.Pattern.String()
	}
	return c.EntityName
}

// DisplayName is the human-readable identity used in events and logs,
// e.g. "null-column dw.Customer.Email".
func (c CheckSpec) DisplayName() string {
	if col := c.Parameters["column"]; col != "" {
		return fmt.Sprintf("%s %s.%s", c.CheckType, c.Target(), col)
	}
	return fmt.Sprintf("%s %s", c.CheckType, c.Target())
}
