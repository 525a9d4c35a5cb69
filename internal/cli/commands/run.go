package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/console"
	"github.com/leapstack-labs/leapcheck/internal/engine"
	"github.com/leapstack-labs/leapcheck/internal/journal"
	"github.com/leapstack-labs/leapcheck/internal/metrics"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Timeout     time.Duration
	Schedule    string
	MetricsAddr string
	NoJournal   bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run the checks in a check script",
		Long: `Parse a check script, expand its entity patterns against the live
schema, and run every check.

The command exits non-zero when any check failed or could not run.
With --schedule the script is run repeatedly until interrupted.`,
		Example: `  # Run a script against the dev environment
  leapcheck run checks/customers.yaml

  # Run against prod with four workers and a five minute limit
  leapcheck run checks/customers.yaml --env prod --workers 4 --timeout 5m

  # Run every 15 minutes and export metrics for the node exporter
  leapcheck run checks/customers.yaml --schedule "*/15 * * * *" --metrics-file /var/lib/node_exporter/leapcheck.prom`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().Int("workers", 0, "Number of checks to run at once")
	cmd.Flags().Bool("strict", false, "Fail when a match pattern selects no tables")
	cmd.Flags().String("journal", "", "Path to the run journal database")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file after each run")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Cancel the run after this long (0 for no limit)")
	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "Cron expression; run repeatedly until interrupted")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while scheduled")
	cmd.Flags().BoolVar(&opts.NoJournal, "no-journal", false, "Do not record the run in the journal")

	return cmd
}

func runRun(cmd *cobra.Command, script string, opts *RunOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	con := console.New(out, console.WithVerbose(verbose(cmd)))
	cc.Publisher.Subscribe(con)

	collector := metrics.NewCollector()
	cc.Publisher.Subscribe(collector)

	var store *journal.Store
	if !opts.NoJournal && cc.Cfg.JournalPath != "" {
		store = journal.NewStore(cc.Logger)
		if err := store.Open(cmd.Context(), cc.Cfg.JournalPath); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	r := &runner{
		cc:        cc,
		script:    script,
		out:       out,
		console:   con,
		collector: collector,
		store:     store,
		timeout:   opts.Timeout,
	}

	if opts.Schedule == "" {
		sum, err := r.runOnce(cmd.Context())
		if err != nil {
			return err
		}
		if !sum.OK() {
			return ErrChecksFailed
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.schedule(ctx, opts.Schedule, opts.MetricsAddr)
}

// runner runs one script repeatedly with shared subscribers.
type runner struct {
	cc        *CommandContext
	script    string
	out       io.Writer
	console   *console.Console
	collector *metrics.Collector
	store     *journal.Store
	timeout   time.Duration
}

// runOnce runs the script in its own event scope and records the result.
// A non-nil error means the run could not complete; failed checks are
// reported through the summary.
func (r *runner) runOnce(ctx context.Context) (*engine.Summary, error) {
	scope := r.cc.Publisher.NewScope()
	defer scope.Clear()

	var rec *journal.Recorder
	if r.store != nil {
		rec = journal.NewRecorder(scope)
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	plan, err := r.cc.Engine.Plan(runCtx, r.script, scope)
	if err != nil {
		return nil, err
	}
	r.console.SetContacts(plan.Document.Contact)

	sum, runErr := r.cc.Engine.Run(runCtx, plan.Specs, scope)
	sum.Script = r.script
	sum.EmptyExpansions = plan.EmptyExpansions

	console.RenderSummary(r.out, console.RunSummary{
		RunID:           sum.RunID,
		Environment:     sum.Environment,
		Duration:        sum.Duration,
		Passed:          sum.Passed,
		Failed:          sum.Failed,
		Errored:         sum.Errored,
		Skipped:         sum.Skipped,
		EmptyExpansions: sum.EmptyExpansions,
	})

	// The journal and metrics outlive a cancelled run.
	saveCtx := context.WithoutCancel(ctx)
	if r.store != nil {
		if _, err := r.store.SaveRun(saveCtx, sum.Run(), rec.Results()); err != nil {
			r.cc.Logger.Warn("failed to journal run", slog.String("run_id", sum.RunID), slog.String("error", err.Error()))
		}
	}
	if path := r.cc.Cfg.MetricsFile; path != "" {
		if err := r.collector.WriteTextfile(path); err != nil {
			r.cc.Logger.Warn("failed to write metrics", slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		return sum, fmt.Errorf("run canceled: %w", runErr)
	}
	return sum, nil
}

// schedule runs the script on every cron tick until ctx is done. Runs never
// overlap; a tick that fires while a run is in progress is skipped.
func (r *runner) schedule(ctx context.Context, spec, metricsAddr string) error {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := c.AddFunc(spec, func() {
		sum, err := r.runOnce(ctx)
		switch {
		case err != nil:
			r.cc.Logger.Error("scheduled run failed", slog.String("error", err.Error()))
		case !sum.OK():
			r.cc.Logger.Warn("scheduled run had failing checks", slog.String("run_id", sum.RunID), slog.Int("failed", sum.Failed), slog.Int("errored", sum.Errored))
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	var srv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", r.collector.Handler())
		srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.cc.Logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
		r.cc.Logger.Info("serving metrics", slog.String("addr", metricsAddr))
	}

	r.cc.Logger.Info("schedule started", slog.String("schedule", spec), slog.String("script", r.script))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	r.cc.Logger.Info("schedule stopped")
	return nil
}
