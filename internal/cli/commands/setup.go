package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/config"
	"github.com/leapstack-labs/leapcheck/internal/connection"
	"github.com/leapstack-labs/leapcheck/internal/engine"
	"github.com/leapstack-labs/leapcheck/internal/events"
	"github.com/leapstack-labs/leapcheck/internal/validator"
)

// ErrChecksFailed is returned by run when any check failed or errored.
var ErrChecksFailed = errors.New("one or more checks failed")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg         *config.Config
	Logger      *slog.Logger
	Connections *connection.Manager
	Publisher   *events.Publisher
	Engine      *engine.Engine
}

// NewCommandContext creates a CommandContext with connections and an engine.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	mgr := connection.NewManager(cfg.AdapterConfigs(), logger)
	pub := events.NewPublisher(logger)
	pub.OnError(func(err *events.SubscriberError) {
		logger.Error("event subscriber failed", slog.String("error", err.Error()))
	})

	eng, err := engine.New(engine.Config{
		Registry:        validator.Default(),
		Resolver:        mgr,
		Metadata:        mgr,
		Publisher:       pub,
		Workers:         cfg.Workers,
		Environment:     cfg.Environment,
		StrictExpansion: cfg.StrictExpansion,
		Logger:          logger,
	})
	if err != nil {
		_ = mgr.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := mgr.Close(); err != nil {
			logger.Warn("failed to close connections", slog.String("error", err.Error()))
		}
	}

	return &CommandContext{
		Cfg:         cfg,
		Logger:      logger,
		Connections: mgr,
		Publisher:   pub,
		Engine:      eng,
	}, cleanup, nil
}

// getConfig returns the configuration loaded by the root command, or the
// defaults when the command runs standalone.
func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := config.FromContext(ctx); ok {
		return cfg
	}
	return &config.Config{
		Environment: config.DefaultEnv,
		Workers:     config.DefaultWorkers,
		LogLevel:    config.DefaultLogLevel,
		LogFormat:   config.DefaultLogFormat,
		JournalPath: config.DefaultJournal,
	}
}

func verbose(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}
