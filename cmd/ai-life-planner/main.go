package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ai-life-planner/internal/app"
	"ai-life-planner/internal/config"
	"ai-life-planner/internal/database"
	"ai-life-planner/internal/logging"
	"ai-life-planner/internal/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliEnv is the state shared by every command, built in PersistentPreRunE.
type cliEnv struct {
	cfg          *config.Config
	logger       *zap.Logger
	metricsStore *metrics.Store
	app          *app.App
}

func main() {
	var rt cliEnv

	rootCmd := &cobra.Command{
		Use:   "ai-life-planner",
		Short: "Design a personalized daily routine with an AI planner",
		Long: `AI Life Planner asks six questions about your goals and builds a daily
routine, habits and next steps with a generative model.

Usage modes:
  ai-life-planner                 Start the interactive planner
  ai-life-planner plan [flags]    Generate a plan without the interface
  ai-life-planner metrics         Show token usage and system health`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init(cmd.Name() == "tui" || cmd == cmd.Root())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), &rt)
		},
	}

	rootCmd.AddCommand(
		tuiCmd(&rt),
		planCmd(&rt),
		metricsCmd(&rt),
		metricsCleanupCmd(&rt),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// init loads the configuration, the logger and the usage store. The
// interactive mode logs to a file so log lines do not tear the screen.
func (rt *cliEnv) init(interactive bool) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	rt.cfg = cfg

	logFile := cfg.LogFile
	if interactive && logFile == "" {
		logFile = filepath.Join(filepath.Dir(cfg.DatabasePath), "ai-life-planner.log")
	}
	rt.logger, err = logging.New(cfg.LogLevel, logFile)
	if err != nil {
		return err
	}

	// Usage metrics are optional: the planner works without a database.
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		rt.logger.Warn("metrics disabled", zap.String("path", cfg.DatabasePath), zap.Error(err))
	} else {
		rt.metricsStore = metrics.NewStore(db.SQL)
	}

	rt.app = app.NewApp(cfg, app.NewGeneratorFactory(cfg), rt.metricsStore, rt.logger)
	return nil
}

func (rt *cliEnv) close() {
	if rt.metricsStore != nil {
		if err := rt.metricsStore.Close(); err != nil {
			rt.logger.Warn("failed to close metrics store", zap.Error(err))
		}
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
}
