package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"ai-life-planner/internal/config"
	"ai-life-planner/internal/lifeplan"
	"ai-life-planner/internal/llm"
	"ai-life-planner/internal/metrics"
	"ai-life-planner/internal/planner"
	"ai-life-planner/internal/render"
	"ai-life-planner/internal/session"

	"go.uber.org/zap"
)

const outputWidth = 80

// ErrMetricsDisabled is returned by metrics operations when no store is set.
var ErrMetricsDisabled = errors.New("metrics store not configured")

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	planner      *planner.Client
	metricsStore *metrics.Store
	logger       *zap.Logger
}

// NewApp creates and initializes a new App instance. metricsStore may be nil,
// in which case usage is not recorded.
func NewApp(cfg *config.Config, newGen planner.GeneratorFactory, metricsStore *metrics.Store, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:          cfg,
		planner:      planner.NewClient(cfg.APIKey, newGen, logger.Named("planner")),
		metricsStore: metricsStore,
		logger:       logger,
	}
}

// NewGeneratorFactory returns a factory for the configured provider.
func NewGeneratorFactory(cfg *config.Config) planner.GeneratorFactory {
	return func(ctx context.Context, apiKey string) (llm.TextGenerator, error) {
		if cfg.Provider == config.ProviderGroq {
			return llm.NewGroqClient(apiKey, cfg.GroqModel, cfg.GenerationTimeout), nil
		}

		client, err := llm.NewGeminiClient(ctx, apiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// NewController returns a session controller wired to the planner, the
// configured timeout and the usage store.
func (a *App) NewController(ctx context.Context, opts ...session.Option) *session.Controller {
	base := []session.Option{
		session.WithLogger(a.logger.Named("session")),
		session.WithTimeout(a.cfg.GenerationTimeout),
	}
	if a.metricsStore != nil {
		base = append(base, session.WithUsageRecorder(a.metricsStore))
	}
	return session.NewController(ctx, a.planner, append(base, opts...)...)
}

// GenerateLifePlan runs one planning session for input and writes the plan
// to w. With rawMarkdown the plan is written unstyled.
func (a *App) GenerateLifePlan(ctx context.Context, input lifeplan.UserInput, w io.Writer, rawMarkdown bool) error {
	ctrl := a.NewController(ctx)
	if err := ctrl.Start(); err != nil {
		return err
	}
	if err := ctrl.Submit(input); err != nil {
		return err
	}

	fmt.Fprintf(w, "Generating a %s plan for %s...\n", input.PrimaryFocus, input.Name)
	ctrl.Wait()

	snap := ctrl.Snapshot()
	if snap.State != lifeplan.StateShowing {
		return errors.New(snap.ErrorMessage)
	}

	md := render.Markdown(snap.Input, snap.Plan)
	if rawMarkdown {
		_, err := io.WriteString(w, md)
		return err
	}

	out, err := render.Terminal(md, outputWidth)
	if err != nil {
		a.logger.Warn("falling back to plain markdown", zap.Error(err))
		out = md
	}
	_, err = io.WriteString(w, out)
	return err
}

// PrintMetrics writes the usage of the last days and the runtime health to w.
func (a *App) PrintMetrics(w io.Writer, days int) error {
	if a.metricsStore == nil {
		return ErrMetricsDisabled
	}

	report, err := a.metricsStore.BuildReport(days, a.DataDir())
	if err != nil {
		return fmt.Errorf("failed to build metrics report: %w", err)
	}

	out, err := render.Terminal(report.Markdown(), outputWidth)
	if err != nil {
		out = report.Markdown()
	}
	_, err = io.WriteString(w, out)
	return err
}

// CleanupMetrics deletes usage records older than days.
func (a *App) CleanupMetrics(days int) (int64, error) {
	if a.metricsStore == nil {
		return 0, ErrMetricsDisabled
	}
	return a.metricsStore.Cleanup(days)
}

// DataDir is the directory holding the database.
func (a *App) DataDir() string {
	return filepath.Dir(a.cfg.DatabasePath)
}
