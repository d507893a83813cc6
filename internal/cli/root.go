package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/apresai/creatorpilot/internal/assistant"
	"github.com/apresai/creatorpilot/internal/config"
	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/observability"
	"github.com/apresai/creatorpilot/internal/progress"
	"github.com/apresai/creatorpilot/internal/recorder"
	"github.com/spf13/cobra"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "creatorpilot",
	Short:        "Weekly progress tracking and persona messaging for content creators",
	SilenceUsage: true,
	RunE:         runProgressShow,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "creatorpilot %s\n", Version)
	},
}

var (
	flagConfig       string
	flagProgressFile string
	flagOffline      bool
	flagVerbose      bool
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", config.DefaultPath, "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&flagProgressFile, "progress-file", "p", "", "Weekly progress file (overrides progress.file)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Skip the LLM and use fallback replies")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the CLI with ctx as every command's context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// app is the per-invocation wiring shared by all commands.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	rec      recorder.Recorder
	shutdown observability.ShutdownFunc
}

func loadApp(ctx context.Context) (*app, error) {
	if err := config.LoadDotenv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagProgressFile != "" {
		cfg.Progress.File = flagProgressFile
	}
	if flagOffline {
		cfg.LLM.Provider = "offline"
	}
	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logger := observability.InitLogger(level)

	if cfg.Secrets.Prefix != "" && !flagOffline {
		if err := config.LoadSecrets(ctx, cfg.Secrets.Prefix, cfg.LLM.Region, logger); err != nil {
			logger.WarnContext(ctx, "could not load secrets", "error", err)
		}
		cfg.ResolveAPIKey()
	}

	shutdown, err := observability.InitTracer(ctx, "creatorpilot", Version)
	if err != nil {
		logger.WarnContext(ctx, "tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}

	return &app{
		cfg:      cfg,
		log:      logger,
		rec:      openRecorder(cfg, logger),
		shutdown: shutdown,
	}, nil
}

// openRecorder returns the SQLite history store, or a no-op one when
// history is disabled or the database cannot be opened.
func openRecorder(cfg *config.Config, logger *slog.Logger) recorder.Recorder {
	if !cfg.HistoryEnabled() {
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		logger.Warn("history disabled", "path", cfg.Database.SQLitePath, "error", err)
		return recorder.NewNoopRecorder()
	}
	return rec
}

func (a *app) Close(ctx context.Context) {
	if err := a.rec.Close(); err != nil {
		a.log.WarnContext(ctx, "close recorder", "error", err)
	}
	if err := a.shutdown(ctx); err != nil {
		a.log.WarnContext(ctx, "shutdown tracer", "error", err)
	}
}

// assistant validates the LLM settings and builds the persona services.
func (a *app) assistant(ctx context.Context) (*assistant.Assistant, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	gen, err := llm.New(ctx, a.cfg.LLMOptions())
	if err != nil {
		return nil, err
	}
	a.log.DebugContext(ctx, "generator ready", "provider", gen.Name())
	return assistant.New(gen, a.cfg.Persona, a.rec, a.log), nil
}

// withApp runs fn with a loaded app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(ctx, a)
}

// loadTracker restores the saved week. A missing file starts a fresh one;
// a corrupt file is an error so it is never silently overwritten.
func loadTracker(path string, notice io.Writer) (*progress.Tracker, error) {
	t, err := progress.LoadFile(path)
	switch {
	case errors.Is(err, progress.ErrNotFound):
		fmt.Fprintf(notice, "No saved progress at %s, starting a new week.\n", path)
		return progress.New(), nil
	case err != nil:
		return nil, fmt.Errorf("%w\nfix or remove the file, or run `creatorpilot progress reset`", err)
	}
	return t, nil
}

// saveTracker writes the week to disk and appends the report to history.
func (a *app) saveTracker(ctx context.Context, t *progress.Tracker) error {
	if err := t.Save(a.cfg.Progress.File); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	report := t.BuildReport()
	if err := a.rec.RecordReport(observability.DetachTraceContext(ctx), report); err != nil {
		a.log.WarnContext(ctx, "could not record report", "error", err)
	}
	a.log.DebugContext(ctx, "progress saved", "file", a.cfg.Progress.File, "overall", report.OverallStatus, "avg", report.AvgProgress)
	return nil
}
