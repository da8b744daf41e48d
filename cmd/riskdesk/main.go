package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"pkt.systems/psi"
	"pkt.systems/pslog"

	"github.com/jask/riskdesk/app"
	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/internal/config"
	"github.com/jask/riskdesk/internal/database"
	"github.com/jask/riskdesk/internal/logx"
	"github.com/jask/riskdesk/internal/panel"
	"github.com/jask/riskdesk/internal/tabs"
	"github.com/jask/riskdesk/internal/workspace"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("riskdesk command failed")
		return 1
	}
	return 0
}

type rootFlags struct {
	config   string
	db       string
	logLevel string
}

// load applies the flags on top of file and env configuration.
func (f *rootFlags) load() (config.Config, error) {
	if f.config != "" {
		if err := os.Setenv("RISKDESK_CONFIG", f.config); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if f.db != "" {
		cfg.Database.Path = f.db
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "riskdesk",
		Short:         "Fraud investigation workspace",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return runWorkspace(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().StringVar(&flags.config, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().StringVar(&flags.db, "db", "", "sqlite path, :memory: keeps fixtures in memory")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "trace, debug, info, warn or error")

	root.AddCommand(newFixturesCmd(flags))
	return root
}

func runWorkspace(ctx context.Context, cfg config.Config) error {
	logger, closer, err := logx.OpenFile(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()
	ctx = pslog.ContextWithLogger(ctx, logger)

	db, err := database.Bootstrap(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer db.Close()

	store := workspace.New(logger)
	layout := panel.NewLayout()
	host := core.NewArtifactHost(store, layout, core.ArtifactOptions{
		Debounce:        cfg.Tabs.Debounce,
		Policy:          tabs.ParsePolicy(cfg.Tabs.PublishPolicy),
		CollapsedWidth:  cfg.UI.CollapsedWidth,
		ExpandedPercent: cfg.UI.ExpandedPercent,
		MarkdownStyle:   cfg.UI.MarkdownStyle,
		FPS:             cfg.UI.ScrollFPS,
		Logger:          logger,
	})
	defer host.Close()

	src := app.NewSource(db)
	sim := app.NewSimulator(uint64(time.Now().UnixNano()), time.Now)
	startPage := cfg.UI.StartPage
	if startPage == "" {
		startPage = app.DefaultStartPage
	}
	m := core.NewModel(app.Pages(src, sim), core.NewKeyRegistry(core.DefaultKeyBindings()), nil, core.Deps{
		DB:        db,
		Workspace: store,
		Layout:    layout,
		Artifacts: host,
		Logger:    logger,
		StartPage: startPage,
	})
	app.ConfigureModel(&m, src, sim)

	logger.Info("workspace starting", "db", cfg.Database.Path, "start_page", startPage)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run workspace: %w", err)
	}
	logger.Info("workspace stopped")
	return nil
}
