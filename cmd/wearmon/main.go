// Package main is the entry point for wearmon. Without a subcommand it runs
// the terminal dashboard; the subcommands query and seed the sleep history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/wearmon/internal/app"
	"github.com/j-veylop/wearmon/internal/config"
	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/services"
	"github.com/j-veylop/wearmon/internal/ui/tabs/dashboard"
	"github.com/j-veylop/wearmon/internal/ui/tabs/info"
	"github.com/j-veylop/wearmon/internal/ui/tabs/sleep"
	"github.com/j-veylop/wearmon/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wearmon",
		Short: "Live exercise and sleep dashboard for a wearable",
		Long: `wearmon aggregates live exercise metrics, the passive activity state
and sleep history of a wearable into one view.

Configuration is read from .env files and environment variables
(DATABASE_PATH, MEASUREMENT_SOURCE, MQTT_BROKER, ...).`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context())
		},
	}
	root.SetVersionTemplate(version.Info() + "\n")

	root.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Run the terminal dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context())
		},
	})
	root.AddCommand(newSleepCmd())
	root.AddCommand(newWorkoutsCmd())
	root.AddCommand(newDBCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads the configuration and starts file logging.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closeLog, err := logger.Init(logger.Options{
		Path:  cfg.LogFile,
		Level: cfg.LogLevel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, closeLog, nil
}

func runTUI(ctx context.Context) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("starting", "version", version.Info())

	sources, err := services.OpenSources(cfg)
	if err != nil {
		return fmt.Errorf("failed to open sources: %w", err)
	}

	mgr, err := services.NewManager(cfg, sources)
	if err != nil {
		_ = sources.Close()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A failed start leaves the dashboard usable; the sleep card shows
	// the error through its own refresh.
	if err := mgr.Start(ctx); err != nil {
		logger.Warn("startup incomplete", "error", err)
	}

	model := app.NewModel(ctx, mgr)
	defer model.Shutdown()

	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, cfg),
		sleep.New(state),
		info.New(state, cfg),
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
