package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/marcus/attrview/internal/app"
	"github.com/marcus/attrview/internal/kernel"
	"github.com/marcus/attrview/internal/keymap"
	"github.com/marcus/attrview/internal/plugin"
	"github.com/marcus/attrview/internal/plugins/avtable"
	"github.com/marcus/attrview/internal/state"
	"github.com/marcus/attrview/internal/styles"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	styles.ApplyTheme(cfg.UI.Theme.Name, cfg.UI.Theme.Overrides)

	// Logs go to a file; the terminal belongs to the program.
	logOut := os.DevNull
	if debugFlag {
		logOut = filepath.Join(os.TempDir(), "attrview-debug.log")
	}
	f, err := os.OpenFile(logOut, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	logger := newLogger(f)

	// Persistent state is optional.
	if err := state.Init(); err != nil {
		logger.Warn("state unavailable", "err", err)
	}

	store, journal, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer journal.Close()

	deps := avtable.Deps{Views: store, History: journal}
	if len(args) > 0 {
		deps.Start = args[0]
	}
	if cfg.Kernel.BaseURL != "" {
		deps.Templates = kernel.NewClient(cfg.Kernel.BaseURL, cfg.Kernel.Token, cfg.Kernel.Timeout)
	}

	km := keymap.Default(cfg.Keymap.Overrides)
	pane := avtable.New(deps)
	if err := pane.Init(&plugin.Context{
		WorkDir: cfg.Store.DataDir,
		Config:  cfg,
		Keymap:  km,
		Logger:  logger,
	}); err != nil {
		return fmt.Errorf("init table: %w", err)
	}

	model := app.New(pane, km)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
