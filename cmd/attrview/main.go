// Command attrview browses and edits attribute views in the terminal.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/marcus/attrview/internal/avstore"
	"github.com/marcus/attrview/internal/config"
	"github.com/marcus/attrview/internal/transaction"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath string
	dataDir    string
	debugFlag  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "attrview [avID]",
	Short: "Browse and edit attribute views",
	Long: `attrview shows the attribute views of a workspace as tables and
edits their cells. Edits are journaled and can be undone from the TUI or
the undo and redo commands.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/attrview/config.json)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "workspace data directory (overrides store.dataDir)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd, renderCmd, undoCmd, redoCmd, historyCmd, serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("attrview version %s\n", effectiveVersion(Version))
	},
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.Store.DataDir = config.ExpandPath(dataDir)
	}
	return cfg, nil
}

// newLogger writes text logs to w, at debug level when --debug is set.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debugFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore opens the view store and its journal. The caller closes the
// journal.
func openStore(cfg *config.Config, logger *slog.Logger) (*avstore.Store, *transaction.Journal, error) {
	store := avstore.New(cfg.Store.DataDir)
	if err := os.MkdirAll(avstore.Dir(cfg.Store.DataDir), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create store dir: %w", err)
	}
	j, err := transaction.OpenJournal(cfg.Store.Driver, cfg.Store.JournalPath,
		transaction.StoreApplier{Store: store}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	return store, j, nil
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	ver := "devel+" + revision[:min(12, len(revision))]
	if dirty {
		ver += "+dirty"
	}
	return ver
}
