package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/zakazai/flatdb/internal/config"
	"github.com/zakazai/flatdb/internal/engine"
	"github.com/zakazai/flatdb/internal/storage"
	"github.com/zakazai/flatdb/internal/types"
)

// Version is set at build time.
var Version = "0.1.0"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flatdb",
		Short: "FlatDB - a tiny SQL-like engine over flat CSV files",
		Long: `FlatDB runs single-line SQL-like statements (CREATE TABLE, INSERT,
UPDATE, DELETE, SELECT) against tables kept as one CSV file each.

Without a subcommand it starts the interactive shell.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfgFile, _ := cmd.Root().PersistentFlags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			opts := cfg.LoggerOptions()
			opts.Output = cmd.ErrOrStderr()
			a.cfg = cfg
			a.logger, a.cleanup = types.InitLogger(opts)
			if cfg.File != "" {
				a.logger.Debug("using config file", "path", cfg.File)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.BindFlags(rootCmd.PersistentFlags())
	_ = rootCmd.RegisterFlagCompletionFunc("storage", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "parquet", "hybrid"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(a.newShellCmd())
	rootCmd.AddCommand(a.newExecCmd())
	rootCmd.AddCommand(a.newTablesCmd())
	return rootCmd
}

// openEngine opens the database described by the loaded configuration.
func (a *app) openEngine(confirm engine.ConfirmFunc) (*engine.Engine, error) {
	if a.cfg.AssumeYes {
		confirm = func(string) bool { return true }
	}
	e, err := engine.Open(engine.Config{
		Dir:         a.cfg.DataDir,
		StorageType: storage.StorageType(a.cfg.Storage),
		MirrorDir:   a.cfg.MirrorDir,
		MaxJoinRows: a.cfg.MaxJoinRows,
		Confirm:     confirm,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database in %s: %w", a.cfg.DataDir, err)
	}
	return e, nil
}

func main() {
	a := &app{cleanup: func() {}}
	err := newRootCmd(a).Execute()
	// flush the Seq sink before exiting
	a.cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
