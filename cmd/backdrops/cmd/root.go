// Package cmd provides the CLI commands for backdrops.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/logging"
	"github.com/Aman-CERP/backdrops/pkg/version"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
	plain      bool

	loggingCleanup func()
}

// NewRootCmd creates the root command for the backdrops CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "backdrops",
		Short: "Catalog and search desktop background folders",
		Long: `backdrops keeps a catalog of background folders spread over a primary
directory, an optional legacy default directory and any number of external
directories. It reconciles the catalog with what is on disk, detects folders
that were moved between roots and answers tag and name queries.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("backdrops version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Settings file (default $XDG_CONFIG_HOME/backdrops/config.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.backdrops/logs/")
	cmd.PersistentFlags().BoolVar(&opts.plain, "plain", false, "Use line prompts instead of the terminal UI")

	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return opts.startLogging()
	}
	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		opts.stopLogging()
		return nil
	}

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newReindexCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newFindPageCmd(opts))
	cmd.AddCommand(newMoveCmd(opts))
	cmd.AddCommand(newRootsCmd(opts))
	cmd.AddCommand(newTagsCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the default logger: rotating file plus stderr in
// debug mode, warnings to stderr otherwise.
func (o *globalOptions) startLogging() error {
	if !o.debug {
		level := os.Getenv("BACKDROPS_LOG_LEVEL")
		if level == "" {
			level = "warn"
		}
		slog.SetDefault(logging.SetupStderr(level))
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	o.loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("Debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Short()))
	return nil
}

func (o *globalOptions) stopLogging() {
	if o.loggingCleanup != nil {
		slog.Debug("Debug logging stopped")
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
}

// Execute runs the root command and prints failures for the terminal.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), errors.FormatForCLI(err))
	}
	return err
}
