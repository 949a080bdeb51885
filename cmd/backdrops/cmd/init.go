package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/configs"
	"github.com/Aman-CERP/backdrops/internal/output"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the settings file, primary directory and an empty catalog",
		Long: `Create whatever is missing: an annotated settings file, the primary
background directory and an empty catalog. Existing files are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			out := output.New(cmd.OutOrStdout())

			wrote, err := writeTemplate(a.settings.Path())
			if err != nil {
				return err
			}
			if wrote {
				out.Successf("Wrote settings template to %s", a.settings.Path())
			}

			primary := a.settings.Roots().Primary
			if err := os.MkdirAll(primary, 0o755); err != nil {
				return fmt.Errorf("create primary directory: %w", err)
			}

			created, err := a.catalog.Init()
			if err != nil {
				return err
			}
			if created {
				out.Successf("Created catalog at %s", a.catalog.Path())
			} else {
				out.Statusf("ℹ️ ", "Catalog already exists at %s", a.catalog.Path())
			}
			return nil
		},
	}
}

// writeTemplate writes the settings template to path unless a file is
// already there.
func writeTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return false, fmt.Errorf("write settings template: %w", err)
	}
	return true, nil
}
