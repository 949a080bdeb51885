package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/internal/config"
	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/output"
	"github.com/Aman-CERP/backdrops/internal/reconcile"
)

func newRootsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "List and manage background roots",
	}
	cmd.AddCommand(newRootsListCmd(opts))
	cmd.AddCommand(newRootsAddCmd(opts))
	cmd.AddCommand(newRootsRemoveCmd(opts))
	cmd.AddCommand(newRootsSetPrimaryCmd(opts))
	return cmd
}

func newRootsListCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show every configured root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			settings, err := config.OpenStore(opts.configPath)
			if err != nil {
				return err
			}

			roots := settings.Roots()
			out := output.NewWithFormat(cmd.OutOrStdout(), f)

			type row struct {
				Root   string `json:"root"`
				Path   string `json:"path"`
				Exists bool   `json:"exists"`
			}
			rows := make([]row, 0, len(roots.External)+2)
			for _, ref := range roots.Refs() {
				dir, _ := roots.RootDir(ref)
				rows = append(rows, row{Root: ref.String(), Path: dir, Exists: dirExists(dir)})
			}

			if out.JSONMode() {
				return out.JSON(rows)
			}
			lines := make([]string, len(rows))
			for i, r := range rows {
				state := ""
				if !r.Exists {
					state = "  (missing)"
				}
				lines[i] = fmt.Sprintf("%-8s %s%s", r.Root, r.Path, state)
			}
			return out.List(lines)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func newRootsAddCmd(opts *globalOptions) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add an external root and import its backgrounds",
		Long: `Add a directory as an external root, save the settings and run a reindex.
You are asked whether imported backgrounds keep their saved indexed time;
--policy answers up front.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := parseOptionalPolicy(policy)
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if !dirExists(path) {
				return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("%s is not a directory", path), nil)
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			paths := a.settings.ExternalPaths()
			if slices.Contains(paths, path) {
				return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("%s is already a root", path), nil)
			}
			paths = append(paths, path)
			if err := a.settings.SaveSettings(config.Partial{ExternalPaths: &paths}); err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Successf("Added ext:%d %s", len(paths)-1, path)

			res, err := reindexWith(cmd, a, reconcile.Trigger{AddedExternalRoot: true}, pol)
			if err != nil {
				return err
			}
			return printResult(out, res)
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "", "Import policy: new, saved")
	return cmd
}

func newRootsRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove an external root and drop its backgrounds from the catalog",
		Long: `Remove the external root at the given index. The folders stay on disk;
their catalog entries are dropped by the reindex that follows. Roots after
the removed one shift down by one and keep their indexed times.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			paths := a.settings.ExternalPaths()
			if idx < 0 || idx >= len(paths) {
				return errors.New(errors.ErrCodeConfigInvalid,
					fmt.Sprintf("no external root %d (have %d)", idx, len(paths)), nil)
			}
			removed := paths[idx]
			paths = slices.Delete(paths, idx, idx+1)
			if err := a.settings.SaveSettings(config.Partial{ExternalPaths: &paths}); err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Successf("Removed %s", removed)

			res, err := a.engine.Reindex(cmd.Context(), reconcile.Trigger{}, a.console)
			if err != nil {
				return err
			}
			return printResult(out, res)
		},
	}
}

func newRootsSetPrimaryCmd(opts *globalOptions) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "set-primary <path>",
		Short: "Use a custom primary directory",
		Long: `Use a custom primary directory. The previous default directory stays in
the scan as the legacy "default" root, so its backgrounds are imported under
default::<folder> identifiers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := parseOptionalPolicy(policy)
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("create primary directory: %w", err)
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			hadDefault := a.settings.Roots().Default != ""
			if err := a.settings.SaveSettings(config.Partial{BackgroundsDir: &path}); err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Successf("Primary directory is now %s", path)

			trigger := reconcile.Trigger{AddedDefaultRoot: !hadDefault && a.settings.Roots().Default != ""}
			res, err := reindexWith(cmd, a, trigger, pol)
			if err != nil {
				return err
			}
			return printResult(out, res)
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "", "Import policy: new, saved")
	return cmd
}

func parseOptionalPolicy(s string) (reconcile.Policy, error) {
	if s == "" {
		return "", nil
	}
	return reconcile.ParsePolicy(s)
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
