package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/internal/config"
	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/output"
	"github.com/Aman-CERP/backdrops/internal/reconcile"
)

func newTagsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List and manage indexable tags",
		Long: `Only tags from the public taxonomy or the user's local tags are indexed.
Adding or removing a local tag rebuilds the tag index.`,
	}
	cmd.AddCommand(newTagsListCmd(opts))
	cmd.AddCommand(newTagsAddCmd(opts))
	cmd.AddCommand(newTagsRemoveCmd(opts))
	return cmd
}

func newTagsListCmd(opts *globalOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the tags that are indexed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.OpenStore(opts.configPath)
			if err != nil {
				return err
			}
			var lines []string
			if !local {
				lines = append(lines, config.PublicTags...)
			}
			for _, t := range settings.LocalTags() {
				line := t.Name
				if t.Category != "" {
					line += " (" + t.Category + ")"
				}
				lines = append(lines, line)
			}
			return output.New(cmd.OutOrStdout()).List(lines)
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Only show local tags")
	return cmd
}

func newTagsAddCmd(opts *globalOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a local tag and reindex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			if _, ok := a.settings.AllowedTags()[strings.ToLower(name)]; ok {
				return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("tag %q already exists", name), nil)
			}
			tags := append(a.settings.LocalTags(), config.LocalTag{Name: name, Category: category})
			return saveTagsAndReindex(cmd, a, tags, "Added tag "+name)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Category shown in tag lists")
	return cmd
}

func newTagsRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a local tag and reindex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			tags := a.settings.LocalTags()
			i := slices.IndexFunc(tags, func(t config.LocalTag) bool {
				return strings.EqualFold(t.Name, args[0])
			})
			if i < 0 {
				return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("no local tag %q", args[0]), nil)
			}
			tags = slices.Delete(tags, i, i+1)
			return saveTagsAndReindex(cmd, a, tags, "Removed tag "+args[0])
		},
	}
}

func saveTagsAndReindex(cmd *cobra.Command, a *app, tags []config.LocalTag, msg string) error {
	if err := a.settings.SaveSettings(config.Partial{LocalTags: &tags}); err != nil {
		return err
	}
	out := output.New(cmd.OutOrStdout())
	out.Success(msg)

	res, err := a.engine.Reindex(cmd.Context(), reconcile.Trigger{}, a.console)
	if err != nil {
		return err
	}
	return printResult(out, res)
}
