package cmd

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/output"
	"github.com/Aman-CERP/backdrops/internal/query"
)

// filterOptions are the query flags shared by search and find-page.
type filterOptions struct {
	include []string
	exclude []string
	format  string
}

func (f *filterOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.include, "include", "i", nil, "Require tag (repeatable, all must match)")
	cmd.Flags().StringSliceVarP(&f.exclude, "exclude", "x", nil, "Drop backgrounds with tag (repeatable, any matches)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text, json")
}

type searchOptions struct {
	filterOptions
	offset int
	limit  int
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var so searchOptions

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search the catalog by text, name or tag",
		Long: `Search the catalog. Results are ordered newest first.

Text matches a substring of the id or any indexed tag or name. Operators
narrow the match:
  id:<text>     substring of the id only
  name:<text>   exact public name
  tag:<tag>     exactly the backgrounds under that tag

Examples:
  backdrops search sunset
  backdrops search tag:Space --exclude dark
  backdrops search --include landscape --include night --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, strings.Join(args, " "), so)
		},
	}

	so.register(cmd)
	cmd.Flags().IntVar(&so.offset, "offset", 0, "Skip this many results")
	cmd.Flags().IntVarP(&so.limit, "limit", "n", 50, "Maximum number of results (0 for all)")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *globalOptions, text string, so searchOptions) error {
	format, err := output.ParseFormat(so.format)
	if err != nil {
		return err
	}
	if so.offset < 0 || so.limit < 0 {
		return fmt.Errorf("offset and limit must not be negative")
	}

	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.query.Page(cmd.Context(), so.offset, so.limit, text, so.include, so.exclude)
	if err != nil {
		return err
	}
	slog.Debug("search_complete",
		slog.String("query", text),
		slog.Int("returned", len(res.IDs)),
		slog.Int("total", res.Total))

	out := output.NewWithFormat(cmd.OutOrStdout(), format)
	ids := idStrings(res.IDs)
	if out.JSONMode() {
		return out.JSON(map[string]any{
			"results": ids,
			"total":   res.Total,
			"offset":  so.offset,
		})
	}
	if len(ids) == 0 {
		out.Status("🔍", "No backgrounds found")
		return nil
	}
	if err := out.List(ids); err != nil {
		return err
	}
	if len(ids) < res.Total {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d-%d of %d\n", so.offset+1, so.offset+len(ids), res.Total)
	}
	return nil
}

type findPageOptions struct {
	filterOptions
	pageSize int
}

func newFindPageCmd(opts *globalOptions) *cobra.Command {
	var fo findPageOptions

	cmd := &cobra.Command{
		Use:   "find-page <id> [text]",
		Short: "Find which result page holds a background",
		Long: `Report the 0-based page, for the given page size, on which a background
appears in the results of the same query search would run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFindPage(cmd, opts, identifier.ID(args[0]), strings.Join(args[1:], " "), fo)
		},
	}

	fo.register(cmd)
	cmd.Flags().IntVar(&fo.pageSize, "page-size", 50, "Results per page")

	return cmd
}

func runFindPage(cmd *cobra.Command, opts *globalOptions, id identifier.ID, text string, fo findPageOptions) error {
	format, err := output.ParseFormat(fo.format)
	if err != nil {
		return err
	}
	if fo.pageSize < 1 {
		return fmt.Errorf("page size must be positive")
	}

	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	loc, err := a.query.FindPage(cmd.Context(), id, fo.pageSize, text, fo.include, fo.exclude)
	if err != nil {
		if stderrors.Is(err, query.ErrNotInResults) {
			return fmt.Errorf("%s is not among the %d matching backgrounds", id, loc.Total)
		}
		return err
	}

	out := output.NewWithFormat(cmd.OutOrStdout(), format)
	return out.KeyValues(
		[]string{"id", "page", "index", "total"},
		map[string]any{"id": string(id), "page": loc.Page, "index": loc.Index, "total": loc.Total},
	)
}

func idStrings(ids []identifier.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
