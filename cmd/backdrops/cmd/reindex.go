package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/internal/output"
	"github.com/Aman-CERP/backdrops/internal/reconcile"
)

type reindexOptions struct {
	addedExternal bool
	addedDefault  bool
	policy        string
	format        string
}

func newReindexCmd(opts *globalOptions) *cobra.Command {
	var ro reindexOptions

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Reconcile the catalog with the background folders on disk",
		Long: `Scan every configured root, pair moved folders with their previous
catalog entries, import new folders, drop vanished ones and rebuild the tag
and name indices. The catalog is rewritten only if something changed.

When a root was just added (--added-external, --added-default) you are asked
whether imported backgrounds should keep their saved indexed time or be
treated as new. --policy answers the question up front.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReindex(cmd, opts, ro)
		},
	}

	cmd.Flags().BoolVar(&ro.addedExternal, "added-external", false, "An external root was just added")
	cmd.Flags().BoolVar(&ro.addedDefault, "added-default", false, "The legacy default root was just brought into the scan")
	cmd.Flags().StringVar(&ro.policy, "policy", "", "Import policy when a root was added: new, saved")
	cmd.Flags().StringVarP(&ro.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runReindex(cmd *cobra.Command, opts *globalOptions, ro reindexOptions) error {
	format, err := output.ParseFormat(ro.format)
	if err != nil {
		return err
	}
	var policy reconcile.Policy
	if ro.policy != "" {
		if policy, err = reconcile.ParsePolicy(ro.policy); err != nil {
			return err
		}
	}

	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	trigger := reconcile.Trigger{
		AddedExternalRoot: ro.addedExternal,
		AddedDefaultRoot:  ro.addedDefault,
	}
	res, err := reindexWith(cmd, a, trigger, policy)
	if err != nil {
		return err
	}
	return printResult(output.NewWithFormat(cmd.OutOrStdout(), format), res)
}

// reindexWith runs a pass. A non-empty policy resolves the import prompt
// without asking.
func reindexWith(cmd *cobra.Command, a *app, trigger reconcile.Trigger, policy reconcile.Policy) (reconcile.Result, error) {
	ctx := cmd.Context()
	if policy == "" {
		return a.engine.Reindex(ctx, trigger, a.console)
	}

	slog.Debug("reindex_policy_preset", slog.String("policy", string(policy)))
	p, err := a.engine.Begin(ctx, trigger)
	if err != nil {
		return reconcile.Result{}, err
	}
	if p.Decision() != nil {
		if err := p.Resolve(string(policy)); err != nil {
			p.Abort()
			return reconcile.Result{}, err
		}
	}
	res, err := p.Commit(ctx)
	if err != nil {
		return reconcile.Result{}, err
	}
	if res.Written {
		a.console.CatalogChanged(res.Summary())
	}
	return res, nil
}

func printResult(out *output.Writer, res reconcile.Result) error {
	if out.JSONMode() {
		return out.JSON(map[string]any{
			"added":      res.Added,
			"removed":    res.Removed,
			"moved":      res.Moved,
			"unreadable": res.Unreadable,
			"written":    res.Written,
			"total":      res.Total,
		})
	}
	if res.Unreadable > 0 {
		out.Warningf("%d background(s) had unreadable metadata and were skipped", res.Unreadable)
	}
	if !res.Written {
		out.Successf("Catalog up to date (%d backgrounds)", res.Total)
		return nil
	}
	out.Successf("Reindexed: %s (%d backgrounds)", res.Summary(), res.Total)
	return nil
}
