package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/internal/catalog"
	"github.com/Aman-CERP/backdrops/internal/config"
	"github.com/Aman-CERP/backdrops/internal/query"
	"github.com/Aman-CERP/backdrops/internal/reconcile"
	"github.com/Aman-CERP/backdrops/internal/relocate"
	"github.com/Aman-CERP/backdrops/internal/scanner"
	"github.com/Aman-CERP/backdrops/internal/ui"
)

// app wires the components used by commands.
type app struct {
	settings *config.Store
	catalog  *catalog.Store
	engine   *reconcile.Engine
	query    *query.Engine
	relocate *relocate.Service
	console  *ui.Console
}

func openApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	settings, err := config.OpenStore(opts.configPath)
	if err != nil {
		return nil, err
	}
	cfg := settings.Config()
	logger := slog.Default()

	store := catalog.NewStore(cfg.Paths.DataDir)

	sc, err := scanner.New()
	if err != nil {
		return nil, fmt.Errorf("create scanner: %w", err)
	}

	q, err := query.New(store, cfg.Performance.QueryCacheSize)
	if err != nil {
		return nil, err
	}

	// Prompts and notices go to stderr so stdout carries only results.
	console := ui.New(ui.NewConfig(cmd.InOrStdin(), cmd.ErrOrStderr(), ui.WithForcePlain(opts.plain)))

	engine := reconcile.New(store, settings, sc,
		reconcile.WithWidth(cfg.Performance.IndexWorkers),
		reconcile.WithLogger(logger),
		reconcile.WithObserver(func(res reconcile.Result) {
			if res.Written {
				q.Invalidate()
			}
		}),
	)

	rel := relocate.New(settings, store, relocate.WithLogger(logger))

	slog.Debug("app_opened",
		slog.String("settings", settings.Path()),
		slog.String("catalog", store.Path()),
		slog.Int("index_workers", cfg.Performance.IndexWorkers))

	return &app{
		settings: settings,
		catalog:  store,
		engine:   engine,
		query:    q,
		relocate: rel,
		console:  console,
	}, nil
}

// close waits for background cleanup started by moves.
func (a *app) close() {
	a.relocate.Wait()
}
