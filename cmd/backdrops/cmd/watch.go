package cmd

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/internal/metrics"
	"github.com/Aman-CERP/backdrops/internal/output"
	"github.com/Aman-CERP/backdrops/internal/reconcile"
	"github.com/Aman-CERP/backdrops/internal/watcher"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reindex whenever background folders change",
		Long: `Run a reindex, then watch every root and reindex again after changes
settle (watch.debounce, default 2s). Stops on Ctrl+C.

With --metrics-addr, Prometheus metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, opts, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *globalOptions, metricsAddr string) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.settings.Config()
	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}

	metrics.Initialize()
	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	out := output.New(cmd.OutOrStdout())
	pass := func(ctx context.Context) error {
		res, err := a.engine.Reindex(ctx, reconcile.Trigger{}, a.console)
		if err != nil {
			return err
		}
		if res.Unreadable > 0 {
			out.Warningf("%d background(s) had unreadable metadata and were skipped", res.Unreadable)
		}
		return nil
	}

	if err := pass(ctx); err != nil {
		return err
	}

	roots := a.settings.Roots()
	dirs := append([]string{roots.Primary, roots.Default}, roots.External...)
	w := watcher.New(dirs, watcher.Options{Debounce: debounce, Logger: slog.Default()})

	out.Statusf("👀", "Watching %d root(s), Ctrl+C to stop", len(w.Roots()))
	return w.Run(ctx, pass)
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics_server_failed", slog.String("addr", addr), slog.String("error", err.Error()))
		}
	}()
	slog.Info("metrics_server_started", slog.String("addr", addr))
	return srv
}
