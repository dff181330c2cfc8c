package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"veritas-health/sentinel/pkg/config"
	"veritas-health/sentinel/pkg/retention"
)

var servePollInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the continuous evaluation service",
	Long: `Serve runs sentinel as a long-lived service. It polls the claim
store for claims that have not been evaluated yet and evaluates them in
batches, exposes Prometheus metrics over HTTP, prunes expired results on
the retention schedule, and reloads the evaluation pipeline when the
configuration file changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(nil)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)

		// Metrics and health endpoints.
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok\n"))
		})
		srv := &http.Server{
			Addr:              app.cfg.Telemetry.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			app.logger.Info("metrics endpoint listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		// Scheduled pruning of expired evaluation results.
		pruner := retention.NewPruner(app.store, app.cfg.Retention, app.logger)
		scheduler := retention.NewScheduler(pruner, app.logger)
		if err := scheduler.Start(gctx); err != nil {
			return err
		}

		// Configuration hot reload.
		watcher := config.NewWatcher(cfgFile, 0, app.logger)
		g.Go(func() error {
			return watcher.Watch(gctx, app.reload)
		})

		// Evaluation loop.
		g.Go(func() error {
			return app.runEvaluationLoop(gctx, servePollInterval)
		})

		app.logger.Info("sentinel service started")
		err = g.Wait()
		app.logger.Info("sentinel service stopped")
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// runEvaluationLoop polls for unevaluated claims and evaluates them in
// batches until ctx is cancelled. Per-claim failures are logged and do
// not stop the loop.
func (a *application) runEvaluationLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		a.mu.RLock()
		orch := a.orch
		batchSize := a.cfg.Evaluation.BatchConcurrency * 4
		a.mu.RUnlock()

		ids, err := a.store.PendingClaimIDs(ctx, batchSize)
		if err != nil {
			a.logger.Error("pending claim lookup failed", "error", err)
			continue
		}
		if len(ids) == 0 {
			continue
		}

		items, err := orch.EvaluateBatch(ctx, ids)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			a.logger.Error("batch evaluation failed", "error", err)
			continue
		}
		for _, item := range items {
			if item.Err != nil {
				a.logger.Error("claim evaluation failed",
					"claim_id", item.ClaimID,
					"error", item.Err,
				)
			}
		}
	}
}

func init() {
	serveCmd.Flags().DurationVar(&servePollInterval, "poll-interval", 10*time.Second,
		"how often to poll for unevaluated claims")
	rootCmd.AddCommand(serveCmd)
}
