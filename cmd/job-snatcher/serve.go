// cmd/job-snatcher/serve.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-snatcher/internal/common/camunda"
	"job-snatcher/internal/common/config"
	"job-snatcher/internal/scheduler"
	runbatch "job-snatcher/internal/workers/pipeline/run-batch"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the workflow worker and the health/metrics server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	orchestrator, err := a.buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	cfg := a.cfg

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(orchestrator, a.queue, cfg.Scheduler, a.log)
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	var (
		zeebe  *camunda.Client
		worker *camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		if err != nil {
			return err
		}
		timeout := config.GetDuration(cfg.Camunda.Timeout)
		handler := runbatch.NewHandler(runbatch.LoadConfig(timeout), orchestrator, a.log)
		worker = camunda.NewWorker(zeebe.GetClient(), runbatch.TaskType, cfg.Camunda.MaxJobsActive, timeout, handler, a.zap)
	}

	srv := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           newHealthMux(a.ready),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.zap.Info("health/metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.zap.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	a.zap.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if worker != nil {
		worker.Stop(shutdownCtx)
		_ = zeebe.Close()
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			a.zap.Warn("scheduler stop timed out", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.zap.Warn("health/metrics server shutdown failed", zap.Error(err))
	}

	a.zap.Info("job-snatcher stopped")
	return nil
}

// ready checks the stores every batch depends on.
func (a *app) ready(ctx context.Context) error {
	if err := a.pg.Ping(ctx); err != nil {
		return err
	}
	return a.redis.Ping(ctx)
}

func newHealthMux(ready func(ctx context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "error": err.Error()})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
