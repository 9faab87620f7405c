package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the backend and log the dashboard after every refresh",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		stages, err := progressStages(config)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var metrics prometheus.Registerer
		if config.Metrics.Addr != "" {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics = reg
			go serveMetrics(ctx, logger, config.Metrics.Addr, reg)
		}

		s := newStore(logger, config, newClient(logger, config), metrics)

		s.OnRefresh(func(kind store.Kind, snap store.Snapshot) {
			logDashboard(logger, kind, analytics.BuildDashboard(snap, time.Now(), stages))
		})

		logger.Info("starting the recruit-sync watcher",
			zap.String("version", version),
			zap.Duration("interval", s.Interval()),
		)

		if err := s.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		s.Stop()

		logger.Info("exiting", zap.String("reason", "signal received"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("interval", 0, "polling interval (default 15s)")
	watchCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")

	viper.BindPFlag("refresh.interval", watchCmd.Flags().Lookup("interval"))
	viper.BindPFlag("metrics.addr", watchCmd.Flags().Lookup("metrics-addr"))
}

func logDashboard(logger *zap.Logger, kind store.Kind, d analytics.Dashboard) {
	logger.Info("dashboard updated",
		zap.String("resource", string(kind)),
		zap.Int("projects", d.Counts[store.Projects]),
		zap.Int("candidates", d.Counts[store.Candidates]),
		zap.Int("resumes", d.Counts[store.Resumes]),
		zap.Int("interviews", d.Counts[store.Interviews]),
		zap.Float64("interview_completion_rate", d.Interviews.CompletionRate),
		zap.String("processing_efficiency", formatMetric(d.Efficiency, "%")),
		zap.String("interview_conversion", formatMetric(d.Conversion, "%")),
		zap.String("recruitment_cycle", formatMetric(d.Cycle, "天")),
	)
}

func serveMetrics(ctx context.Context, logger *zap.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
