package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aatumaykin/housekeeper/internal/cleanup"
	"github.com/aatumaykin/housekeeper/internal/constants"
	"github.com/aatumaykin/housekeeper/internal/logger"
	"github.com/aatumaykin/housekeeper/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	serveConfigPath string
	serveLogLevel   string
	serveRunNow     bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run targets on their cron schedules",
	Long: `Start the scheduler and run every enabled target on its schedule
until SIGINT or SIGTERM. Targets without a schedule are only run when
--run-now is given. When metrics are enabled, Prometheus metrics are
served on /metrics.`,
	RunE: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) error {
	configPath := serveConfigPath
	if configPath == "" {
		configPath = constants.DefaultConfigPath
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if serveLogLevel != "" {
		if _, ok := logger.ParseLevel(serveLogLevel); !ok {
			return fmt.Errorf("invalid --log-level: %s", serveLogLevel)
		}
		cfg.Logging.Level = serveLogLevel
	}

	log, err := newLogger(cfg.Logging, false)
	if err != nil {
		return err
	}

	log.Info(version.FormatStartupMessage(),
		logger.Field{Key: "config", Value: configPath},
		logger.Field{Key: "lock_dir", Value: cfg.Lock.Dir},
	)

	var metrics *cleanup.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = cleanup.NewMetrics(constants.MetricsNamespace, registry)
	}

	scheduler := cleanup.NewScheduler(cfg.Lock.Dir, log)
	scheduler.SetLockRetry(cfg.Lock.RetryAttempts, time.Duration(cfg.Lock.RetryBackoffSeconds)*time.Second)
	for _, t := range cfg.EnabledTargets() {
		job, err := buildJob(t, log, metrics)
		if err != nil {
			return err
		}
		if err := scheduler.Add(job); err != nil {
			return err
		}
		log.Info("target registered",
			logger.Field{Key: "target", Value: t.Name},
			logger.Field{Key: "path", Value: t.Path},
			logger.Field{Key: "mode", Value: t.Mode},
			logger.Field{Key: "schedule", Value: t.Schedule},
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.Metrics.Enabled {
		server = newMetricsServer(cfg.Metrics.Listen, registry, log)
		go func() {
			log.Info("metrics endpoint listening", logger.Field{Key: "listen", Value: cfg.Metrics.Listen})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	if serveRunNow {
		for _, name := range scheduler.Jobs() {
			if _, err := scheduler.Trigger(name); err != nil {
				log.Error("initial housekeeping failed", err, logger.Field{Key: "target", Value: name})
			}
		}
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})
	case err := <-serverErr:
		log.Error("metrics endpoint failed", err)
		runErr = err
	}

	log.Info("shutting down")
	scheduler.Stop()

	if server != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop metrics endpoint", err)
		}
	}

	log.Info("housekeeper stopped")
	return runErr
}

func newMetricsServer(listen string, registry *prometheus.Registry, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.StdLogger().Handler(), slog.LevelError),
	}
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file (default: ./housekeeper.toml)")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveRunNow, "run-now", false, "Run every target once before scheduling")
}
