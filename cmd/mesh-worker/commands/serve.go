package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"mesh-worker-go/internal/aggregator"
	"mesh-worker-go/internal/api"
	"mesh-worker-go/internal/config"
	"mesh-worker-go/internal/instance"
	"mesh-worker-go/internal/k8s"
	"mesh-worker-go/internal/translator"
	"mesh-worker-go/internal/worker"
)

// Serve returns the command running the HTTP control API.
//
// Configuration is read from the environment (see internal/config) and the
// optional WORKER_CONFIG_FILE.
func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.AppVersion == "dev" {
				cfg.AppVersion = version
			}

			logger, err := setupLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctrllog.SetLogger(zapr.NewLogger(logger))

	logger.Info("Starting mesh-worker",
		zap.String("version", cfg.AppVersion),
		zap.String("namespace", cfg.K8sNamespace),
		zap.Bool("in_cluster", cfg.K8sInCluster),
	)

	k8sClient, err := k8s.NewClient(cfg.K8sNamespace, cfg.K8sInCluster, cfg.K8sKubeConfigPath)
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	w, err := worker.New(k8sClient, instance.NewClient(cfg.InstanceQueryTimeout, logger), workerConfig(cfg), logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      api.NewRouter(w, cfg, logger),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("mesh-worker shutdown complete")
	return nil
}

func workerConfig(cfg *config.Config) worker.Config {
	return worker.Config{
		Namespace:     cfg.K8sNamespace,
		ClusterDomain: cfg.ClusterDomain,
		GRPCPort:      cfg.InstanceGRPCPort,
		Bounds:        cfg.ResourceBounds(),
		Defaults: translator.Defaults{
			ClusterName:        cfg.ClusterName,
			ServiceAccountName: cfg.ServiceAccountName,
			Resources:          cfg.DefaultResources,
		},
		Aggregate: aggregator.Options{
			QueryTimeout: cfg.InstanceQueryTimeout,
			Deadline:     cfg.AggregateDeadline,
		},
	}
}

func setupLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)

	if cfg.LogFormat == "console" {
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("app", cfg.AppName)), nil
}
