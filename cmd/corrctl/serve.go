package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/corrlog/internal/auth"
	"github.com/alfredjeanlab/corrlog/internal/config"
	"github.com/alfredjeanlab/corrlog/internal/events"
	"github.com/alfredjeanlab/corrlog/internal/server"
	"github.com/alfredjeanlab/corrlog/internal/service"
	"github.com/alfredjeanlab/corrlog/internal/snapshot"
	"github.com/alfredjeanlab/corrlog/internal/store/sqldb"
)

const (
	healthInterval  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the admin gateway (HTTP API and gRPC health)",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create an HTTP client.
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dialect, err := sqldb.ParseDialect(cfg.DatabaseDriver)
		if err != nil {
			return err
		}

		store, err := sqldb.Open(dialect, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info("database ready", "driver", dialect)

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("change notifications enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = events.NoopPublisher{}
			logger.Info("change notifications disabled (CORRLOG_NATS_URL not set)")
		}

		if len(cfg.Tokens) == 0 {
			logger.Warn("no API tokens configured; every gateway request will be rejected")
		}

		hub := server.NewChangeHub()
		publisher = events.Fanout{publisher, hub}

		svc := service.New(store, auth.NewStaticAuthorizer(cfg.Admins...), events.NewNotifier(publisher), logger)

		if cfg.SeedDefaults {
			if _, err := svc.EnsureDefaults(cmd.Context()); err != nil {
				publisher.Close()
				store.Close()
				return fmt.Errorf("seed defaults: %w", err)
			}
		}

		gw := server.New(svc, store, logger).WithChangeHub(hub)

		grpcServer, healthServer := gw.NewGRPCServer()
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			store.Close()
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		healthCtx, stopHealth := context.WithCancel(context.Background())
		go gw.MonitorHealth(healthCtx, healthServer, healthInterval)

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           gw.NewHTTPHandler(cfg.Tokens),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startSnapshots(cfg, store, logger)

		logger.Info("corrlog server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		var errs *multierror.Error

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("snapshot scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		logger.Info("HTTP server stopped")

		stopHealth()
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		if err := publisher.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close publisher: %w", err))
		}
		if err := store.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close store: %w", err))
		}

		if err := errs.ErrorOrNil(); err != nil {
			logger.Error("shutdown finished with errors", "err", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil
	},
}

// startSnapshots starts the snapshot scheduler when an interval and at
// least one destination are configured.
func startSnapshots(cfg *config.Config, src snapshot.Source, logger *slog.Logger) *snapshot.Scheduler {
	if cfg.SnapshotInterval <= 0 {
		return nil
	}

	var dests []snapshot.Destination
	if cfg.SnapshotS3Bucket != "" {
		s3Dest, err := snapshot.NewS3Destination(
			context.Background(),
			cfg.SnapshotS3Bucket,
			cfg.SnapshotS3Key,
			cfg.SnapshotS3Region,
			cfg.SnapshotS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 snapshot destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("snapshot S3 destination enabled", "bucket", cfg.SnapshotS3Bucket, "key", cfg.SnapshotS3Key)
		}
	}
	if cfg.SnapshotGitRepo != "" {
		dests = append(dests, snapshot.NewGitDestination(cfg.SnapshotGitRepo, cfg.SnapshotGitFile, cfg.SnapshotGitBranch))
		logger.Info("snapshot git destination enabled", "repo", cfg.SnapshotGitRepo, "file", cfg.SnapshotGitFile)
	}
	if len(dests) == 0 {
		return nil
	}

	s := snapshot.NewScheduler(src, dests, cfg.SnapshotInterval, logger)
	s.Start()
	logger.Info("snapshot scheduler started", "interval", cfg.SnapshotInterval)
	return s
}
