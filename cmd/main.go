package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoplit/config"
	grpcHandler "shoplit/internal/delivery/grpc"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const (
	versionTimeFormat = "20060102150405"
	shutdownTimeout   = 15 * time.Second
)

func main() {
	bootLogger := logrus.New()
	bootLogger.SetOutput(os.Stdout)

	rootCmd := &cobra.Command{
		Use:          "shoplit",
		Short:        "shoplit e-commerce backend",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		serveCommand(bootLogger),
		relayCommand(bootLogger),
		migrateCommand(bootLogger),
		createMigrationCommand(bootLogger),
	)

	if err := rootCmd.Execute(); err != nil {
		bootLogger.Errorf("Command failed: %v", err)
		os.Exit(1)
	}
}

func loadConfig(bootLogger *logrus.Logger) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(bootLogger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.NewLogger(), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func serveCommand(bootLogger *logrus.Logger) *cobra.Command {
	var withWorkers bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API, the gRPC health service and the notification workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(bootLogger)
			if err != nil {
				return err
			}
			logger.Info("Starting shoplit...")

			ctx, stop := signalContext()
			defer stop()

			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.close()

			router, err := buildRouter(cfg, store, logger)
			if err != nil {
				return err
			}
			var workers *pipeline
			if withWorkers {
				if workers, err = buildPipeline(cfg, store, logger); err != nil {
					return err
				}
				defer workers.close()
			}

			httpServer := &http.Server{
				Addr:              cfg.HTTPPort,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			reporter := grpcHandler.NewHealthReporter(store.pinger, 10*time.Second, logger)
			grpcServer := grpcHandler.NewServer(reporter, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Infof("HTTP server listening on %s", cfg.HTTPPort)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				return serveGRPC(cfg.GrpcPort, grpcServer, logger)
			})
			g.Go(func() error {
				return reporter.Run(gctx)
			})
			if workers != nil {
				g.Go(func() error { return workers.relay.Run(gctx) })
				g.Go(func() error { return workers.dispatcher.Run(gctx) })
			}
			g.Go(func() error {
				<-gctx.Done()
				logger.Warn("Shutdown signal received...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("HTTP server shutdown failed: %v", err)
				}
				grpcServer.GracefulStop()
				logger.Info("Servers stopped.")
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info("shoplit shut down gracefully.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withWorkers, "with-workers", true, "run the outbox relay and notification workers in this process")
	return cmd
}

func serveGRPC(addr string, server *grpc.Server, logger *logrus.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", addr, err)
	}
	logger.Infof("gRPC server listening on %s", addr)
	if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

func relayCommand(bootLogger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "run only the outbox relay and the notification workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(bootLogger)
			if err != nil {
				return err
			}
			if cfg.StorageDriver == config.StorageMemory {
				return errors.New("the relay command needs a shared store, set STORAGE_DRIVER=postgres")
			}

			ctx, stop := signalContext()
			defer stop()

			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.close()

			workers, err := buildPipeline(cfg, store, logger)
			if err != nil {
				return err
			}
			defer workers.close()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return workers.relay.Run(gctx) })
			g.Go(func() error { return workers.dispatcher.Run(gctx) })
			return g.Wait()
		},
	}
}

func createMigrationCommand(bootLogger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-create [name]",
		Short: "create empty up/down sql migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(bootLogger)
			if err != nil {
				return err
			}
			version := time.Now().Format(versionTimeFormat)
			up := fmt.Sprintf("%s/%s_%s.up.sql", cfg.MigrationsDir, version, args[0])
			down := fmt.Sprintf("%s/%s_%s.down.sql", cfg.MigrationsDir, version, args[0])

			if err := os.WriteFile(up, []byte{}, 0644); err != nil {
				return err
			}
			if err := os.WriteFile(down, []byte{}, 0644); err != nil {
				return err
			}
			bootLogger.Infof("Created SQL up script: %s", up)
			bootLogger.Infof("Created SQL down script: %s", down)
			return nil
		},
	}
}

func migrateCommand(bootLogger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-up",
		Short: "migrate all the way up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(bootLogger)
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.StoragePostgres {
				return errors.New("migrations only apply to the postgres storage driver")
			}

			m, err := migrate.New(fmt.Sprintf("file://%s", cfg.MigrationsDir), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to init migrations: %w", err)
			}
			defer m.Close()

			err = m.Up()
			if errors.Is(err, migrate.ErrNoChange) {
				bootLogger.Info("No change in migration")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to migrate up: %w", err)
			}
			bootLogger.Info("Migrated up")
			return nil
		},
	}
}
