package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dasmlab/translateapi/pkg/config"
	"github.com/dasmlab/translateapi/pkg/server"
	"github.com/dasmlab/translateapi/pkg/service"
	"github.com/dasmlab/translateapi/pkg/translate"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "translateapi",
		Short: "HTTP translation API",
		Long: `Serves POST /translate, forwarding text to a machine translation engine.

Supported engines: google (default, no credentials), googlecloud,
libretranslate, mymemory.

Every flag can also be set through a TRANSLATEAPI_* environment variable
(e.g. TRANSLATEAPI_PORT) or a .env file in the working directory.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cobra.CheckErr(config.BindFlags(v, cmd.Flags()))

	cobra.OnInitialize(func() {
		// A missing .env is normal outside development.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		}
	})

	return cmd
}

func run(cfg config.Config) error {
	logger := cfg.NewLogger()

	logger.WithFields(logrus.Fields{
		"addr":             cfg.Addr(),
		"engine":           cfg.Engine,
		"engine_url":       cfg.EngineURL,
		"provider_timeout": cfg.ProviderTimeout.String(),
		"grpc_port":        cfg.GRPCPort,
		"log_level":        logger.GetLevel().String(),
	}).Info("Starting translateapi server")

	engineType, err := translate.ParseEngineType(cfg.Engine)
	if err != nil {
		logger.WithError(err).Error("Failed to parse translation engine type")
		return err
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()

	translator, err := translate.NewTranslator(initCtx, translate.Config{
		Engine:      engineType,
		BaseURL:     cfg.EngineURL,
		APIKey:      cfg.APIKey,
		Credentials: cfg.Credentials,
		ProjectID:   cfg.ProjectID,
		Email:       cfg.Email,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to create translator")
		return err
	}
	if closer, ok := translator.(io.Closer); ok {
		defer closer.Close()
	}

	logger.Info("Checking translator health...")
	if err := translator.CheckHealth(initCtx); err != nil {
		logger.WithError(err).Warn("Translator health check failed, but continuing anyway")
		logger.Warn("Server will start, but translation requests may fail until translator is ready")
	} else {
		logger.Info("Translator health check passed")
	}

	svc := service.NewTranslationService(translator, cfg.ProviderTimeout, logger)
	httpServer := server.NewHTTPServer(svc, logger, server.Options{
		Addr:         cfg.Addr(),
		Engine:       string(engineType),
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	errChan := make(chan error, 2)
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	probeCtx, probeCancel := context.WithCancel(context.Background())
	defer probeCancel()
	grpcHealth := startGRPCHealth(probeCtx, cfg, translator, logger, errChan)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case serveErr = <-errChan:
		logger.WithError(serveErr).Error("Server error")
	case sig := <-sigChan:
		logger.WithFields(logrus.Fields{
			"signal": sig.String(),
		}).Info("Received signal, shutting down gracefully...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	probeCancel()
	if grpcHealth != nil {
		grpcHealth.Stop(ctx)
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("HTTP shutdown did not complete cleanly")
	} else {
		logger.Info("HTTP server stopped gracefully")
	}

	return serveErr
}

// startGRPCHealth starts the gRPC health listener when a port is configured.
// Failures, including a failed listen, are reported on errChan so the caller
// still shuts the HTTP server down. It returns nil when nothing was started.
func startGRPCHealth(ctx context.Context, cfg config.Config, checker server.HealthChecker, logger *logrus.Logger, errChan chan<- error) *server.GRPCHealthServer {
	if cfg.GRPCPort <= 0 {
		return nil
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.GRPCPort))
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"port": cfg.GRPCPort,
		}).Error("Failed to listen on gRPC port")
		errChan <- fmt.Errorf("grpc health server: %w", err)
		return nil
	}

	grpcHealth := server.NewGRPCHealthServer(checker, cfg.HealthInterval, logger)
	go grpcHealth.Run(ctx)
	go func() {
		if err := grpcHealth.Serve(lis); err != nil {
			errChan <- fmt.Errorf("grpc health server: %w", err)
		}
	}()
	logger.WithFields(logrus.Fields{
		"addr":            lis.Addr().String(),
		"health_interval": cfg.HealthInterval.String(),
	}).Info("Started gRPC health server")
	return grpcHealth
}
