package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/solsticehq/core/internal/app"
	"github.com/solsticehq/core/internal/config"
	"github.com/solsticehq/core/internal/pkg/cluster"
	"github.com/solsticehq/core/internal/pkg/logging"
	"github.com/solsticehq/core/internal/pkg/proctitle"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := zapcore.InfoLevel
	if cfg.IsDev() {
		level = zapcore.DebugLevel
	}
	logger, err := logging.New(cfg.Env, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := cluster.Options{Enable: cfg.Cluster.Enable, Workers: cfg.Cluster.Workers}
	if err := cluster.Run(logger, opts, func() error {
		return serve(logger, cfg)
	}); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func serve(logger *zap.Logger, cfg *config.AppConfig) error {
	if cluster.IsWorker() {
		_ = proctitle.Set(fmt.Sprintf("solstice-w%d", cluster.WorkerID()))
		logger = logger.With(zap.Int("worker", cluster.WorkerID()))
	} else if cfg.Cluster.Enable {
		_ = proctitle.Set("solstice-master")
	}

	application, err := app.New(logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}

	ln, err := cluster.ListenTCP(application.Addr(), cfg.Cluster.Enable)
	if err != nil {
		return fmt.Errorf("listen %s: %w", application.Addr(), err)
	}

	srv := &http.Server{Handler: application.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", application.Addr()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	application.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
