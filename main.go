package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradeledger/src/api"
	"tradeledger/src/config"
	"tradeledger/src/utils"
	"tradeledger/src/worker"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Println(err, "Error while loading config")
		return
	}
	logger := utils.NewLogger(utils.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File != "", cfg.Logging.File)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Error while running")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	var (
		httpServer *http.Server
		closeFn    func()
	)
	switch cfg.Service.Type {
	case config.API:
		server, err := api.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		httpServer, closeFn = api.NewHTTPServer(server), server.Close
	case config.WORKER:
		server, err := worker.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		httpServer, closeFn = worker.NewHTTPServer(server), server.Close
	default:
		return errors.New("unknown service type " + string(cfg.Service.Type))
	}
	defer closeFn()

	errC := make(chan error, 1)
	go func() {
		logger.WithField("type", cfg.Service.Type).WithField("port", cfg.Service.Port).Info("Starting server")

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errC
}
