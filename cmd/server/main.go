package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"highrise/internal/auth"
	"highrise/internal/config"
	"highrise/internal/logging"
	"highrise/internal/server"
	"highrise/internal/store"
	"highrise/internal/upload"
)

func main() {
	configPath := flag.String("config", os.Getenv("HIGHRISE_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// a missing .env is fine; the process environment still applies
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	authSvc := auth.NewService(st, cfg.Auth, logger.Named("auth"))
	if cfg.Storage.Seed {
		if err := store.Seed(ctx, st, authSvc.Hash); err != nil {
			return err
		}
		logger.Info("fixtures loaded", zap.String("driver", cfg.Storage.Driver))
	}

	sessions := auth.NewSessions(cfg.Server.SessionTTL, nil)
	go sessions.Run(ctx, time.Minute)

	uploads, err := upload.Open(cfg.Uploads)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Deps{
		Config:   cfg,
		Store:    st,
		Auth:     authSvc,
		Sessions: sessions,
		Uploads:  uploads,
		Log:      logger.Named("http"),
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("auth", cfg.Auth.Mode))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
