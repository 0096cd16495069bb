package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/relistr/mediakit/internal/stub"
	"github.com/relistr/mediakit/pkg/config"
	"github.com/relistr/mediakit/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "mediaserver"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	// The stub serves as its own API target, so the base URL required by
	// client-side commands gets a harmless default here.
	if os.Getenv("MEDIAKIT_API_BASE_URL") == "" {
		os.Setenv("MEDIAKIT_API_BASE_URL", "http://localhost")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "mediaserver",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	srv := stub.NewServer(stub.NewStore(), logg, stub.Options{
		Token:       cfg.API.Token,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	addr := ":" + cfg.Server.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting stub media server")

	server := &http.Server{
		Addr:    addr,
		Handler: srv.Router(),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "stub media server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error shutting down stub media server", err)
		}
		logg.Info(ctx, "stub media server stopped")
	}
}
