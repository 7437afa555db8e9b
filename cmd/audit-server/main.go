package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"araudit/internal/config"
	"araudit/internal/logger"
	"araudit/internal/pipeline"
	"araudit/internal/server"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel})

	store := server.NewStore(cfg.DatasetTTL())
	app := server.NewApp(server.Deps{
		Config:  cfg,
		Service: pipeline.NewAuditService(cfg, log),
		Store:   store,
		Log:     log,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go store.RunJanitor(ctx, cfg.StoreSweepInterval(), func(removed, kept int) {
		if removed > 0 {
			log.Debug().Int("removed", removed).Int("kept", kept).Msg("expired datasets swept")
		}
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.AppEnv).Msg("audit server listening")
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		must(err)
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		must(app.ShutdownWithTimeout(10 * time.Second))
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
