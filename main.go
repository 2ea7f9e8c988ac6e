package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/propfair-web/internal/config"
	"github.com/yourorg/propfair-web/internal/logger"
	"github.com/yourorg/propfair-web/internal/mapview"
	"github.com/yourorg/propfair-web/internal/session"
	"github.com/yourorg/propfair-web/listings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, closeLogger, err := logger.New(logger.Config{
		AppName:       cfg.AppName,
		Level:         cfg.Log.Level,
		JSON:          cfg.Log.JSON,
		FluentEnabled: cfg.FluentBit.Enabled,
		FluentHost:    cfg.FluentBit.Host,
		FluentPort:    cfg.FluentBit.Port,
		FluentLevel:   cfg.FluentBit.Level,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() {
		if err := closeLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "close logger: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := listings.NewClient(listings.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		RetryMax:   cfg.API.RetryMax,
		RatePerSec: cfg.API.RatePerSec,
		Logger:     appLogger,
	})

	sessions := session.NewRegistry(session.Deps{
		Searcher:    client,
		DefaultCity: cfg.Search.DefaultCity,
		Initial:     mapview.InitialViewport,
		IdleTTL:     cfg.Search.SessionIdleTTL,
		Logger:      appLogger,
	})
	go sessions.Run(ctx)

	router := BuildRouter(RouterDeps{
		Logger:          appLogger,
		Listings:        client,
		Sessions:        sessions,
		DefaultCity:     cfg.Search.DefaultCity,
		MapStyleURL:     cfg.Search.MapStyleURL,
		RateLimitPerMin: cfg.HTTP.RateLimitPerMin,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("propfair-web listening", "addr", srv.Addr, "api_url", client.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", "error", err)
	}
}
