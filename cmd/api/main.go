package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paygate/internal/cache"
	"paygate/internal/config"
	httpx "paygate/internal/http"
	"paygate/internal/provider"
	"paygate/internal/provider/globalcheckout"
	"paygate/internal/provider/netgateway"
	"paygate/internal/provider/regionaltoken"
	"paygate/internal/secrets"
	"paygate/internal/services/gatewayconfig"
	paysvc "paygate/internal/services/payment"
	"paygate/internal/store/postgres"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init DB
	pool := postgres.MustOpen(ctx, cfg.DB.DSN)
	defer pool.Close()
	repo := postgres.NewCredentialRepository(pool)

	// Cache with in-process fallback; sweeper evicts expired fallback
	// entries in the background.
	c := cache.New(cfg.Redis.Addr)
	defer c.Close()
	go cache.NewSweeper(c.Fallback(), time.Minute).Run(ctx)

	// Config resolution and CRUD
	codec := secrets.NewCodec()
	resolver := gatewayconfig.NewResolver(repo, codec, gatewayconfig.DefaultMemoTTL)

	// Provider registry
	registry := provider.NewRegistry()
	registry.Register(globalcheckout.New(cfg))
	registry.Register(regionaltoken.New(cfg))
	registry.Register(netgateway.New(cfg))

	configService := gatewayconfig.NewService(repo, codec, resolver, registry)
	orchestrator := paysvc.NewOrchestrator(resolver, registry, cfg.Providers.DemoFallback).WithStatusCache(c)

	// Router
	r := httpx.NewRouter(httpx.RouterDependencies{
		Config:        cfg,
		ConfigService: configService,
		Orchestrator:  orchestrator,
		Registry:      registry,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Msgf("PayGate API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}
