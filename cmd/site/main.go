package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/splax/synthteams/internal/app/storage"
	"github.com/splax/synthteams/internal/choice"
	httpx "github.com/splax/synthteams/internal/http"
	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/service/subscription"
	"github.com/splax/synthteams/internal/service/viewstate"
	"github.com/splax/synthteams/internal/ws"
	"github.com/splax/synthteams/pkg/config"
	"github.com/splax/synthteams/pkg/logger"
)

func main() {
	cfg := config.LoadSiteConfig()
	log := logger.New("site", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	migrator, err := store.Migrator(log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	if err := migrator.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := migrator.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	subs := subscription.New(store.Repo, log)

	sim := simulator.New(simulator.Config{
		HistoryLimit:     cfg.HistoryLimit,
		FirstStepDelay:   cfg.FirstStepDelay,
		StepDelay:        cfg.StepDelay,
		NextAgentDelay:   cfg.NextAgentDelay,
		ManualQueueLimit: cfg.ManualQueueLimit,
	}, simulator.DefaultCatalog(), choice.New(cfg.Seed))
	runner := simulator.NewRunner(sim, log, 0)

	hub := ws.NewHub(ws.WithEvictionHook(httpx.CountStreamEviction))
	defer hub.Close()
	runner.Subscribe(httpx.NewLogPublisher(hub, log))
	go runner.Run(ctx)

	var limiter httpx.RateLimiter = httpx.NewMemoryRateLimiter(0)
	views := viewstate.NewMemoryStore(cfg.SessionTTL)
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(ctx, addr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
		redisViews, err := viewstate.NewRedisStore(addr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL, log)
		if err != nil {
			log.Warn("redis view store unavailable", "error", err)
		} else {
			views.Close()
			views = redisViews
		}
	}

	router := httpx.NewRouter(log, runner, subs, views, hub, limiter, store.Ping, httpx.Options{
		SessionSecret:      cfg.SessionSecret,
		SessionCookie:      cfg.SessionCookie,
		SessionTTL:         cfg.SessionTTL,
		SecureCookies:      strings.HasPrefix(cfg.PublicURL, "https://"),
		StreamHeartbeat:    cfg.StreamHeartbeat,
		StreamWriteTimeout: cfg.StreamWriteTimeout,
		SubscribeLimit:     httpx.Limit{Hits: cfg.SubscribeRateLimit, Window: cfg.SubscribeWindow},
		TrainLimit:         httpx.Limit{Hits: cfg.TrainRateLimit, Window: cfg.TrainWindow},
		TrustProxy:         cfg.TrustProxy,
		LineCount:          cfg.LineCount,
	})
	defer router.Close()

	if cfg.Environment == "production" && cfg.SessionSecret == config.DefaultSessionSecret {
		log.Warn("session secret is the development default")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("site server starting", "addr", cfg.Addr, "public_url", cfg.PublicURL, "driver", cfg.DatabaseDriver)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("site server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
