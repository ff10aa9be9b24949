// Package main provides the consultation bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/buildinfo"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/config"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/dedup"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/latency"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/llm"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/logger"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/metrics"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/orchestrator"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/sentry"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/session"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(cfg.LogLevel, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log.WithField("version", buildinfo.Version).Infof("Starting Asaoka consultation bot server")

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warnf("Failed to initialize Sentry, error tracking disabled")
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		log.WithError(err).Errorf("Failed to load counselor profile")
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)

	dedupTable := dedup.NewTable(cfg.DedupTTL, cfg.InflightGrace)
	dedupTable.StartSweeper(config.DedupSweepInterval)

	sessions := session.NewMemoryStore()
	estimator := latency.New()
	client := llm.NewOpenAIClient(cfg, log, m)
	if client.Enabled() {
		log.WithField("model", cfg.OpenAIModel).Infof("Completion service enabled")
	} else {
		log.Infof("Completion service disabled, using template replies")
	}

	handler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		BotConfig:     &cfg.Bot,
		Metrics:       m,
		Logger:        log,
	})
	if err != nil {
		log.WithError(err).Errorf("Failed to create webhook handler")
		os.Exit(1)
	}

	orch := orchestrator.New(orchestrator.Deps{
		Sessions:  sessions,
		Dedup:     dedupTable,
		Pushes:    dedup.NewPushCache(cfg.PushTTL),
		Estimator: estimator,
		LLM:       client,
		Responder: handler.Responder(),
		System:    profile.SystemPrompt(),
		Logger:    log,
		Metrics:   m,
	})
	handler.SetProcessor(orch)

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(sentryMiddleware())

	setupRoutes(router, routeDeps{
		cfg:      cfg,
		handler:  handler,
		client:   client,
		sessions: sessions,
		registry: registry,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.WebhookHTTPRead,
		WriteTimeout: config.WebhookHTTPWrite,
		IdleTimeout:  config.WebhookHTTPIdle,
	}

	jobsCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	if cfg.SessionTTL > 0 {
		go sweepSessions(jobsCtx, sessions, cfg.SessionTTL, m, log)
	}

	go func() {
		log.WithField("port", cfg.Port).Infof("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Errorf("Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("Shutting down server...")
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := handler.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warnf("Timed out waiting for webhook processing")
	}
	orch.Wait()
	dedupTable.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Errorf("Server forced to shutdown")
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	log.Infof("Server stopped")
}

// sweepSessions periodically drops sessions idle past the configured TTL.
func sweepSessions(ctx context.Context, store session.Store, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := store.Sweep(ttl)
			m.ActiveSessions.Set(float64(store.Len()))
			if removed > 0 {
				log.WithField("removed", removed).Infof("Idle sessions swept")
			}
		}
	}
}
