// Package main provides the consultation bot server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/buildinfo"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/config"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/llm"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/session"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/webhook"
)

type routeDeps struct {
	cfg      *config.Config
	handler  *webhook.Handler
	client   llm.Client
	sessions session.Store
	registry *prometheus.Registry
}

// setupRoutes configures all HTTP routes.
func setupRoutes(router *gin.Engine, deps routeDeps) {
	// Liveness probe. Never checks dependencies, only that the process
	// serves requests.
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe with dependency state. The bot stays ready with the
	// completion service off; it degrades to template replies.
	readyHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"version":     buildinfo.Version,
			"llm_enabled": deps.client.Enabled(),
			"sessions":    deps.sessions.Len(),
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// LINE webhook callback endpoint.
	router.POST("/callback", deps.handler.Handle)

	// Prometheus metrics, behind basic auth when a password is configured.
	metricsHandler := gin.WrapH(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))
	if deps.cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			deps.cfg.MetricsUsername: deps.cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
