package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pricewatch/internal/api/middleware"
	"pricewatch/internal/metrics"
)

const maxBodyBytes = 1 << 20

type RouterConfig struct {
	RequestTimeout time.Duration
	TrustedProxies []string
	Logger         *slog.Logger
	// Metrics may be nil, in which case /metrics is not served.
	Metrics *metrics.Metrics
}

// NewRouter wires the handler into a gin engine.
func NewRouter(h *Handler, cfg RouterConfig) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(gin.Recovery(), middleware.Logger(logger, cfg.Metrics), middleware.CORS())

	r.GET("/healthz", h.Live)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api",
		middleware.Gzip(),
		middleware.LimitBody(maxBodyBytes),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Error(),
	)
	api.GET("/quotes", h.GetQuotes)
	api.GET("/search/stock", h.SearchStocks)
	api.GET("/search/crypto", h.SearchCrypto)
	api.POST("/alerts/check", h.CheckAlerts)
	api.GET("/health", h.Ready)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r, nil
}
