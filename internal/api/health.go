package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusConnected     = "connected"
	statusNotConfigured = "not configured"
)

type externalAPIs struct {
	AlphaVantage string `json:"alphaVantage"`
	CoinGecko    string `json:"coinGecko"`
}

type healthRes struct {
	Status       string       `json:"status"`
	Timestamp    string       `json:"timestamp"`
	Database     string       `json:"database,omitempty"`
	ExternalAPIs externalAPIs `json:"externalApis"`
	Version      string       `json:"version,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Live handles GET /healthz.
func (h *Handler) Live(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ready handles GET /api/health. Only a failing database makes the
// service unhealthy; upstream checks are informational.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()

	var dbErr error
	res := healthRes{Database: statusNotConfigured}
	g, gctx := errgroup.WithContext(ctx)
	if h.database != nil {
		g.Go(func() error {
			dbErr = h.database.Ping(gctx)
			return nil
		})
	}
	g.Go(func() error {
		res.ExternalAPIs.AlphaVantage = checkUpstream(gctx, h.alphaVantage)
		return nil
	})
	g.Go(func() error {
		res.ExternalAPIs.CoinGecko = checkUpstream(gctx, h.coinGecko)
		return nil
	})
	_ = g.Wait()

	res.Timestamp = h.now().UTC().Format(time.RFC3339)
	if dbErr != nil {
		h.logger.ErrorContext(ctx, "health check failed", "error", dbErr)
		c.JSON(http.StatusServiceUnavailable, healthRes{
			Status:       statusUnhealthy,
			Timestamp:    res.Timestamp,
			ExternalAPIs: res.ExternalAPIs,
			Error:        "database unreachable",
		})
		return
	}
	if h.database != nil {
		res.Database = statusConnected
	}
	res.Status = statusHealthy
	res.Version = Version
	c.JSON(http.StatusOK, res)
}

func checkUpstream(ctx context.Context, p Pinger) string {
	if p == nil {
		return statusNotConfigured
	}
	if err := p.Ping(ctx); err != nil {
		return statusUnhealthy
	}
	return statusHealthy
}
