package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pricewatch/internal/api/constant"
	"pricewatch/internal/provider/alphavantage"
	"pricewatch/internal/provider/coingecko"
)

type searchQuery struct {
	Query string `form:"query" binding:"required"`
}

// SearchStocks handles GET /api/search/stock?query=.
func (h *Handler) SearchStocks(c *gin.Context) {
	if h.stocks == nil {
		_ = c.Error(constant.ErrSearchUnavailable)
		return
	}
	query, ok := bindSearch(c)
	if !ok {
		return
	}

	matches, err := h.stocks.SearchSymbols(c.Request.Context(), query)
	if err != nil {
		_ = c.Error(h.searchError(c.Request.Context(), "stock", err))
		return
	}
	c.JSON(http.StatusOK, matches)
}

// SearchCrypto handles GET /api/search/crypto?query=.
func (h *Handler) SearchCrypto(c *gin.Context) {
	if h.cryptos == nil {
		_ = c.Error(constant.ErrSearchUnavailable)
		return
	}
	query, ok := bindSearch(c)
	if !ok {
		return
	}

	coins, err := h.cryptos.SearchCoins(c.Request.Context(), query)
	if err != nil {
		_ = c.Error(h.searchError(c.Request.Context(), "crypto", err))
		return
	}
	c.JSON(http.StatusOK, coins)
}

func bindSearch(c *gin.Context) (string, bool) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return "", false
	}
	query := strings.TrimSpace(q.Query)
	if query == "" {
		_ = c.Error(constant.ErrMissingParams)
		return "", false
	}
	return query, true
}

func (h *Handler) searchError(ctx context.Context, kind string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	h.logger.WarnContext(ctx, "search failed", "kind", kind, "error", err)
	if errors.Is(err, alphavantage.ErrRateLimited) || errors.Is(err, coingecko.ErrRateLimited) {
		return constant.ErrUpstreamRateLimited
	}
	return constant.ErrUpstream
}
