package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pricewatch/internal/aggregate"
	"pricewatch/internal/provider"
)

type quotesQuery struct {
	Symbols string `form:"symbols" binding:"required"`
	Type    string `form:"type" binding:"required"`
}

// GetQuotes handles GET /api/quotes?symbols=A,B&type=EQUITY|CRYPTO.
func (h *Handler) GetQuotes(c *gin.Context) {
	var q quotesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return
	}

	class, err := provider.ParseAssetClass(q.Type)
	if err != nil {
		_ = c.Error(&aggregate.ValidationError{Reason: err.Error()})
		return
	}

	ctx := c.Request.Context()
	quotes, err := h.quotes.GetQuotes(ctx, strings.Split(q.Symbols, ","), class, c.ClientIP())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		_ = c.Error(ctx.Err())
		return
	}

	c.JSON(http.StatusOK, quotes)
}
