package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pricewatch/internal/api/constant"
)

type checkAlertsRes struct {
	Message   string `json:"message"`
	RunID     string `json:"runId"`
	Triggered int    `json:"triggered"`
	Evaluated int    `json:"evaluated"`
	Skipped   int    `json:"skipped"`
}

// CheckAlerts handles POST /api/alerts/check, the cron entry point of
// the alert sweep.
func (h *Handler) CheckAlerts(c *gin.Context) {
	if h.sweeper == nil {
		_ = c.Error(constant.ErrAlertsUnavailable)
		return
	}
	if !h.authorized(c.Request) {
		_ = c.Error(constant.ErrUnauthorized)
		return
	}

	res, err := h.sweeper.RunSweep(c.Request.Context())
	if err != nil {
		_ = c.Error(fmt.Errorf("checking alerts: %w", err))
		return
	}

	c.JSON(http.StatusOK, checkAlertsRes{
		Message:   "Alerts checked successfully",
		RunID:     res.RunID,
		Triggered: res.Triggered,
		Evaluated: res.Evaluated,
		Skipped:   res.Skipped,
	})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	got := r.Header.Get("X-Cron-Secret")
	if got == "" {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			got = token
		}
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.cronSecret)) == 1
}
