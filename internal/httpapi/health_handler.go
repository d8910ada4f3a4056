package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger 依赖检查（service.AlertService 实现）
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler /healthz
type HealthHandler struct {
	pinger Pinger
	logger *zap.Logger
}

func NewHealthHandler(pinger Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{pinger: pinger, logger: logger}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, Fail(err.Error()))
			return
		}
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
}
