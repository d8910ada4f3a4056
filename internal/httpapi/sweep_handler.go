package httpapi

import (
	"context"
	"net/http"

	"github.com/UNO-CSCI4830/project4-logbook/internal/engine"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"go.uber.org/zap"
)

// SweepHandler 手动巡检
type SweepHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewSweepHandler(e *engine.Engine, logger *zap.Logger) *SweepHandler {
	return &SweepHandler{engine: e, logger: logger}
}

// RunSweep POST /api/v1/alerts/sweep[?as_of=YYYY-MM-DD]
func (h *SweepHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	var asOf *models.Date
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid as_of, expected YYYY-MM-DD"))
			return
		}
		asOf = &d
	}

	// 客户端断开不中断巡检
	report, err := h.engine.RunSweep(context.WithoutCancel(r.Context()), asOf)
	if err != nil {
		writeError(w, h.logger, "run sweep", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}
