package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/UNO-CSCI4830/project4-logbook/internal/engine"
	"github.com/UNO-CSCI4830/project4-logbook/internal/export"
	"github.com/UNO-CSCI4830/project4-logbook/internal/service"

	"go.uber.org/zap"
)

const defaultUpcomingDays = 30

// ApplianceHandler 家电与提醒状态 Handler
type ApplianceHandler struct {
	appliances *service.ApplianceService
	alerts     *engine.Engine
	logger     *zap.Logger
}

// NewApplianceHandler 创建家电 Handler
func NewApplianceHandler(appliances *service.ApplianceService, alerts *engine.Engine, logger *zap.Logger) *ApplianceHandler {
	return &ApplianceHandler{
		appliances: appliances,
		alerts:     alerts,
		logger:     logger,
	}
}

// ServeHTTP 路由分发
// /api/{ownerId}/appliances
// /api/{ownerId}/appliances/export
// /api/{ownerId}/appliances/{id}
// /api/{ownerId}/appliances/{id}/{snooze|cancel|reactivate}
// /api/{ownerId}/alerts/upcoming
func (h *ApplianceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/"), "/"), "/")
	for _, p := range parts {
		if p == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	}
	if len(parts) < 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	ownerID := parts[0]

	switch {
	case parts[1] == "alerts" && len(parts) == 3 && parts[2] == "upcoming":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.UpcomingAlerts(w, r, ownerID)
	case parts[1] != "appliances":
		w.WriteHeader(http.StatusNotFound)
	case len(parts) == 2:
		switch r.Method {
		case http.MethodGet:
			h.ListAppliances(w, r, ownerID)
		case http.MethodPost:
			h.CreateAppliance(w, r, ownerID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(parts) == 3 && parts[2] == "export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportAppliances(w, r, ownerID)
	case len(parts) == 3:
		switch r.Method {
		case http.MethodGet:
			h.GetAppliance(w, r, ownerID, parts[2])
		case http.MethodPut:
			h.UpdateAppliance(w, r, ownerID, parts[2])
		case http.MethodDelete:
			h.DeleteAppliance(w, r, ownerID, parts[2])
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(parts) == 4:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch parts[3] {
		case "snooze":
			h.Snooze(w, r, ownerID, parts[2])
		case "cancel":
			h.Cancel(w, r, ownerID, parts[2])
		case "reactivate":
			h.Reactivate(w, r, ownerID, parts[2])
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListAppliances 查询家电列表
func (h *ApplianceHandler) ListAppliances(w http.ResponseWriter, r *http.Request, ownerID string) {
	items, err := h.appliances.ListAppliances(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.logger, "list appliances", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": len(items),
	}))
}

// CreateAppliance 新建家电
func (h *ApplianceHandler) CreateAppliance(w http.ResponseWriter, r *http.Request, ownerID string) {
	var in service.ApplianceInput
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	a, err := h.appliances.CreateAppliance(r.Context(), ownerID, in)
	if err != nil {
		writeError(w, h.logger, "create appliance", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(a))
}

// GetAppliance 查询单个家电
func (h *ApplianceHandler) GetAppliance(w http.ResponseWriter, r *http.Request, ownerID, applianceID string) {
	a, err := h.appliances.GetAppliance(r.Context(), ownerID, applianceID)
	if err != nil {
		writeError(w, h.logger, "get appliance", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// UpdateAppliance 修改家电
func (h *ApplianceHandler) UpdateAppliance(w http.ResponseWriter, r *http.Request, ownerID, applianceID string) {
	var in service.ApplianceInput
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	a, err := h.appliances.UpdateAppliance(r.Context(), ownerID, applianceID, in)
	if err != nil {
		writeError(w, h.logger, "update appliance", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// DeleteAppliance 删除家电
func (h *ApplianceHandler) DeleteAppliance(w http.ResponseWriter, r *http.Request, ownerID, applianceID string) {
	if err := h.appliances.DeleteAppliance(r.Context(), ownerID, applianceID); err != nil {
		writeError(w, h.logger, "delete appliance", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

// Snooze ?days=N
func (h *ApplianceHandler) Snooze(w http.ResponseWriter, r *http.Request, ownerID, applianceID string) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, Fail("days is required"))
		return
	}
	days := parseInt(raw, -1)

	a, err := h.alerts.Snooze(r.Context(), ownerID, applianceID, days)
	if err != nil {
		writeError(w, h.logger, "snooze alert", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// Cancel 取消提醒
func (h *ApplianceHandler) Cancel(w http.ResponseWriter, r *http.Request, ownerID, applianceID string) {
	a, err := h.alerts.Cancel(r.Context(), ownerID, applianceID)
	if err != nil {
		writeError(w, h.logger, "cancel alert", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// Reactivate 恢复提醒
func (h *ApplianceHandler) Reactivate(w http.ResponseWriter, r *http.Request, ownerID, applianceID string) {
	a, err := h.alerts.Reactivate(r.Context(), ownerID, applianceID)
	if err != nil {
		writeError(w, h.logger, "reactivate alert", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// UpcomingAlerts ?days=N（默认 30）
func (h *ApplianceHandler) UpcomingAlerts(w http.ResponseWriter, r *http.Request, ownerID string) {
	days := parseInt(r.URL.Query().Get("days"), defaultUpcomingDays)

	items, err := h.appliances.UpcomingAlerts(r.Context(), ownerID, days)
	if err != nil {
		writeError(w, h.logger, "list upcoming alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": len(items),
		"days":  days,
	}))
}

// ExportAppliances 导出 Excel
func (h *ApplianceHandler) ExportAppliances(w http.ResponseWriter, r *http.Request, ownerID string) {
	items, err := h.appliances.ListAppliances(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.logger, "export appliances", err)
		return
	}

	excelData, err := export.Appliances(items)
	if err != nil {
		h.logger.Error("Export appliances failed", zap.String("owner_id", ownerID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate excel"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=appliances-%s.xlsx", ownerID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(excelData)
}
