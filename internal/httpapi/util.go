package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/UNO-CSCI4830/project4-logbook/internal/engine"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
	"github.com/UNO-CSCI4830/project4-logbook/internal/service"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// statusFor 错误 -> HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, engine.ErrInvalidSnoozeDays),
		errors.Is(err, models.ErrInvalidAlertState):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSweepInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError 5xx 只返回通用信息，详细错误写日志
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
		writeJSON(w, status, Fail(op+" failed"))
		return
	}
	writeJSON(w, status, Fail(err.Error()))
}
