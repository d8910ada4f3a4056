package engine

import (
	"context"
	"fmt"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"go.uber.org/zap"
)

// Snooze 延后提醒至 today + days
func (e *Engine) Snooze(ctx context.Context, ownerID, applianceID string, days int) (*models.Appliance, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSnoozeDays, days)
	}
	until := e.clock.Today().AddDays(days)
	return e.transition(ctx, ownerID, applianceID, models.Snoozed(until), true)
}

// Cancel 取消提醒
func (e *Engine) Cancel(ctx context.Context, ownerID, applianceID string) (*models.Appliance, error) {
	return e.transition(ctx, ownerID, applianceID, models.Cancelled(), false)
}

// Reactivate 恢复提醒
func (e *Engine) Reactivate(ctx context.Context, ownerID, applianceID string) (*models.Appliance, error) {
	return e.transition(ctx, ownerID, applianceID, models.Active(), true)
}

// transition 状态已一致时不写库
// rearm 为 true 时清除一次性提醒的已发出标记，使其在下次巡检中重新生效
func (e *Engine) transition(ctx context.Context, ownerID, applianceID string, next models.AlertState, rearm bool) (*models.Appliance, error) {
	a, err := e.store.FindByOwnerAndID(ctx, ownerID, applianceID)
	if err != nil {
		return nil, err
	}

	if a.Alert.Equal(next) && (!rearm || a.FiredFor == nil) {
		return a, nil
	}

	prev := a.Alert
	a.Alert = next
	if rearm {
		a.FiredFor = nil
	}
	saved, err := e.store.Save(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to save alert state: %w", err)
	}

	e.logger.Info("Alert state changed",
		zap.String("appliance_id", applianceID),
		zap.String("owner_id", ownerID),
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
	)
	return saved, nil
}
