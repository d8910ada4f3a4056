package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/cache"
	"github.com/UNO-CSCI4830/project4-logbook/internal/metrics"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
	"github.com/UNO-CSCI4830/project4-logbook/internal/recurrence"

	"go.uber.org/zap"
)

// RunSweep 执行一次巡检
// asOf 为 nil 时取 today + LeadDays；巡检日 = asOf - LeadDays（用于判断延后是否到期）
// 单个家电失败不影响其他家电，只有加载候选集失败或无法取得锁才返回错误
func (e *Engine) RunSweep(ctx context.Context, asOf *models.Date) (*models.SweepReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. 跨进程锁
	if e.locker != nil {
		release, err := e.locker.Acquire(ctx)
		if err != nil {
			if errors.Is(err, cache.ErrLockHeld) {
				e.metrics.IncSweepRun(metrics.RunInProgress)
				e.logger.Warn("Sweep skipped, another process holds the lock")
				return nil, fmt.Errorf("%w: %v", ErrSweepInProgress, err)
			}
			e.metrics.IncSweepRun(metrics.RunFailed)
			return nil, fmt.Errorf("failed to acquire sweep lock: %w", err)
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				e.logger.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	// 2. 确定日期
	target := e.DefaultAsOf()
	if asOf != nil && !asOf.IsZero() {
		target = *asOf
	}
	sweepDate := target.AddDays(-e.leadDays)

	report := models.NewSweepReport(sweepDate, target, e.clock.Now())

	// 3. 候选集
	candidates, err := e.store.FindDueBefore(ctx, target)
	if err != nil {
		e.metrics.IncSweepRun(metrics.RunFailed)
		e.logger.Error("Failed to load due appliances",
			zap.String("as_of", target.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to load due appliances: %w", err)
	}
	report.Candidates = len(candidates)

	e.logger.Info("Alert sweep started",
		zap.String("sweep_date", sweepDate.String()),
		zap.String("as_of", target.String()),
		zap.Int("candidates", len(candidates)),
	)

	// 4. 逐个处理
	// 单个家电的处理不受调用方取消影响（发送成功后必须落库，否则下次会重复提醒）；
	// 调用方取消后不再开始新的家电，剩余候选留给下次巡检
	work := context.WithoutCancel(ctx)
	for i, a := range candidates {
		if ctx.Err() != nil {
			report.Interrupted = true
			e.logger.Warn("Alert sweep interrupted, remaining appliances left for the next sweep",
				zap.Int("processed", i),
				zap.Int("remaining", len(candidates)-i),
				zap.Error(ctx.Err()),
			)
			break
		}
		entry := e.process(work, sweepDate, a)
		report.Record(entry)
		e.metrics.IncApplianceOutcome(entry.Outcome)
	}

	report.FinishedAt = e.clock.Now()
	e.metrics.IncSweepRun(metrics.RunCompleted)
	e.metrics.ObserveSweepDuration(report.Duration())
	e.metrics.SetLastSweep(report.FinishedAt)

	if e.events != nil {
		if err := e.events.PublishSweep(work, report); err != nil {
			e.logger.Warn("Failed to publish sweep events", zap.Error(err))
		}
	}

	e.logger.Info("Alert sweep finished",
		zap.String("sweep_date", sweepDate.String()),
		zap.Int("notified", report.Count(models.OutcomeNotified)),
		zap.Int("skipped_cancelled", report.Count(models.OutcomeSkippedCancelled)),
		zap.Int("skipped_snoozed", report.Count(models.OutcomeSkippedSnoozed)),
		zap.Int("orphaned", report.Count(models.OutcomeOrphaned)),
		zap.Int("notify_failed", report.Count(models.OutcomeNotifyFailed)),
		zap.Int("failed", report.Count(models.OutcomeFailed)),
		zap.Duration("duration", report.Duration()),
	)

	return report, nil
}

// process 处理单个到期家电，顺序固定：取消 -> 延后 -> 所有者 -> 发送 -> 循环
func (e *Engine) process(ctx context.Context, sweepDate models.Date, a *models.Appliance) models.SweepEntry {
	entry := models.SweepEntry{
		ApplianceID:   a.ID,
		OwnerID:       a.OwnerID,
		ApplianceName: a.Name,
	}
	log := e.logger.With(
		zap.String("appliance_id", a.ID),
		zap.String("owner_id", a.OwnerID),
		zap.Stringer("alert_date", a.AlertDate),
	)

	// 1. 已取消：不发送、不修改
	if a.Alert.IsCancelled() {
		entry.Outcome = models.OutcomeSkippedCancelled
		log.Debug("Skipping cancelled alert")
		return entry
	}

	// 2. 延后中
	if a.Alert.IsSnoozed() {
		if until, ok := a.Alert.SnoozeUntil(); ok && sweepDate.Before(until) {
			entry.Outcome = models.OutcomeSkippedSnoozed
			log.Debug("Skipping snoozed alert", zap.String("snooze_until", until.String()))
			return entry
		}

		// 延后到期：立即恢复为 ACTIVE 并持久化，本次继续处理
		a.Alert = models.Active()
		saved, err := e.store.Save(ctx, a)
		if err != nil {
			entry.Outcome = models.OutcomeFailed
			entry.Error = fmt.Sprintf("failed to reactivate expired snooze: %v", err)
			log.Error("Failed to reactivate expired snooze", zap.Error(err))
			return entry
		}
		a = saved
		entry.Reactivated = true
		log.Info("Expired snooze reactivated")
	}

	// 3. 所有者
	owner, err := e.users.FindByID(ctx, a.OwnerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			entry.Outcome = models.OutcomeOrphaned
			entry.Error = models.ErrOrphanedAppliance.Error()
			log.Warn("Due appliance has no owner")
			return entry
		}
		entry.Outcome = models.OutcomeFailed
		entry.Error = fmt.Sprintf("failed to resolve owner: %v", err)
		log.Error("Failed to resolve owner", zap.Error(err))
		return entry
	}

	// 4. 发送（失败不阻止后续的循环计算）
	sendCtx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	start := time.Now()
	sendErr := e.sender.Send(sendCtx, owner, a)
	cancel()
	e.metrics.ObserveNotifyDuration(time.Since(start), sendErr == nil)

	if sendErr != nil {
		entry.Outcome = models.OutcomeNotifyFailed
		entry.Error = sendErr.Error()
		log.Warn("Maintenance alert delivery failed", zap.Error(sendErr))
	} else {
		entry.Outcome = models.OutcomeNotified
		log.Info("Maintenance alert sent", zap.String("to", owner.Email))
	}

	// 5. 循环：有下次日期则改期；否则标记一次性提醒已发出
	if next, ok := recurrence.NextForAppliance(a); ok {
		a.SetAlertDate(&next)
		entry.NextAlertDate = models.DatePtr(next)
	} else if a.AlertDate != nil {
		a.FiredFor = models.DatePtr(*a.AlertDate)
	}

	if _, err := e.store.Save(ctx, a); err != nil {
		entry.Outcome = models.OutcomeFailed
		entry.NextAlertDate = nil
		if sendErr != nil {
			entry.Error = fmt.Sprintf("%s; failed to save schedule: %v", sendErr.Error(), err)
		} else {
			entry.Error = fmt.Sprintf("failed to save schedule: %v", err)
		}
		log.Error("Failed to save appliance after notification", zap.Error(err))
		return entry
	}

	if entry.NextAlertDate != nil {
		log.Info("Alert rescheduled", zap.String("next_alert_date", entry.NextAlertDate.String()))
	}
	return entry
}
