package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/config"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const jobName = "alert-sweep"

// Sweeper 巡检入口（engine.Engine）
type Sweeper interface {
	RunSweep(ctx context.Context, asOf *models.Date) (*models.SweepReport, error)
}

// Scheduler 基于 gocron 的每日巡检调度
type Scheduler struct {
	scheduler gocron.Scheduler
	job       gocron.Job
	sweeper   Sweeper
	timeout   time.Duration
	logger    *zap.Logger
}

// New 创建调度器并注册巡检任务，上一轮未结束时跳过本轮
func New(cfg *config.AlertConfig, sweeper Sweeper, logger *zap.Logger) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid alert timezone: %w", err)
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	sch := &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		timeout:   cfg.LockTTL,
		logger:    logger,
	}

	opts := []gocron.JobOption{
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if cfg.RunOnStartup {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	job, err := s.NewJob(
		gocron.CronJob(cfg.Cron, false),
		gocron.NewTask(sch.executeSweep),
		opts...,
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create sweep job: %w", err)
	}
	sch.job = job

	return sch, nil
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.logger.Info("Starting alert scheduler", zap.String("job", jobName))
	s.scheduler.Start()
	if next, err := s.NextRun(); err == nil {
		s.logger.Info("Next alert sweep scheduled", zap.Time("next_run", next))
	}
}

// Stop 停止调度，等待运行中的任务结束
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping alert scheduler")
	return s.scheduler.Shutdown()
}

// NextRun 下次巡检时间
func (s *Scheduler) NextRun() (time.Time, error) {
	return s.job.NextRun()
}

// executeSweep gocron 回调
func (s *Scheduler) executeSweep() {
	// 巡检耗时不超过锁 TTL
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.sweeper.RunSweep(ctx, nil)
	if err != nil {
		s.logger.Error("Scheduled alert sweep failed", zap.Error(err))
		return
	}

	s.logger.Info("Scheduled alert sweep completed",
		zap.String("sweep_date", report.SweepDate.String()),
		zap.Int("candidates", report.Candidates),
		zap.Int("notified", report.Count(models.OutcomeNotified)),
	)
}

