package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/metrics"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
	"github.com/UNO-CSCI4830/project4-logbook/internal/notifier"

	"go.uber.org/zap"
)

var (
	// ErrSweepInProgress 其他进程正在巡检
	ErrSweepInProgress = errors.New("sweep already in progress")
	// ErrInvalidSnoozeDays 延后天数为负
	ErrInvalidSnoozeDays = errors.New("snooze days must be non-negative")
)

// Store 巡检所需的家电存储
type Store interface {
	FindDueBefore(ctx context.Context, asOf models.Date) ([]*models.Appliance, error)
	Save(ctx context.Context, appliance *models.Appliance) (*models.Appliance, error)
	FindByOwnerAndID(ctx context.Context, ownerID, applianceID string) (*models.Appliance, error)
}

// UserDirectory 所有者查询，找不到时返回 models.ErrNotFound
type UserDirectory interface {
	FindByID(ctx context.Context, ownerID string) (*models.OwnerContact, error)
}

// Locker 跨进程互斥（cache.Lock）
type Locker interface {
	Acquire(ctx context.Context) (func(context.Context) error, error)
}

// EventPublisher 巡检结果发布（events.StreamPublisher）
type EventPublisher interface {
	PublishSweep(ctx context.Context, report *models.SweepReport) error
}

// Options 可选依赖与参数
type Options struct {
	// LeadDays 提前提醒天数，asOf = today + LeadDays
	LeadDays int
	// NotifyTimeout 单次发送超时
	NotifyTimeout time.Duration
	Clock         Clock
	Locker        Locker
	Events        EventPublisher
	Metrics       metrics.Recorder
}

// Engine 提醒生命周期引擎
type Engine struct {
	store  Store
	users  UserDirectory
	sender notifier.Sender
	logger *zap.Logger

	leadDays      int
	notifyTimeout time.Duration
	clock         Clock
	locker        Locker
	events        EventPublisher
	metrics       metrics.Recorder

	// 同一进程内串行执行巡检
	mu sync.Mutex
}

// New 创建引擎
func New(store Store, users UserDirectory, sender notifier.Sender, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LeadDays < 0 {
		opts.LeadDays = 0
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock(time.UTC)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}

	return &Engine{
		store:         store,
		users:         users,
		sender:        sender,
		logger:        logger,
		leadDays:      opts.LeadDays,
		notifyTimeout: opts.NotifyTimeout,
		clock:         opts.Clock,
		locker:        opts.Locker,
		events:        opts.Events,
		metrics:       opts.Metrics,
	}
}

// Today 引擎时钟的当前日期
func (e *Engine) Today() models.Date {
	return e.clock.Today()
}

// DefaultAsOf 未指定时的 asOf（today + LeadDays）
func (e *Engine) DefaultAsOf() models.Date {
	return e.clock.Today().AddDays(e.leadDays)
}
