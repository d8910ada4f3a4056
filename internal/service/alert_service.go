package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/cache"
	"github.com/UNO-CSCI4830/project4-logbook/internal/config"
	"github.com/UNO-CSCI4830/project4-logbook/internal/database"
	"github.com/UNO-CSCI4830/project4-logbook/internal/engine"
	"github.com/UNO-CSCI4830/project4-logbook/internal/events"
	"github.com/UNO-CSCI4830/project4-logbook/internal/metrics"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
	"github.com/UNO-CSCI4830/project4-logbook/internal/notifier"
	"github.com/UNO-CSCI4830/project4-logbook/internal/repository"
	"github.com/UNO-CSCI4830/project4-logbook/internal/scheduler"

	"github.com/go-redis/redis/v8"
	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DevUser 开发环境默认用户
var DevUser = models.OwnerContact{
	OwnerID: "dev-user",
	Name:    "Dev User",
	Email:   "dev@test.com",
}

// AlertService 提醒服务（整合各层）
type AlertService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *notifier.MQTTClient
	registry    *prom.Registry
	logger      *zap.Logger

	// 各层组件
	applianceRepo    repository.ApplianceRepository
	userRepo         repository.UserRepository
	engine           *engine.Engine
	applianceService *ApplianceService
	scheduler        *scheduler.Scheduler
}

// NewAlertService 创建提醒服务
func NewAlertService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AlertService, error) {
	s := &AlertService{
		config:   cfg,
		registry: prom.NewRegistry(),
		logger:   logger,
	}

	// 1. 存储层
	if cfg.DBEnabled {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		s.db = db
		if err := database.Migrate(ctx, db); err != nil {
			s.Stop()
			return nil, err
		}
		s.applianceRepo = repository.NewPostgresApplianceRepository(db, logger)
		s.userRepo = repository.NewPostgresUserRepository(db, logger)
	} else {
		logger.Warn("DB disabled, using in-memory appliance store")
		s.applianceRepo = repository.NewMemoryApplianceRepo()
		s.userRepo = repository.NewMemoryUserRepo()
	}

	if cfg.SeedDevUser {
		dev := DevUser
		if err := s.userRepo.Upsert(ctx, &dev); err != nil {
			s.Stop()
			return nil, fmt.Errorf("failed to seed dev user: %w", err)
		}
		logger.Info("Dev user ready", zap.String("user_id", dev.OwnerID), zap.String("email", dev.Email))
	}

	// 2. Redis（巡检锁 + 事件流）
	var locker engine.Locker
	var publisher engine.EventPublisher
	if cfg.Redis.Enabled {
		s.redisClient = cache.NewRedisClient(&cfg.Redis)
		if err := cache.Ping(ctx, s.redisClient); err != nil {
			s.Stop()
			return nil, err
		}
		locker = cache.NewLock(s.redisClient, cfg.Alert.LockKey, cfg.Alert.LockTTL)
		if cfg.Events.Stream != "" {
			publisher = events.NewStreamPublisher(s.redisClient, cfg.Events.Stream, logger)
		}
	}

	// 3. 通知通道
	sender, err := s.buildSender()
	if err != nil {
		s.Stop()
		return nil, err
	}

	// 4. 引擎
	loc, err := cfg.Alert.Location()
	if err != nil {
		s.Stop()
		return nil, fmt.Errorf("invalid alert timezone: %w", err)
	}
	s.engine = engine.New(s.applianceRepo, s.userRepo, sender, logger, engine.Options{
		LeadDays:      cfg.Alert.LeadDays,
		NotifyTimeout: cfg.Alert.NotifyTimeout,
		Clock:         engine.SystemClock(loc),
		Locker:        locker,
		Events:        publisher,
		Metrics:       metrics.NewPrometheusRecorder(s.registry),
	})
	s.applianceService = NewApplianceService(s.applianceRepo, s.engine, logger)

	return s, nil
}

// buildSender 按配置组合通知通道；全部关闭时只记录日志
func (s *AlertService) buildSender() (notifier.Sender, error) {
	cfg := s.config
	var senders []notifier.Sender

	if cfg.SMTP.Enabled {
		senders = append(senders, notifier.NewEmailSender(&cfg.SMTP, s.logger))
	}
	if cfg.Webhook.Enabled {
		senders = append(senders, notifier.NewWebhookSender(&cfg.Webhook, s.logger))
	}
	if cfg.MQTT.Enabled {
		client, err := notifier.NewMQTTClient(&cfg.MQTT)
		if err != nil {
			return nil, err
		}
		s.mqttClient = client
		senders = append(senders, notifier.NewMQTTSender(client, &cfg.MQTT, s.logger))
	}

	switch len(senders) {
	case 0:
		s.logger.Warn("No notification channel enabled, alerts are only logged")
		return notifier.NewLogSender(s.logger), nil
	case 1:
		return senders[0], nil
	default:
		return notifier.NewMulti(s.logger, senders...), nil
	}
}

// Engine 提醒引擎
func (s *AlertService) Engine() *engine.Engine {
	return s.engine
}

// Appliances 家电服务
func (s *AlertService) Appliances() *ApplianceService {
	return s.applianceService
}

// Registry Prometheus 指标
func (s *AlertService) Registry() *prom.Registry {
	return s.registry
}

// Ping 健康检查
func (s *AlertService) Ping(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}
	}
	if s.redisClient != nil {
		if err := cache.Ping(ctx, s.redisClient); err != nil {
			return err
		}
	}
	return nil
}

// StartScheduler 启动每日巡检
func (s *AlertService) StartScheduler() error {
	sch, err := scheduler.New(&s.config.Alert, s.engine, s.logger)
	if err != nil {
		return err
	}
	s.scheduler = sch
	sch.Start()
	return nil
}

// Stop 停止服务
func (s *AlertService) Stop() {
	s.logger.Info("Stopping alert service")

	if s.scheduler != nil {
		if err := s.scheduler.Stop(); err != nil {
			s.logger.Error("Failed to stop scheduler", zap.Error(err))
		}
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	// 关闭 Redis 连接
	if err := cache.Close(s.redisClient); err != nil {
		s.logger.Error("Failed to close redis", zap.Error(err))
	}

	// 关闭数据库连接
	if err := database.Close(s.db); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}
}

// RunSweepOnce 手动触发一次巡检（CLI）
func (s *AlertService) RunSweepOnce(ctx context.Context, asOf *models.Date, timeout time.Duration) (*models.SweepReport, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.engine.RunSweep(ctx, asOf)
}
