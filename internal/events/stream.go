package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 事件类型
const (
	TypeApplianceOutcome = "alert.outcome"
	TypeSweepCompleted   = "sweep.completed"
)

// StreamPublisher 将巡检结果发布到 Redis Streams
// stream 为空时不发布
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewStreamPublisher 创建发布器
func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: 10000,
		logger: logger,
	}
}

// PublishSweep 每个家电一条 alert.outcome，最后一条 sweep.completed
func (p *StreamPublisher) PublishSweep(ctx context.Context, report *models.SweepReport) error {
	if p == nil || p.client == nil || p.stream == "" || report == nil {
		return nil
	}

	for _, e := range report.Entries {
		values := map[string]interface{}{
			"type":           TypeApplianceOutcome,
			"sweep_date":     report.SweepDate.String(),
			"appliance_id":   e.ApplianceID,
			"owner_id":       e.OwnerID,
			"appliance_name": e.ApplianceName,
			"outcome":        string(e.Outcome),
			"reactivated":    e.Reactivated,
		}
		if e.NextAlertDate != nil {
			values["next_alert_date"] = e.NextAlertDate.String()
		}
		if e.Error != "" {
			values["error"] = e.Error
		}
		if _, err := p.publish(ctx, values); err != nil {
			return err
		}
	}

	counts, err := json.Marshal(report.Counts)
	if err != nil {
		return fmt.Errorf("failed to marshal sweep counts: %w", err)
	}
	id, err := p.publish(ctx, map[string]interface{}{
		"type":        TypeSweepCompleted,
		"sweep_date":  report.SweepDate.String(),
		"as_of":       report.AsOf.String(),
		"candidates":  report.Candidates,
		"counts":      counts,
		"duration_ms": report.Duration().Milliseconds(),
	})
	if err != nil {
		return err
	}

	p.logger.Debug("Published sweep events",
		zap.String("stream", p.stream),
		zap.String("last_id", id),
		zap.Int("entries", len(report.Entries)),
	)
	return nil
}

func (p *StreamPublisher) publish(ctx context.Context, values map[string]interface{}) (string, error) {
	streamValues := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		s, err := toStreamValue(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode field %s: %w", k, err)
		}
		streamValues[k] = s
	}
	streamValues["timestamp"] = strconv.FormatInt(time.Now().Unix(), 10)

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: streamValues,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return id, nil
}

// toStreamValue 将值转换为字符串
func toStreamValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
