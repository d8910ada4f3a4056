package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/config"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookPayload 推送给第三方通知服务的请求体
type WebhookPayload struct {
	Event         string       `json:"event"`
	OwnerID       string       `json:"owner_id"`
	Recipient     string       `json:"recipient"`
	ApplianceID   string       `json:"appliance_id"`
	ApplianceName string       `json:"appliance_name"`
	AlertDate     *models.Date `json:"alert_date"`
	Subject       string       `json:"subject"`
	Body          string       `json:"body"`
}

// WebhookSender HTTP Webhook 通道
type WebhookSender struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookSender 创建 Webhook 发送器
func NewWebhookSender(cfg *config.WebhookConfig, logger *zap.Logger) *WebhookSender {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &WebhookSender{
		httpClient: client,
		url:        cfg.URL,
		logger:     logger,
	}
}

// Send 推送维护提醒
func (s *WebhookSender) Send(ctx context.Context, owner *models.OwnerContact, appliance *models.Appliance) error {
	msg := BuildMessage(owner, appliance)
	payload := WebhookPayload{
		Event:         "maintenance_alert",
		OwnerID:       owner.OwnerID,
		Recipient:     msg.To,
		ApplianceID:   appliance.ID,
		ApplianceName: appliance.Name,
		AlertDate:     appliance.AlertDate,
		Subject:       msg.Subject,
		Body:          msg.Body,
	}

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(s.url)
	if err != nil {
		s.logger.Error("Webhook call failed",
			zap.String("appliance_id", appliance.ID),
			zap.Error(err),
		)
		return sendError("webhook", msg.To, fmt.Errorf("failed to call webhook: %w", err))
	}

	if resp.IsError() {
		s.logger.Error("Webhook returned error",
			zap.String("appliance_id", appliance.ID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return sendError("webhook", msg.To, fmt.Errorf("webhook returned status %d", resp.StatusCode()))
	}

	s.logger.Debug("Webhook delivered",
		zap.String("appliance_id", appliance.ID),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}
