package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"go.uber.org/zap"
)

// Sender 提醒发送通道
// 返回 nil 表示已成功交付给下游；失败时返回 *SendError
type Sender interface {
	Send(ctx context.Context, owner *models.OwnerContact, appliance *models.Appliance) error
}

// SenderFunc 函数适配器
type SenderFunc func(ctx context.Context, owner *models.OwnerContact, appliance *models.Appliance) error

func (f SenderFunc) Send(ctx context.Context, owner *models.OwnerContact, appliance *models.Appliance) error {
	return f(ctx, owner, appliance)
}

// SendError 发送失败
type SendError struct {
	Channel   string
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s notification to %s failed: %v", e.Channel, e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func sendError(channel, recipient string, err error) error {
	return &SendError{Channel: channel, Recipient: recipient, Err: err}
}

// Message 提醒内容
type Message struct {
	To      string
	Subject string
	Body    string
}

// BuildMessage 生成维护提醒邮件
func BuildMessage(owner *models.OwnerContact, appliance *models.Appliance) Message {
	var b strings.Builder
	b.WriteString("Hello ")
	b.WriteString(owner.DisplayName())
	b.WriteString(",\n\n")
	b.WriteString("This is a reminder that your appliance requires attention:\n\n")
	b.WriteString("Appliance: ")
	b.WriteString(appliance.Name)
	b.WriteString("\n")

	if appliance.Description != nil && *appliance.Description != "" {
		b.WriteString("Description: ")
		b.WriteString(*appliance.Description)
		b.WriteString("\n")
	}

	b.WriteString("\nPlease schedule the necessary maintenance or updates.\n\n")
	b.WriteString("Best regards,\n")
	b.WriteString("Appliance Logbook System")

	return Message{
		To:      owner.Email,
		Subject: "Maintenance Alert: " + appliance.Name,
		Body:    b.String(),
	}
}

// Multi 并发发送到所有通道
// 至少一个通道成功即视为已送达（失败的通道只记录日志）；全部失败时返回合并后的错误
type Multi struct {
	senders []Sender
	logger  *zap.Logger
}

// NewMulti 组合多个通道（忽略 nil）
func NewMulti(logger *zap.Logger, senders ...Sender) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Multi{logger: logger}
	for _, s := range senders {
		if s != nil {
			m.senders = append(m.senders, s)
		}
	}
	return m
}

// Len 通道数量
func (m *Multi) Len() int {
	return len(m.senders)
}

func (m *Multi) Send(ctx context.Context, owner *models.OwnerContact, appliance *models.Appliance) error {
	if len(m.senders) == 0 {
		return sendError("multi", owner.Email, errors.New("no channel configured"))
	}

	errs := make([]error, len(m.senders))
	var wg sync.WaitGroup
	for i, s := range m.senders {
		wg.Add(1)
		go func(i int, s Sender) {
			defer wg.Done()
			errs[i] = s.Send(ctx, owner, appliance)
		}(i, s)
	}
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) == len(m.senders) {
		return errors.Join(failed...)
	}
	for _, err := range failed {
		m.logger.Warn("Notification channel failed, alert delivered on another channel",
			zap.String("appliance_id", appliance.ID),
			zap.String("owner_id", owner.OwnerID),
			zap.Error(err),
		)
	}
	return nil
}
