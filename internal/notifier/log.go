package notifier

import (
	"context"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"go.uber.org/zap"
)

// LogSender 只记录日志（未配置 SMTP 时的本地开发通道）
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, owner *models.OwnerContact, appliance *models.Appliance) error {
	if err := ctx.Err(); err != nil {
		return sendError("log", owner.Email, err)
	}
	msg := BuildMessage(owner, appliance)
	s.logger.Info("Maintenance alert (log only)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("appliance_id", appliance.ID),
	)
	return nil
}
