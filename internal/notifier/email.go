package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/config"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"go.uber.org/zap"
)

// sendMailFunc 与 smtp.SendMail 同签名，测试中替换
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender SMTP 邮件通道
type EmailSender struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
	now      func() time.Time
	logger   *zap.Logger
}

// NewEmailSender 创建邮件发送器
func NewEmailSender(cfg *config.SMTPConfig, logger *zap.Logger) *EmailSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &EmailSender{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
		now:      time.Now,
		logger:   logger,
	}
}

// Send 发送维护提醒邮件
// net/smtp 不支持 context，超时后放弃等待（后台连接由 SMTP 服务器超时关闭）
func (s *EmailSender) Send(ctx context.Context, owner *models.OwnerContact, appliance *models.Appliance) error {
	if owner == nil || strings.TrimSpace(owner.Email) == "" {
		return sendError("email", "", fmt.Errorf("recipient email is empty"))
	}

	msg := BuildMessage(owner, appliance)
	raw := s.render(msg)

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.addr, s.auth, s.from, []string{msg.To}, raw)
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("Maintenance alert email timed out",
			zap.String("to", msg.To),
			zap.String("appliance_id", appliance.ID),
		)
		return sendError("email", msg.To, ctx.Err())
	case err := <-done:
		if err != nil {
			s.logger.Error("Failed to send maintenance alert email",
				zap.String("to", msg.To),
				zap.String("appliance_id", appliance.ID),
				zap.Error(err),
			)
			return sendError("email", msg.To, err)
		}
	}

	s.logger.Info("Sent maintenance alert email",
		zap.String("to", msg.To),
		zap.String("appliance_id", appliance.ID),
		zap.String("appliance_name", appliance.Name),
	)
	return nil
}

// render 生成 RFC 5322 纯文本邮件
func (s *EmailSender) render(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}
