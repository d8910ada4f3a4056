package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/UNO-CSCI4830/project4-logbook/internal/config"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Publisher MQTT 发布接口（便于测试替换）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTClient paho 客户端封装
type MQTTClient struct {
	client mqtt.Client
}

// NewMQTTClient 连接 MQTT Broker
func NewMQTTClient(cfg *config.MQTTConfig) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTClient{client: client}, nil
}

// Publish 发布消息
func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	return nil
}

// Disconnect 断开连接
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250) // 250ms等待时间
}

// mqttAlert App 推送消息体
type mqttAlert struct {
	ApplianceID   string       `json:"appliance_id"`
	ApplianceName string       `json:"appliance_name"`
	AlertDate     *models.Date `json:"alert_date"`
	Title         string       `json:"title"`
	Message       string       `json:"message"`
}

// MQTTSender 按 owner 发布到 <prefix><owner_id>
type MQTTSender struct {
	publisher   Publisher
	topicPrefix string
	qos         byte
	logger      *zap.Logger
}

// NewMQTTSender 创建 MQTT 推送通道
func NewMQTTSender(publisher Publisher, cfg *config.MQTTConfig, logger *zap.Logger) *MQTTSender {
	return &MQTTSender{
		publisher:   publisher,
		topicPrefix: cfg.TopicPrefix,
		qos:         cfg.QoS,
		logger:      logger,
	}
}

// Topic owner 的推送主题
func (s *MQTTSender) Topic(ownerID string) string {
	return s.topicPrefix + ownerID
}

func (s *MQTTSender) Send(ctx context.Context, owner *models.OwnerContact, appliance *models.Appliance) error {
	if err := ctx.Err(); err != nil {
		return sendError("mqtt", owner.OwnerID, err)
	}

	msg := BuildMessage(owner, appliance)
	payload, err := json.Marshal(mqttAlert{
		ApplianceID:   appliance.ID,
		ApplianceName: appliance.Name,
		AlertDate:     appliance.AlertDate,
		Title:         msg.Subject,
		Message:       msg.Body,
	})
	if err != nil {
		return sendError("mqtt", owner.OwnerID, fmt.Errorf("failed to marshal alert: %w", err))
	}

	topic := s.Topic(owner.OwnerID)
	if err := s.publisher.Publish(topic, s.qos, false, payload); err != nil {
		s.logger.Error("Failed to publish alert",
			zap.String("topic", topic),
			zap.String("appliance_id", appliance.ID),
			zap.Error(err),
		)
		return sendError("mqtt", owner.OwnerID, err)
	}
	return nil
}
