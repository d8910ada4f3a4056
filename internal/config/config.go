package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置（推送提醒到 App）
type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	TopicPrefix string // 如 "logbook/alerts/"，实际主题为 prefix + owner_id
}

// SMTPConfig 邮件配置
type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// WebhookConfig 第三方通知 Webhook 配置
type WebhookConfig struct {
	Enabled bool
	URL     string
	Token   string
	Timeout time.Duration
	Retries int
}

// AlertConfig 提醒巡检配置
type AlertConfig struct {
	Cron          string        // 每日巡检 cron 表达式，默认 "0 9 * * *"
	Timezone      string        // cron 与“今天”使用的时区
	LeadDays      int           // 提前几天提醒，默认 1（巡检查询 alert_date < 今天+1）
	NotifyTimeout time.Duration // 单次发送超时
	LockTTL       time.Duration // 跨进程巡检锁 TTL
	LockKey       string
	RunOnStartup  bool
}

// Config 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled   bool
	// SeedDevUser 启动时写入开发用户 dev@test.com
	SeedDevUser bool
	Database    DatabaseConfig
	Redis       RedisConfig
	MQTT        MQTTConfig
	SMTP        SMTPConfig
	Webhook     WebhookConfig
	Alert       AlertConfig

	Events struct {
		Stream string // Redis Stream 名称，空串表示不发布
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置（先读取 .env，再读环境变量）
func Load() (*Config, error) {
	if envFile := getEnv("LOGBOOK_ENV_FILE", ".env"); envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBEnabled = parseBool(getEnv("DB_ENABLED", "true"), true)
	cfg.SeedDevUser = parseBool(getEnv("SEED_DEV_USER", "false"), false)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "logbook")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = parseBool(getEnv("REDIS_ENABLED", "false"), false)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.MQTT.Enabled = parseBool(getEnv("MQTT_ENABLED", "false"), false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "logbook-alert")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "logbook/alerts/")

	cfg.SMTP.Enabled = parseBool(getEnv("SMTP_ENABLED", "false"), false)
	cfg.SMTP.Host = getEnv("SMTP_HOST", "localhost")
	cfg.SMTP.Port = parseInt(getEnv("SMTP_PORT", "587"), 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.From = getEnv("SMTP_FROM", "no-reply@logbook.local")

	cfg.Webhook.Enabled = parseBool(getEnv("WEBHOOK_ENABLED", "false"), false)
	cfg.Webhook.URL = getEnv("WEBHOOK_URL", "")
	cfg.Webhook.Token = getEnv("WEBHOOK_TOKEN", "")
	cfg.Webhook.Timeout = parseDuration(getEnv("WEBHOOK_TIMEOUT", "10s"), 10*time.Second)
	cfg.Webhook.Retries = parseInt(getEnv("WEBHOOK_RETRIES", "2"), 2)

	cfg.Alert.Cron = getEnv("ALERT_CRON", "0 9 * * *")
	cfg.Alert.Timezone = getEnv("ALERT_TIMEZONE", "Local")
	cfg.Alert.LeadDays = parseInt(getEnv("ALERT_LEAD_DAYS", "1"), 1)
	cfg.Alert.NotifyTimeout = parseDuration(getEnv("ALERT_NOTIFY_TIMEOUT", "30s"), 30*time.Second)
	cfg.Alert.LockTTL = parseDuration(getEnv("ALERT_LOCK_TTL", "10m"), 10*time.Minute)
	cfg.Alert.LockKey = getEnv("ALERT_LOCK_KEY", "logbook:sweep:lock")
	cfg.Alert.RunOnStartup = parseBool(getEnv("ALERT_RUN_ON_STARTUP", "false"), false)

	cfg.Events.Stream = getEnv("EVENTS_STREAM", "logbook:alerts:events")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	var invalid []string
	if c.Alert.LeadDays < 0 {
		invalid = append(invalid, "ALERT_LEAD_DAYS")
	}
	if c.Alert.NotifyTimeout <= 0 {
		invalid = append(invalid, "ALERT_NOTIFY_TIMEOUT")
	}
	if _, err := c.Alert.Location(); err != nil {
		invalid = append(invalid, "ALERT_TIMEZONE")
	}
	if c.Webhook.Enabled && strings.TrimSpace(c.Webhook.URL) == "" {
		invalid = append(invalid, "WEBHOOK_URL")
	}
	if c.MQTT.QoS > 2 {
		invalid = append(invalid, "MQTT_QOS")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Location 解析时区
func (a *AlertConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || a.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(a.Timezone)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return d
}
