package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config incident-board 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}

	// Dashboard 实时推送相关配置
	Dashboard struct {
		TickIntervalMs int // 读数推进周期（毫秒），下限 250
		MaxReadings    int // 单 incident 读数历史上限
		SeedIncidents  int // 启动时播种的演示 incident 数
	}

	// DBEnabled 为 true 时从 PostgreSQL 加载 catalog，失败回退内置种子
	DBEnabled bool
	Database  DatabaseConfig

	// RedisEnabled 为 true 时向 Redis Streams 发布 incident 事件
	RedisEnabled bool
	Redis        struct {
		Addr     string
		Password string
		DB       int
		Stream   string
	}

	// MQTTEnabled 为 true 时订阅外部传感器读数
	MQTTEnabled bool
	MQTT        struct {
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string
		QoS      byte
	}

	Log struct {
		Level  string
		Format string
	}
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// 配置默认值（与前端约定保持一致）
const (
	DefaultTickIntervalMs = 2000
	MinTickIntervalMs     = 250
	DefaultMaxReadings    = 24
	DefaultSeedIncidents  = 5
)

// Load 从环境变量加载配置
func Load() *Config {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Dashboard.TickIntervalMs = parseInt(getEnv("TICK_INTERVAL_MS", ""), DefaultTickIntervalMs)
	if cfg.Dashboard.TickIntervalMs < MinTickIntervalMs {
		cfg.Dashboard.TickIntervalMs = MinTickIntervalMs
	}
	cfg.Dashboard.MaxReadings = parseInt(getEnv("MAX_READINGS", ""), DefaultMaxReadings)
	cfg.Dashboard.SeedIncidents = parseInt(getEnv("SEED_INCIDENTS", ""), DefaultSeedIncidents)

	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "incidentboard")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Redis.Stream = getEnv("REDIS_STREAM", "incident:events:stream")

	cfg.MQTTEnabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "incident-board")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "incident/+/reading")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
