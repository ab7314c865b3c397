package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg := Load()

	// 验证默认值
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 2000, cfg.Dashboard.TickIntervalMs)
	assert.Equal(t, 24, cfg.Dashboard.MaxReadings)
	assert.Equal(t, 5, cfg.Dashboard.SeedIncidents)

	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "incidentboard", cfg.Database.Database)

	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "incident:events:stream", cfg.Redis.Stream)

	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "incident/+/reading", cfg.MQTT.Topic)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9000")
	os.Setenv("TICK_INTERVAL_MS", "500")
	os.Setenv("SEED_INCIDENTS", "0")
	os.Setenv("REDIS_ENABLED", "true")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	// 验证环境变量覆盖
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 500, cfg.Dashboard.TickIntervalMs)
	assert.Equal(t, 0, cfg.Dashboard.SeedIncidents)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)

	// 清理环境变量
	os.Clearenv()
}

func TestLoad_TickIntervalFloor(t *testing.T) {
	os.Clearenv()
	os.Setenv("TICK_INTERVAL_MS", "50")

	cfg := Load()
	assert.Equal(t, MinTickIntervalMs, cfg.Dashboard.TickIntervalMs)

	os.Clearenv()
}

func TestGetDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db-host", Port: 5433, User: "u", Password: "p",
		Database: "incidents", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db-host port=5433 user=u password=p dbname=incidents sslmode=disable",
		c.GetDSN(),
	)
}

func TestGetEnv(t *testing.T) {
	// 测试默认值
	os.Clearenv()
	assert.Equal(t, "default-value", getEnv("TEST_KEY", "default-value"))

	// 测试环境变量存在
	os.Setenv("TEST_KEY", "env-value")
	assert.Equal(t, "env-value", getEnv("TEST_KEY", "default-value"))

	os.Unsetenv("TEST_KEY")
}
