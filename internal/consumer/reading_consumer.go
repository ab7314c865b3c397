// Package consumer 从 MQTT 接入真实传感器读数（可选功能，默认关闭）。
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"incident-board/internal/models"

	"go.uber.org/zap"
)

// ReadingSink 接收接入读数的下游（由 hub 实现，保持单写者序）
type ReadingSink interface {
	IngestReading(incidentID string, r models.Reading)
}

// Subscriber MQTT 订阅端抽象（单元测试中用 fake 替换真实客户端）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	Unsubscribe(topics ...string) error
}

// ReadingConsumer 订阅 incident/{incident_id}/reading 并把读数注入 hub
type ReadingConsumer struct {
	subscriber Subscriber
	sink       ReadingSink
	topic      string
	qos        byte
	logger     *zap.Logger
}

// DefaultTopic 订阅主题（+ 为 incident id 通配）
const DefaultTopic = "incident/+/reading"

func NewReadingConsumer(subscriber Subscriber, sink ReadingSink, topic string, qos byte, logger *zap.Logger) *ReadingConsumer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &ReadingConsumer{
		subscriber: subscriber,
		sink:       sink,
		topic:      topic,
		qos:        qos,
		logger:     logger,
	}
}

// Start 启动消费者，阻塞到上下文取消
func (c *ReadingConsumer) Start(ctx context.Context) error {
	if err := c.subscriber.Subscribe(c.topic, c.qos, c.HandleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to reading topic: %w", err)
	}

	c.logger.Info("Reading consumer started", zap.String("topic", c.topic))

	<-ctx.Done()
	return nil
}

// Stop 停止消费者
func (c *ReadingConsumer) Stop() error {
	if err := c.subscriber.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
		return err
	}

	c.logger.Info("Reading consumer stopped")
	return nil
}

// readingPayload MQTT 载荷：timestamp 缺省时取接收时刻
type readingPayload struct {
	Timestamp   string   `json:"timestamp"`
	Temperature *float64 `json:"temperature"`
	Pressure    *float64 `json:"pressure"`
}

// HandleMessage 处理一条 MQTT 消息
func (c *ReadingConsumer) HandleMessage(topic string, payload []byte) error {
	// 主题格式: incident/{incident_id}/reading
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "incident" || parts[2] != "reading" {
		return fmt.Errorf("invalid topic format: %s", topic)
	}
	incidentID := parts[1]
	if incidentID == "" {
		return fmt.Errorf("missing incident id in topic: %s", topic)
	}

	var p readingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to unmarshal reading payload: %w", err)
	}
	if p.Temperature == nil || p.Pressure == nil {
		return fmt.Errorf("reading payload missing temperature or pressure")
	}

	ts := p.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	} else if _, err := time.Parse(time.RFC3339, ts); err != nil {
		return fmt.Errorf("invalid reading timestamp %q: %w", ts, err)
	}

	c.sink.IngestReading(incidentID, models.Reading{
		Timestamp:   ts,
		Temperature: *p.Temperature,
		Pressure:    *p.Pressure,
	})

	c.logger.Debug("Ingested external reading",
		zap.String("incident_id", incidentID),
	)
	return nil
}
