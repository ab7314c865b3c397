package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"incident-board/internal/models"

	"github.com/go-redis/redis/v8"
)

// DefaultStream incident 事件流名称
const DefaultStream = "incident:events:stream"

// RedisPublisher 通过 Redis Streams (XADD) 发布 incident 事件
type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream}
}

var _ EventPublisher = (*RedisPublisher)(nil)

// incidentEvent 标准化事件载荷（data 字段为 JSON 序列化的 incident）
type incidentEvent struct {
	EventType  string          `json:"event_type"`
	IncidentID string          `json:"incident_id"`
	Timestamp  int64           `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
}

func (p *RedisPublisher) PublishIncidentEvent(ctx context.Context, eventType string, inc models.Incident) error {
	data, err := json.Marshal(inc)
	if err != nil {
		return fmt.Errorf("failed to marshal incident: %w", err)
	}

	event := incidentEvent{
		EventType:  eventType,
		IncidentID: inc.IncidentID,
		Timestamp:  time.Now().Unix(),
		Data:       data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_type":  eventType,
			"incident_id": inc.IncidentID,
			"data":        string(payload),
		},
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	return nil
}
