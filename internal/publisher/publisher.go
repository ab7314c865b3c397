// Package publisher 将已提交的 incident 变更发布到外部事件流，
// 供下游（聚合、审计）消费。发布失败只记日志，不影响广播。
package publisher

import (
	"context"

	"incident-board/internal/models"
)

// incident 事件类型
const (
	EventIncidentAdded   = "incident.added"
	EventIncidentUpdated = "incident.updated"
)

// EventPublisher incident 事件发布接口
type EventPublisher interface {
	PublishIncidentEvent(ctx context.Context, eventType string, inc models.Incident) error
}

// NopPublisher 未启用 Redis 时的空实现
type NopPublisher struct{}

var _ EventPublisher = (*NopPublisher)(nil)

func (NopPublisher) PublishIncidentEvent(context.Context, string, models.Incident) error {
	return nil
}
