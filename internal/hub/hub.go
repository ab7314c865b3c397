// Package hub 管理 websocket 连接的注册、广播与周期 tick。
// 所有状态变更（入站消息、tick、外部读数接入）都在 Run 的单一
// goroutine 里串行处理，store 之上不存在并发写者。
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"incident-board/internal/models"
	"incident-board/internal/publisher"
	"incident-board/internal/store"

	"go.uber.org/zap"
)

// MinIntervalMs tick 周期下限（毫秒）
const MinIntervalMs = 250

type inboundFrame struct {
	client *Client
	data   []byte
}

type ingestedReading struct {
	incidentID string
	reading    models.Reading
}

// Hub 广播引擎
type Hub struct {
	logger    *zap.Logger
	store     *store.IncidentStore
	publisher publisher.EventPublisher
	catalog   models.Catalog

	intervalMs int

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	ingest     chan ingestedReading
}

func New(st *store.IncidentStore, catalog models.Catalog, pub publisher.EventPublisher, intervalMs int, logger *zap.Logger) *Hub {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	if intervalMs < MinIntervalMs {
		intervalMs = MinIntervalMs
	}
	return &Hub{
		logger:     logger,
		store:      st,
		publisher:  pub,
		catalog:    catalog.Normalize(),
		intervalMs: intervalMs,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame, 64),
		ingest:     make(chan ingestedReading, 64),
	}
}

// IngestReading 外部读数入口（consumer.ReadingSink 实现），
// 通过 channel 交给 Run goroutine，保持单写者。
func (h *Hub) IngestReading(incidentID string, r models.Reading) {
	h.ingest <- ingestedReading{incidentID: incidentID, reading: r}
}

// Run 主循环：串行处理注册/注销、入站帧、tick 与读数接入。
// 阻塞到上下文取消。
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(h.intervalMs) * time.Millisecond)
	defer func() { ticker.Stop() }()

	h.logger.Info("Hub started", zap.Int("interval_ms", h.intervalMs))

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Info("Hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = true
			c.enqueue(marshal(models.NewInitMessage(h.store.Snapshot(), h.catalog), h.logger))
			h.logger.Info("Client connected",
				zap.String("conn_id", c.id),
				zap.Int("clients", len(h.clients)),
			)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info("Client disconnected",
					zap.String("conn_id", c.id),
					zap.Int("clients", len(h.clients)),
				)
			}

		case frame := <-h.inbound:
			h.handleFrame(ctx, frame, &ticker)

		case ir := <-h.ingest:
			inc, ok := h.store.AppendReading(ir.incidentID, ir.reading)
			if !ok {
				h.logger.Warn("Dropping reading for unknown incident",
					zap.String("incident_id", ir.incidentID),
				)
				continue
			}
			h.broadcast(marshal(models.NewIncidentUpdated(inc), h.logger))

		case <-ticker.C:
			for _, inc := range h.store.AdvanceReadings(time.Now()) {
				h.broadcast(marshal(models.NewIncidentUpdated(inc), h.logger))
			}
		}
	}
}

// handleFrame 处理一帧客户端消息
func (h *Hub) handleFrame(ctx context.Context, frame inboundFrame, ticker **time.Ticker) {
	msg, err := models.DecodeClientMessage(frame.data)
	if err != nil {
		if errors.Is(err, models.ErrInvalidMessage) {
			// JSON 合法但形状不符：应答 error 帧，连接保持
			frame.client.enqueue(marshal(models.NewErrorMessage(models.CodeInvalidMessage, err.Error()), h.logger))
		} else {
			// 非 JSON 帧：静默丢弃
			h.logger.Debug("Dropped non-JSON frame", zap.String("conn_id", frame.client.id))
		}
		return
	}

	switch msg.Type {
	case models.TypeAddIncident:
		stored, err := h.store.Add(msg.Incident)
		if err != nil {
			frame.client.enqueue(marshal(models.NewErrorMessage(models.CodeInvalidIncidentID, err.Error()), h.logger))
			return
		}
		h.broadcast(marshal(models.NewIncidentAdded(stored), h.logger))
		h.publishEvent(ctx, publisher.EventIncidentAdded, stored)

	case models.TypeUpdateIncident:
		stored := h.store.Upsert(msg.Incident)
		h.broadcast(marshal(models.NewIncidentUpdated(stored), h.logger))
		h.publishEvent(ctx, publisher.EventIncidentUpdated, stored)

	case models.TypeSetReadingInterval:
		intervalMs := msg.IntervalMs
		if intervalMs < MinIntervalMs {
			intervalMs = MinIntervalMs
		}
		h.intervalMs = intervalMs

		// 先停旧 ticker 再换新，避免 interval 切换后双重 tick
		(*ticker).Stop()
		*ticker = time.NewTicker(time.Duration(intervalMs) * time.Millisecond)

		h.logger.Info("Reading interval changed",
			zap.Int("interval_ms", intervalMs),
			zap.String("requested_by", frame.client.id),
		)
		// 广播给所有客户端，包括请求方
		h.broadcast(marshal(models.NewIntervalUpdated(intervalMs), h.logger))
	}
}

// broadcast 向所有连接发送同一帧；发送缓冲打满的慢客户端直接剔除，
// 不拖累其它客户端。
func (h *Hub) broadcast(data []byte) {
	if data == nil {
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn("Dropping slow client", zap.String("conn_id", c.id))
		}
	}
}

// publishEvent 事件发布尽力而为，失败不影响广播
func (h *Hub) publishEvent(ctx context.Context, eventType string, inc models.Incident) {
	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	go func() {
		defer cancel()
		if err := h.publisher.PublishIncidentEvent(pubCtx, eventType, inc); err != nil {
			h.logger.Warn("Failed to publish incident event",
				zap.String("event_type", eventType),
				zap.String("incident_id", inc.IncidentID),
				zap.Error(err),
			)
		}
	}()
}

func marshal(v interface{}, logger *zap.Logger) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal message", zap.Error(err))
		return nil
	}
	return data
}
