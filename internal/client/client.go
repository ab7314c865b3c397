package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"incident-board/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 连接状态（UI 层消费）
const (
	StatusConnecting   = "connecting"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Options 客户端选项
type Options struct {
	// IntervalMs 期望的读数间隔；>0 时连接建立后立即发起协商
	IntervalMs int
	// AckWait 间隔确认等待时长（默认 1500ms）
	AckWait time.Duration
	// OnChange 快照变化回调（UI 层刷新入口），可为 nil
	OnChange func(Snapshot)
}

// Snapshot UI 层消费的完整派生状态
type Snapshot struct {
	Incidents         []models.Incident
	Catalog           models.Catalog
	ConnectionStatus  string
	ReadingIntervalMs int
	LastError         string
	Warnings          []Warning
}

// Client dashboard 观察端。本地列表只通过服务端事件演化，
// UI 层不得直接改写。
type Client struct {
	conn    *websocket.Conn
	logger  *zap.Logger
	ackWait time.Duration

	writeMu sync.Mutex // 串行化出站帧

	mu         sync.Mutex
	list       ListState
	negotiator *IntervalNegotiator
	status     string
	lastError  string
	warnings   []Warning
	ackTimer   *time.Timer
	onChange   func(Snapshot)
}

// Dial 建立连接。opts.IntervalMs > 0 时立即发送首个间隔请求。
func Dial(ctx context.Context, url string, opts Options, logger *zap.Logger) (*Client, error) {
	ackWait := opts.AckWait
	if ackWait <= 0 {
		ackWait = DefaultAckWait
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &Client{
		conn:       conn,
		logger:     logger,
		ackWait:    ackWait,
		list:       NewListState(),
		negotiator: NewIntervalNegotiator(opts.IntervalMs),
		status:     StatusConnected,
		onChange:   opts.OnChange,
	}

	if opts.IntervalMs > 0 {
		if err := c.SetReadingInterval(opts.IntervalMs); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return c, nil
}

// Run 读循环，阻塞到连接断开或上下文取消。
// 断开只上报状态变化，不做自动重连（重连即全新 init 流程）。
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.status = StatusDisconnected
			c.stopAckTimerLocked()
			c.mu.Unlock()
			c.notify()

			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("connection lost: %w", err)
		}
		c.handleFrame(data)
	}
}

// handleFrame 处理一帧服务端消息
func (c *Client) handleFrame(data []byte) {
	e, ok := DecodeEvent(data)
	if !ok {
		// 不可解析载荷：静默丢弃
		c.logger.Debug("Discarded unparsable frame")
		return
	}

	c.mu.Lock()
	switch e.Type {
	case models.TypeReadingIntervalUpdated:
		outcome := c.negotiator.HandleAck(e.IntervalMs)
		c.stopAckTimerLocked()
		if outcome == AckOverridden {
			if w := c.negotiator.Warning(); w != nil {
				c.warnings = append(c.warnings, *w)
			}
		}
		// AckAdopted：静默采纳，绝不因回声触发新的外发请求

	case models.TypeError:
		c.lastError = e.Code
		if e.Message != "" {
			c.lastError = e.Code + ": " + e.Message
		}

	default:
		next, warnings := Reduce(c.list, e)
		c.list = next
		c.warnings = append(c.warnings, warnings...)
	}
	c.mu.Unlock()
	c.notify()
}

// SendIncident 发送 addIncident
func (c *Client) SendIncident(inc models.Incident) error {
	return c.writeJSON(map[string]interface{}{
		"type":     models.TypeAddIncident,
		"incident": inc,
	})
}

// UpdateIncident 发送 updateIncident
func (c *Client) UpdateIncident(inc models.Incident) error {
	return c.writeJSON(map[string]interface{}{
		"type":     models.TypeUpdateIncident,
		"incident": inc,
	})
}

// SetReadingInterval 发起间隔协商：记录挂起请求并启动有界等待。
// 每次新请求重置等待定时器，同一时间只有一个。
func (c *Client) SetReadingInterval(intervalMs int) error {
	now := time.Now()
	c.negotiator.Request(intervalMs, now, c.ackWait)

	c.mu.Lock()
	c.stopAckTimerLocked()
	c.ackTimer = time.AfterFunc(c.ackWait, func() {
		if c.negotiator.HandleTimeout(time.Now()) {
			c.mu.Lock()
			if w := c.negotiator.Warning(); w != nil {
				c.warnings = append(c.warnings, *w)
			}
			c.mu.Unlock()
			c.notify()
		}
	})
	c.mu.Unlock()

	return c.writeJSON(map[string]interface{}{
		"type":       models.TypeSetReadingInterval,
		"intervalMs": intervalMs,
	})
}

// Snapshot 返回当前派生状态的副本
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	incidents := make([]models.Incident, 0, len(c.list.Incidents))
	for i := range c.list.Incidents {
		incidents = append(incidents, c.list.Incidents[i].Clone())
	}
	warnings := append([]Warning(nil), c.warnings...)

	return Snapshot{
		Incidents:         incidents,
		Catalog:           c.list.Catalog,
		ConnectionStatus:  c.status,
		ReadingIntervalMs: c.negotiator.Current(),
		LastError:         c.lastError,
		Warnings:          warnings,
	}
}

// Buckets 当前列表的过滤 + 分桶视图（new / active / completed）
func (s Snapshot) Buckets(escalationLevelID string, incidentTypeIDs []string) models.BucketedIncidents {
	return models.BucketIncidents(s.Incidents, escalationLevelID, incidentTypeIDs)
}

// ClearWarnings 清空已展示的告警
func (c *Client) ClearWarnings() {
	c.mu.Lock()
	c.warnings = nil
	c.mu.Unlock()
}

// Close 关闭连接
func (c *Client) Close() error {
	c.mu.Lock()
	c.stopAckTimerLocked()
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) stopAckTimerLocked() {
	if c.ackTimer != nil {
		c.ackTimer.Stop()
		c.ackTimer = nil
	}
}

func (c *Client) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal outbound frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (c *Client) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Snapshot())
}
