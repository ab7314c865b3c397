package client

import (
	"sync"
	"time"
)

// DefaultAckWait 间隔请求的确认等待时长
const DefaultAckWait = 1500 * time.Millisecond

// 间隔协商告警类别
const (
	WarnIntervalDiscrepancy  = "interval-discrepancy"
	WarnIntervalNotConfirmed = "interval-not-confirmed"
)

// AckOutcome 一次 readingIntervalUpdated 的处理结果
type AckOutcome int

const (
	// AckConfirmed 与挂起请求匹配：请求达成
	AckConfirmed AckOutcome = iota
	// AckOverridden 与挂起请求不匹配：服务端胜出，产生差异告警
	AckOverridden
	// AckAdopted 无挂起请求（他人改的）：静默采纳，绝不回发新请求
	AckAdopted
)

// PendingRequest 挂起的间隔请求（显式建模，不依赖定时器副作用）
type PendingRequest struct {
	Value    int
	Deadline time.Time
}

// IntervalNegotiator 读数间隔的请求/确认状态机。
// 服务端是间隔的唯一权威，本地值只是乐观的、可被推翻的猜测。
type IntervalNegotiator struct {
	mu      sync.Mutex
	current int
	pending *PendingRequest
	warning *Warning
}

func NewIntervalNegotiator(initial int) *IntervalNegotiator {
	return &IntervalNegotiator{current: initial}
}

// Request 记录一次外发请求；同一时间最多一个挂起请求（覆盖旧的）
func (n *IntervalNegotiator) Request(value int, now time.Time, ackWait time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.current = value
	n.pending = &PendingRequest{Value: value, Deadline: now.Add(ackWait)}
	n.warning = nil
}

// HandleAck 处理一帧 readingIntervalUpdated 广播
func (n *IntervalNegotiator) HandleAck(value int) AckOutcome {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pending == nil {
		n.current = value
		return AckAdopted
	}

	if n.pending.Value == value {
		n.current = value
		n.pending = nil
		n.warning = nil
		return AckConfirmed
	}

	// 服务端永远胜出：采纳其值并提示差异
	n.current = value
	n.pending = nil
	n.warning = &Warning{
		Kind:    WarnIntervalDiscrepancy,
		Message: "server chose a different reading interval",
	}
	return AckOverridden
}

// HandleTimeout 等待超时前未收到任何确认：产生"未确认"告警并清除挂起态。
// 返回 true 表示确实有挂起请求过期。
func (n *IntervalNegotiator) HandleTimeout(now time.Time) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pending == nil || now.Before(n.pending.Deadline) {
		return false
	}
	n.pending = nil
	n.warning = &Warning{
		Kind:    WarnIntervalNotConfirmed,
		Message: "reading interval change was not confirmed by the server",
	}
	return true
}

// Current 当前本地间隔值
func (n *IntervalNegotiator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Pending 当前挂起请求的副本（无挂起返回 nil）
func (n *IntervalNegotiator) Pending() *PendingRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return nil
	}
	p := *n.pending
	return &p
}

// Warning 当前告警（已清除返回 nil）
func (n *IntervalNegotiator) Warning() *Warning {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.warning == nil {
		return nil
	}
	w := *n.warning
	return &w
}
