// Package client 实现 dashboard 观察端：本地 incident 列表的对账
// 状态机 + 读数间隔协商。对账逻辑是纯 reducer，可脱离连接独立测试。
package client

import (
	"encoding/json"

	"incident-board/internal/models"
)

// Event 解码后的服务端消息（按 Type 区分有效字段）
type Event struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocolVersion"`
	Incidents       []models.Incident `json:"incidents"`
	Catalog         models.Catalog    `json:"catalog"`
	Incident        models.Incident   `json:"incident"`
	IntervalMs      int               `json:"intervalMs"`
	Code            string            `json:"code"`
	Message         string            `json:"message"`
}

// DecodeEvent 解码一帧服务端消息。ok 为 false 表示载荷不可解析
// 或缺少 type，调用方应静默丢弃（不改状态、不提示）。
func DecodeEvent(data []byte) (Event, bool) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, false
	}
	if e.Type == "" {
		return Event{}, false
	}
	return e, true
}

// ListState 本地对账状态（服务端事件流的派生副本）
type ListState struct {
	Incidents []models.Incident
	Catalog   models.Catalog
}

// NewListState 初始空状态
func NewListState() ListState {
	return ListState{Incidents: []models.Incident{}, Catalog: models.Catalog{}.Normalize()}
}

// 非致命告警类别
const (
	WarnProtocolMismatch = "protocol-mismatch"
)

// Warning 用户可见的非致命告警
type Warning struct {
	Kind    string
	Message string
}

// Reduce 纯函数：(state, event) → state。
//   - init：整体替换列表与 catalog；协议版本不匹配产生告警但照常应用（软失败）
//   - incidentAdded：无条件头插（与服务端 add 语义一致，去重由调用方保证）
//   - incidentUpdated：按 id 原位替换（保持位置），无匹配则头插；重复应用幂等
//   - 其它类型：状态不变
func Reduce(state ListState, e Event) (ListState, []Warning) {
	switch e.Type {
	case models.TypeInit:
		var warnings []Warning
		if e.ProtocolVersion != models.ProtocolVersion {
			warnings = append(warnings, Warning{
				Kind:    WarnProtocolMismatch,
				Message: "server protocol version " + e.ProtocolVersion + " does not match client version " + models.ProtocolVersion,
			})
		}
		incidents := e.Incidents
		if incidents == nil {
			incidents = []models.Incident{}
		}
		return ListState{Incidents: incidents, Catalog: e.Catalog.Normalize()}, warnings

	case models.TypeIncidentAdded:
		state.Incidents = append([]models.Incident{e.Incident}, state.Incidents...)
		return state, nil

	case models.TypeIncidentUpdated:
		for i := range state.Incidents {
			if state.Incidents[i].IncidentID == e.Incident.IncidentID {
				out := append([]models.Incident(nil), state.Incidents...)
				out[i] = e.Incident
				state.Incidents = out
				return state, nil
			}
		}
		state.Incidents = append([]models.Incident{e.Incident}, state.Incidents...)
		return state, nil

	default:
		return state, nil
	}
}
