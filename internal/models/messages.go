package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ProtocolVersion 与前端约定的协议版本（init 消息携带，客户端软校验）
const ProtocolVersion = "1"

// 客户端 → 服务端消息类型
const (
	TypeAddIncident        = "addIncident"
	TypeUpdateIncident     = "updateIncident"
	TypeSetReadingInterval = "setReadingInterval"
)

// 服务端 → 客户端消息类型
const (
	TypeInit                   = "init"
	TypeIncidentAdded          = "incidentAdded"
	TypeIncidentUpdated        = "incidentUpdated"
	TypeReadingIntervalUpdated = "readingIntervalUpdated"
	TypeError                  = "error"
)

// 错误码
const (
	CodeInvalidMessage    = "INVALID_MESSAGE"
	CodeInvalidIncidentID = "INVALID_INCIDENT_ID"
)

// incidentIDPattern incident 标识符约束（大小写不敏感）
var incidentIDPattern = regexp.MustCompile(`(?i)^[a-z0-9-]{3,32}$`)

// ValidIncidentID 校验 incident 标识符
func ValidIncidentID(id string) bool {
	return incidentIDPattern.MatchString(id)
}

// ErrInvalidMessage JSON 合法但不满足消息契约
var ErrInvalidMessage = errors.New("invalid message")

// ClientMessage 解码后的客户端入站消息（按 Type 区分有效字段）
type ClientMessage struct {
	Type       string
	Incident   Incident // addIncident / updateIncident
	IntervalMs int      // setReadingInterval
}

// clientEnvelope 入站帧信封
type clientEnvelope struct {
	Type       string           `json:"type"`
	Incident   *json.RawMessage `json:"incident"`
	IntervalMs *float64         `json:"intervalMs"`
}

// DecodeClientMessage 解码并校验一帧客户端消息。
// 返回 ErrInvalidMessage 表示 JSON 合法但形状不符（调用方应回 error 帧）；
// 其它解码错误表示帧不是合法 JSON（调用方应静默丢弃）。
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch env.Type {
	case TypeAddIncident, TypeUpdateIncident:
		if env.Incident == nil {
			return nil, fmt.Errorf("%w: missing incident", ErrInvalidMessage)
		}
		var inc Incident
		if err := json.Unmarshal(*env.Incident, &inc); err != nil {
			return nil, fmt.Errorf("%w: malformed incident: %v", ErrInvalidMessage, err)
		}
		if inc.IncidentID == "" {
			return nil, fmt.Errorf("%w: missing incidentId", ErrInvalidMessage)
		}
		return &ClientMessage{Type: env.Type, Incident: inc}, nil

	case TypeSetReadingInterval:
		if env.IntervalMs == nil {
			return nil, fmt.Errorf("%w: missing intervalMs", ErrInvalidMessage)
		}
		return &ClientMessage{Type: env.Type, IntervalMs: int(*env.IntervalMs)}, nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, env.Type)
	}
}

// InitMessage 连接建立后下发的全量快照
type InitMessage struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocolVersion"`
	Incidents       []Incident `json:"incidents"`
	Catalog         Catalog    `json:"catalog"`
}

// IncidentMessage incidentAdded / incidentUpdated 增量帧
type IncidentMessage struct {
	Type     string   `json:"type"`
	Incident Incident `json:"incident"`
}

// IntervalMessage readingIntervalUpdated 广播帧
type IntervalMessage struct {
	Type       string `json:"type"`
	IntervalMs int    `json:"intervalMs"`
}

// ErrorMessage 契约校验失败时的应答帧
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewInitMessage(incidents []Incident, catalog Catalog) InitMessage {
	if incidents == nil {
		incidents = []Incident{}
	}
	return InitMessage{
		Type:            TypeInit,
		ProtocolVersion: ProtocolVersion,
		Incidents:       incidents,
		Catalog:         catalog.Normalize(),
	}
}

func NewIncidentAdded(inc Incident) IncidentMessage {
	return IncidentMessage{Type: TypeIncidentAdded, Incident: inc}
}

func NewIncidentUpdated(inc Incident) IncidentMessage {
	return IncidentMessage{Type: TypeIncidentUpdated, Incident: inc}
}

func NewIntervalUpdated(intervalMs int) IntervalMessage {
	return IntervalMessage{Type: TypeReadingIntervalUpdated, IntervalMs: intervalMs}
}

func NewErrorMessage(code, message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Code: code, Message: message}
}
