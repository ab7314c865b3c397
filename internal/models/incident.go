package models

// MaxReadings 单个 incident 保留的读数上限（环形截断）
const MaxReadings = 24

// Reading 一条时序采样（温度/压力），生成后不可变
type Reading struct {
	Timestamp   string  `json:"timestamp"`   // ISO-8601
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
}

// Incident 一条告警工单（与 dashboard 前端契约对齐）
type Incident struct {
	IncidentID        string    `json:"incidentId"`
	SiteID            string    `json:"siteId"`
	AssetID           string    `json:"assetId"`
	AlarmID           string    `json:"alarmId"`
	Priority          int       `json:"priority"`
	CreatedAt         string    `json:"createdAt"` // ISO-8601，创建后不可变
	UpdatedAt         string    `json:"updatedAt,omitempty"`
	AssignedTo        *string   `json:"assignedTo"`
	StateID           string    `json:"stateId"` // "OPEN" | "CLOSED"
	EscalationLevelID string    `json:"escalationLevelId"`
	IncidentTypeIDs   []string  `json:"incidentTypeIds"`
	Readings          []Reading `json:"readings"`
}

// Incident 状态
const (
	StateOpen   = "OPEN"
	StateClosed = "CLOSED"
)

// Clone 深拷贝（广播前复制，避免共享底层 slice）
func (i Incident) Clone() Incident {
	out := i
	if i.AssignedTo != nil {
		v := *i.AssignedTo
		out.AssignedTo = &v
	}
	if i.IncidentTypeIDs != nil {
		out.IncidentTypeIDs = append([]string(nil), i.IncidentTypeIDs...)
	}
	if i.Readings != nil {
		out.Readings = append([]Reading(nil), i.Readings...)
	}
	return out
}

// CatalogEntry 参考数据条目
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog 五张静态参考表（启动时加载，之后只读）
type Catalog struct {
	EscalationLevels []CatalogEntry `json:"escalationLevels"`
	IncidentTypes    []CatalogEntry `json:"incidentTypes"`
	Sites            []CatalogEntry `json:"sites"`
	Assets           []CatalogEntry `json:"assets"`
	Alarms           []CatalogEntry `json:"alarms"`
}

// Normalize 缺失的子表置为空 slice（前端不应收到 null）
func (c Catalog) Normalize() Catalog {
	if c.EscalationLevels == nil {
		c.EscalationLevels = []CatalogEntry{}
	}
	if c.IncidentTypes == nil {
		c.IncidentTypes = []CatalogEntry{}
	}
	if c.Sites == nil {
		c.Sites = []CatalogEntry{}
	}
	if c.Assets == nil {
		c.Assets = []CatalogEntry{}
	}
	if c.Alarms == nil {
		c.Alarms = []CatalogEntry{}
	}
	return c
}
