package models

// Bucket 派生的展示分类（不落库，仅 UI 使用）
type Bucket string

const (
	BucketNew       Bucket = "new"
	BucketActive    Bucket = "active"
	BucketCompleted Bucket = "completed"
)

// BucketOf 按 stateId + assignedTo 分类：
// CLOSED 一律 completed（无论是否有 assignee）；
// OPEN 且有 assignee 为 active；OPEN 且无 assignee 为 new。
func BucketOf(inc Incident) Bucket {
	if inc.StateID == StateClosed {
		return BucketCompleted
	}
	if inc.AssignedTo != nil && *inc.AssignedTo != "" {
		return BucketActive
	}
	return BucketNew
}

// BucketedIncidents 过滤 + 分桶结果
type BucketedIncidents struct {
	New       []Incident
	Active    []Incident
	Completed []Incident
}

// BucketIncidents 先按 escalation / incident type 过滤再分桶。
// escalationLevelID 为空表示不过滤；incidentTypeIDs 为空表示不过滤，
// 否则 incident 至少命中其中一个 type 才保留。
func BucketIncidents(incidents []Incident, escalationLevelID string, incidentTypeIDs []string) BucketedIncidents {
	var out BucketedIncidents
	for _, inc := range incidents {
		if escalationLevelID != "" && inc.EscalationLevelID != escalationLevelID {
			continue
		}
		if len(incidentTypeIDs) > 0 && !hasAnyType(inc, incidentTypeIDs) {
			continue
		}
		switch BucketOf(inc) {
		case BucketCompleted:
			out.Completed = append(out.Completed, inc)
		case BucketActive:
			out.Active = append(out.Active, inc)
		default:
			out.New = append(out.New, inc)
		}
	}
	return out
}

func hasAnyType(inc Incident, typeIDs []string) bool {
	for _, want := range typeIDs {
		for _, have := range inc.IncidentTypeIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}
