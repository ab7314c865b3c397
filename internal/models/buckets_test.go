package models_test

import (
	"testing"

	"incident-board/internal/models"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestBucketOf(t *testing.T) {
	// OPEN 且无 assignee → new
	assert.Equal(t, models.BucketNew, models.BucketOf(models.Incident{StateID: models.StateOpen}))

	// OPEN 且有 assignee → active
	assert.Equal(t, models.BucketActive, models.BucketOf(models.Incident{
		StateID: models.StateOpen, AssignedTo: strptr("operator-1"),
	}))

	// CLOSED → completed，无论是否有 assignee
	assert.Equal(t, models.BucketCompleted, models.BucketOf(models.Incident{StateID: models.StateClosed}))
	assert.Equal(t, models.BucketCompleted, models.BucketOf(models.Incident{
		StateID: models.StateClosed, AssignedTo: strptr("operator-1"),
	}))

	// 空字符串 assignee 视同未分配
	assert.Equal(t, models.BucketNew, models.BucketOf(models.Incident{
		StateID: models.StateOpen, AssignedTo: strptr(""),
	}))
}

func TestBucketIncidents_Filters(t *testing.T) {
	incidents := []models.Incident{
		{IncidentID: "a-1", StateID: models.StateOpen, EscalationLevelID: "esc-1", IncidentTypeIDs: []string{"t1"}},
		{IncidentID: "a-2", StateID: models.StateOpen, EscalationLevelID: "esc-2", IncidentTypeIDs: []string{"t1"}},
		{IncidentID: "a-3", StateID: models.StateOpen, EscalationLevelID: "esc-1", IncidentTypeIDs: []string{"t2"}, AssignedTo: strptr("op")},
		{IncidentID: "a-4", StateID: models.StateClosed, EscalationLevelID: "esc-1", IncidentTypeIDs: []string{"t1", "t2"}},
	}

	out := models.BucketIncidents(incidents, "esc-1", []string{"t1"})

	// esc-2 被 escalation 过滤掉，t2-only 被 type 过滤掉
	assert.Len(t, out.New, 1)
	assert.Equal(t, "a-1", out.New[0].IncidentID)
	assert.Empty(t, out.Active)
	assert.Len(t, out.Completed, 1)
	assert.Equal(t, "a-4", out.Completed[0].IncidentID)
}

func TestBucketIncidents_NoFilters(t *testing.T) {
	incidents := []models.Incident{
		{IncidentID: "a-1", StateID: models.StateOpen},
		{IncidentID: "a-2", StateID: models.StateOpen, AssignedTo: strptr("op")},
		{IncidentID: "a-3", StateID: models.StateClosed},
	}

	out := models.BucketIncidents(incidents, "", nil)
	assert.Len(t, out.New, 1)
	assert.Len(t, out.Active, 1)
	assert.Len(t, out.Completed, 1)
}
