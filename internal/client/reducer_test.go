package client_test

import (
	"testing"

	"incident-board/internal/client"
	"incident-board/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	e, ok := client.DecodeEvent([]byte(`{"type":"incidentAdded","incident":{"incidentId":"pump-7"}}`))
	require.True(t, ok)
	assert.Equal(t, models.TypeIncidentAdded, e.Type)
	assert.Equal(t, "pump-7", e.Incident.IncidentID)

	// 不可解析或缺 type：静默丢弃
	_, ok = client.DecodeEvent([]byte(`garbage`))
	assert.False(t, ok)
	_, ok = client.DecodeEvent([]byte(`{"incident":{}}`))
	assert.False(t, ok)
}

func TestReduce_Init_ReplacesWholesale(t *testing.T) {
	state := client.NewListState()
	state, _ = client.Reduce(state, client.Event{
		Type:     models.TypeIncidentAdded,
		Incident: models.Incident{IncidentID: "stale"},
	})

	next, warnings := client.Reduce(state, client.Event{
		Type:            models.TypeInit,
		ProtocolVersion: models.ProtocolVersion,
		Incidents:       []models.Incident{{IncidentID: "fresh-1"}, {IncidentID: "fresh-2"}},
		Catalog:         models.Catalog{Sites: []models.CatalogEntry{{ID: "site-1"}}},
	})

	assert.Empty(t, warnings)
	require.Len(t, next.Incidents, 2)
	assert.Equal(t, "fresh-1", next.Incidents[0].IncidentID)
	// 缺失的 catalog 子表补为空 slice
	assert.NotNil(t, next.Catalog.Alarms)
	assert.Len(t, next.Catalog.Sites, 1)
}

func TestReduce_Init_ProtocolMismatch(t *testing.T) {
	next, warnings := client.Reduce(client.NewListState(), client.Event{
		Type:            models.TypeInit,
		ProtocolVersion: "999",
		Incidents:       []models.Incident{{IncidentID: "still-applied"}},
	})

	// 软失败：照常应用快照，但产生用户可见告警
	require.Len(t, warnings, 1)
	assert.Equal(t, client.WarnProtocolMismatch, warnings[0].Kind)
	require.Len(t, next.Incidents, 1)
}

func TestReduce_IncidentAdded_Prepends(t *testing.T) {
	state, _ := client.Reduce(client.NewListState(), client.Event{
		Type: models.TypeIncidentAdded, Incident: models.Incident{IncidentID: "first"},
	})
	state, _ = client.Reduce(state, client.Event{
		Type: models.TypeIncidentAdded, Incident: models.Incident{IncidentID: "second"},
	})

	require.Len(t, state.Incidents, 2)
	assert.Equal(t, "second", state.Incidents[0].IncidentID)
}

func TestReduce_IncidentUpdated_InPlace(t *testing.T) {
	state := client.ListState{Incidents: []models.Incident{
		{IncidentID: "aaa"},
		{IncidentID: "bbb", Priority: 1},
		{IncidentID: "ccc"},
	}}

	next, _ := client.Reduce(state, client.Event{
		Type:     models.TypeIncidentUpdated,
		Incident: models.Incident{IncidentID: "bbb", Priority: 5},
	})

	// 位置保留
	require.Len(t, next.Incidents, 3)
	assert.Equal(t, "bbb", next.Incidents[1].IncidentID)
	assert.Equal(t, 5, next.Incidents[1].Priority)
}

func TestReduce_IncidentUpdated_Idempotent(t *testing.T) {
	state := client.ListState{Incidents: []models.Incident{{IncidentID: "pump-7", Priority: 1}}}
	event := client.Event{
		Type:     models.TypeIncidentUpdated,
		Incident: models.Incident{IncidentID: "pump-7", Priority: 9},
	}

	once, _ := client.Reduce(state, event)
	twice, _ := client.Reduce(once, event)

	assert.Equal(t, once, twice)
}

func TestReduce_IncidentUpdated_UnknownIDPrepends(t *testing.T) {
	state := client.ListState{Incidents: []models.Incident{{IncidentID: "existing"}}}

	next, _ := client.Reduce(state, client.Event{
		Type:     models.TypeIncidentUpdated,
		Incident: models.Incident{IncidentID: "brand-new"},
	})

	require.Len(t, next.Incidents, 2)
	assert.Equal(t, "brand-new", next.Incidents[0].IncidentID)
}

func TestReduce_UnknownType_NoChange(t *testing.T) {
	state := client.ListState{Incidents: []models.Incident{{IncidentID: "pump-7"}}}

	next, warnings := client.Reduce(state, client.Event{Type: "somethingElse"})
	assert.Equal(t, state, next)
	assert.Empty(t, warnings)
}
