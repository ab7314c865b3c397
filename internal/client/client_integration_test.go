package client_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"incident-board/internal/client"
	"incident-board/internal/generator"
	"incident-board/internal/hub"
	"incident-board/internal/models"
	"incident-board/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startServer 起一个完整的 hub 服务供客户端联测
func startServer(t *testing.T, seed int) string {
	t.Helper()

	st := store.NewIncidentStore(generator.New(), models.MaxReadings)
	catalog := models.Catalog{
		Sites:  []models.CatalogEntry{{ID: "site-1", Name: "North"}},
		Assets: []models.CatalogEntry{{ID: "asset-1", Name: "Pump"}},
	}
	if seed > 0 {
		st.Seed(catalog, seed)
	}

	h := hub.New(st, catalog, nil, 60000, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(hub.NewHandler(h, zap.NewNop()))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// waitSnapshot 轮询快照直到谓词命中
func waitSnapshot(t *testing.T, c *client.Client, match func(client.Snapshot) bool) client.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := c.Snapshot()
		if match(snap) {
			return snap
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("expected snapshot state not reached before deadline")
	return client.Snapshot{}
}

func TestClient_InitAndAdd(t *testing.T) {
	url := startServer(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := client.Dial(ctx, url, client.Options{}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()
	go func() { _ = c.Run(ctx) }()

	// init 快照到达
	snap := waitSnapshot(t, c, func(s client.Snapshot) bool { return len(s.Incidents) == 2 })
	assert.Equal(t, client.StatusConnected, snap.ConnectionStatus)
	assert.NotEmpty(t, snap.Catalog.Sites)

	// add 后回声进入本地列表头部
	require.NoError(t, c.SendIncident(models.Incident{IncidentID: "from-client", StateID: models.StateOpen}))
	snap = waitSnapshot(t, c, func(s client.Snapshot) bool { return len(s.Incidents) == 3 })
	assert.Equal(t, "from-client", snap.Incidents[0].IncidentID)
	assert.Len(t, snap.Incidents[0].Readings, 1)

	// 全部 OPEN 且无 assignee：分桶视图应把所有 incident 归入 new
	buckets := snap.Buckets("", nil)
	assert.Len(t, buckets.New, 3)
	assert.Empty(t, buckets.Active)
}

func TestClient_IntervalNegotiation(t *testing.T) {
	url := startServer(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 请求 100ms：服务端钳到 250，客户端必须采纳服务端值并提示差异
	c, err := client.Dial(ctx, url, client.Options{IntervalMs: 100}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()
	go func() { _ = c.Run(ctx) }()

	snap := waitSnapshot(t, c, func(s client.Snapshot) bool { return s.ReadingIntervalMs == hub.MinIntervalMs })
	require.NotEmpty(t, snap.Warnings)
	assert.Equal(t, client.WarnIntervalDiscrepancy, snap.Warnings[0].Kind)
}

func TestClient_ServerError(t *testing.T) {
	url := startServer(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := client.Dial(ctx, url, client.Options{}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()
	go func() { _ = c.Run(ctx) }()

	require.NoError(t, c.SendIncident(models.Incident{IncidentID: "a"}))

	snap := waitSnapshot(t, c, func(s client.Snapshot) bool { return s.LastError != "" })
	assert.Contains(t, snap.LastError, models.CodeInvalidIncidentID)
	assert.Empty(t, snap.Incidents)
}

func TestClient_DisconnectStatus(t *testing.T) {
	url := startServer(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := client.Dial(ctx, url, client.Options{}, zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, c.Close())

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after close")
	}
	assert.Equal(t, client.StatusDisconnected, c.Snapshot().ConnectionStatus)
}
