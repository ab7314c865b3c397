package client_test

import (
	"testing"
	"time"

	"incident-board/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiator_AckConfirmed(t *testing.T) {
	n := client.NewIntervalNegotiator(2000)
	now := time.Now()

	n.Request(500, now, client.DefaultAckWait)
	require.NotNil(t, n.Pending())

	outcome := n.HandleAck(500)
	assert.Equal(t, client.AckConfirmed, outcome)
	assert.Equal(t, 500, n.Current())
	assert.Nil(t, n.Pending())
	assert.Nil(t, n.Warning())
}

func TestNegotiator_AckOverridden_ServerWins(t *testing.T) {
	n := client.NewIntervalNegotiator(2000)
	now := time.Now()

	// 请求 X=100，服务端广播 Y=250（被钳制）：本地值必须是 Y 且有差异告警
	n.Request(100, now, client.DefaultAckWait)
	outcome := n.HandleAck(250)

	assert.Equal(t, client.AckOverridden, outcome)
	assert.Equal(t, 250, n.Current())
	assert.Nil(t, n.Pending())
	w := n.Warning()
	require.NotNil(t, w)
	assert.Equal(t, client.WarnIntervalDiscrepancy, w.Kind)
}

func TestNegotiator_AckAdopted_NoPending(t *testing.T) {
	// 他人改了间隔：静默采纳，不产生告警
	n := client.NewIntervalNegotiator(2000)

	outcome := n.HandleAck(750)
	assert.Equal(t, client.AckAdopted, outcome)
	assert.Equal(t, 750, n.Current())
	assert.Nil(t, n.Warning())
}

func TestNegotiator_Timeout(t *testing.T) {
	n := client.NewIntervalNegotiator(2000)
	now := time.Now()

	n.Request(500, now, client.DefaultAckWait)

	// 截止前不超时
	assert.False(t, n.HandleTimeout(now.Add(time.Second)))
	require.NotNil(t, n.Pending())

	// 截止后超时：未确认告警 + 挂起态清除
	assert.True(t, n.HandleTimeout(now.Add(2*time.Second)))
	assert.Nil(t, n.Pending())
	w := n.Warning()
	require.NotNil(t, w)
	assert.Equal(t, client.WarnIntervalNotConfirmed, w.Kind)

	// 已无挂起：再次超时不生效
	assert.False(t, n.HandleTimeout(now.Add(3*time.Second)))
}

func TestNegotiator_NewRequestReplacesPending(t *testing.T) {
	n := client.NewIntervalNegotiator(2000)
	now := time.Now()

	n.Request(500, now, client.DefaultAckWait)
	n.Request(1000, now.Add(100*time.Millisecond), client.DefaultAckWait)

	p := n.Pending()
	require.NotNil(t, p)
	assert.Equal(t, 1000, p.Value)

	// 旧请求的 ack 现在属于不匹配：服务端胜出
	outcome := n.HandleAck(500)
	assert.Equal(t, client.AckOverridden, outcome)
	assert.Equal(t, 500, n.Current())
}
