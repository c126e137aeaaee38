package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestHistory(t *testing.T, turns int) (*HistoryService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewHistoryService(rdb, time.Hour, turns, zaptest.NewLogger(t)), mr
}

func TestHistoryAppendAndRecent(t *testing.T) {
	h, mr := newTestHistory(t, 2)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, h.Append(ctx, "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	got, err := h.Recent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "User: q2\nAssistant: a2\nUser: q3\nAssistant: a3", got)
	assert.Equal(t, time.Hour, mr.TTL("chat_history:s1"))
}

func TestHistoryIsolatedBySession(t *testing.T) {
	h, _ := newTestHistory(t, 5)
	ctx := context.Background()

	require.NoError(t, h.Append(ctx, "a", "hello", "hi"))
	got, err := h.Recent(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryWithoutRedisIsNoop(t *testing.T) {
	h := NewHistoryService(nil, time.Hour, 5, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, h.Append(ctx, "s1", "q", "a"))
	got, err := h.Recent(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryReportsRedisErrors(t *testing.T) {
	h, mr := newTestHistory(t, 5)
	mr.Close()

	_, err := h.Recent(context.Background(), "s1")
	assert.Error(t, err)
}
