package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_JSONRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	require.NoError(t, m.GetJSON(ctx, "k", &got))
	assert.Equal(t, 1, got["a"])

	now = now.Add(time.Minute)
	assert.ErrorIs(t, m.GetJSON(ctx, "k", &got), ErrMiss)
}

func TestMemory_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SetJSON(ctx, "dashboard:b1:today", 1, 0))
	require.NoError(t, m.SetJSON(ctx, "dashboard:b1:week", 1, 0))
	require.NoError(t, m.SetJSON(ctx, "dashboard:b2:today", 1, 0))

	n, err := m.DeleteByPrefix(ctx, "dashboard:b1:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var v int
	assert.ErrorIs(t, m.GetJSON(ctx, "dashboard:b1:week", &v), ErrMiss)
	assert.NoError(t, m.GetJSON(ctx, "dashboard:b2:today", &v))
}

func TestMemory_SetNX(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.SetNX(ctx, "idem", "tx-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetNX(ctx, "idem", "tx-2", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := m.GetString(ctx, "idem")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", val)
}

func TestMemory_Update(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	called := false
	err := m.Update(ctx, "missing", time.Minute, func([]byte) ([]byte, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrMiss)
	assert.False(t, called)

	require.NoError(t, m.SetJSON(ctx, "n", 1, time.Minute))
	require.NoError(t, m.Update(ctx, "n", time.Minute, func(cur []byte) ([]byte, error) {
		return append(cur, '0'), nil
	}))
	var n int
	require.NoError(t, m.GetJSON(ctx, "n", &n))
	assert.Equal(t, 10, n)

	require.ErrorIs(t, m.Update(ctx, "n", time.Minute, func([]byte) ([]byte, error) {
		return nil, assert.AnError
	}), assert.AnError)
	require.NoError(t, m.GetJSON(ctx, "n", &n))
	assert.Equal(t, 10, n)
}
