package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/core"
)

func TestMemoryExpiresEntries(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"), time.Minute)

	value, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	now = now.Add(time.Minute)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory(time.Now)
	ctx := context.Background()

	value := []byte("abc")
	m.Set(ctx, "k", value, time.Minute)
	value[0] = 'x'

	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryIgnoresZeroTTL(t *testing.T) {
	m := NewMemory(time.Now)
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"), 0)

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()
	logger := core.NewDiscardLogger()

	c, err := New(ctx, core.CacheConfig{Backend: "none"}, logger)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)

	c, err = New(ctx, core.CacheConfig{Backend: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	_, err = New(ctx, core.CacheConfig{Backend: "bogus"}, logger)
	assert.True(t, core.HasCode(err, core.ErrCodeConfiguration))
}
