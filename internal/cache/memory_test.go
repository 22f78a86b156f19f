package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetNowFunc(func() time.Time { return now })

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_SetNX(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.SetNX(ctx, "once", "1", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetNX(ctx, "once", "2", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := m.Get(ctx, "once")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestMemory_DecrIfPositive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// Absent key: nothing to consume
	ok, err := m.DecrIfPositive(ctx, "n")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.IncrBy(ctx, "n", 2)
	require.NoError(t, err)

	ok, _ = m.DecrIfPositive(ctx, "n")
	assert.True(t, ok)
	ok, _ = m.DecrIfPositive(ctx, "n")
	assert.True(t, ok)
	ok, _ = m.DecrIfPositive(ctx, "n")
	assert.False(t, ok)

	v, err := m.Get(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

// The bonus-roll balance must never be observed negative no matter how many
// consumers race on it.
func TestMemory_DecrIfPositive_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.IncrBy(ctx, "n", 10)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		consumed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.DecrIfPositive(ctx, "n")
			if err == nil && ok {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, consumed)
	v, err := m.Get(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestMemory_ScanPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "streak:char:1:alice", "3", 0))
	require.NoError(t, m.Set(ctx, "streak:char:1:bob", "1", 0))
	require.NoError(t, m.Set(ctx, "streak:char:2:alice", "9", 0))

	keys, err := m.ScanPrefix(ctx, "streak:char:1:", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"streak:char:1:alice", "streak:char:1:bob"}, keys)
}
