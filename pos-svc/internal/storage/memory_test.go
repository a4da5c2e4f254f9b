package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *changeRecorder) record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *changeRecorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Key)
	}
	return out
}

func TestMemoryBackend_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	_, ok, err := backend.Get(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, "orders", "[]"))
	val, ok, err := backend.Get(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", val)

	require.NoError(t, backend.Remove(ctx, "orders"))
	_, ok, err = backend.Get(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBackend_Failing(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	backend.SetFailing(true)

	_, _, err := backend.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, backend.Set(ctx, "k", "v"), ErrUnavailable)
	assert.ErrorIs(t, backend.Remove(ctx, "k"), ErrUnavailable)

	backend.SetFailing(false)
	assert.NoError(t, backend.Set(ctx, "k", "v"))
}

func TestOrigin_WatchSkipsOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := NewMemoryBackend()
	tabA := NewOrigin("tab-a", backend, backend, nil)
	tabB := NewOrigin("tab-b", backend, backend, nil)

	seenByA := &changeRecorder{}
	seenByB := &changeRecorder{}
	require.NoError(t, tabA.Watch(ctx, seenByA.record))
	require.NoError(t, tabB.Watch(ctx, seenByB.record))

	require.NoError(t, tabA.Set(ctx, "orders", `[{"id":"1"}]`))

	assert.Eventually(t, func() bool {
		return len(seenByB.keys()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"orders"}, seenByB.keys())
	assert.Empty(t, seenByA.keys())

	val, ok, err := tabB.Get(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, val)
}

func TestOrigin_WrapsBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	origin := NewOrigin("tab", backend, backend, nil)
	backend.SetFailing(true)

	err := origin.Set(ctx, "orders", "[]")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "cannot write orders")

	_, _, err = origin.Get(ctx, "orders")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "cannot read orders")
}

func TestOrigin_WatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := NewMemoryBackend()
	writer := NewOrigin("writer", backend, backend, nil)
	reader := NewOrigin("reader", backend, backend, nil)

	seen := &changeRecorder{}
	require.NoError(t, reader.Watch(ctx, seen.record))
	cancel()

	assert.Eventually(t, func() bool {
		backend.subMu.Lock()
		defer backend.subMu.Unlock()
		return len(backend.subs) == 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, writer.Set(context.Background(), "orders", "[]"))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, seen.keys())
}

func TestOrigin_NilNotifier(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	origin := NewOrigin("solo", backend, nil, nil)

	assert.NoError(t, origin.Watch(ctx, func(Change) {}))
	assert.NoError(t, origin.Set(ctx, "k", "v"))
	assert.Equal(t, "solo", origin.TabID())
}
