package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "hh:")

	_, ok, err := store.Get(ctx, "lastOrderId")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "lastOrderId", "7"))
	got, err := mr.Get("hh:lastOrderId")
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	val, ok, err := store.Get(ctx, "lastOrderId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7", val)

	require.NoError(t, store.Remove(ctx, "lastOrderId"))
	assert.False(t, mr.Exists("hh:lastOrderId"))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "")
	mr.Close()

	_, _, err := store.Get(context.Background(), "orders")
	assert.Error(t, err)
}

func TestRedisNotifier_CrossTabDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, client := setupRedis(t)

	store := NewRedisStore(client, "hh:")
	notifier := NewRedisNotifier(client, "hh:"+DefaultChangeChannel, nil)
	tabA := NewOrigin("tab-a", store, notifier, nil)
	tabB := NewOrigin("tab-b", store, notifier, nil)

	seenByA := &changeRecorder{}
	seenByB := &changeRecorder{}
	require.NoError(t, tabA.Watch(ctx, seenByA.record))
	require.NoError(t, tabB.Watch(ctx, seenByB.record))

	require.NoError(t, tabA.Set(ctx, "orders", "[]"))

	assert.Eventually(t, func() bool {
		return len(seenByB.keys()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"orders"}, seenByB.keys())
	assert.Empty(t, seenByA.keys())
}

func TestRedisNotifier_IgnoresMalformedPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, client := setupRedis(t)

	notifier := NewRedisNotifier(client, "changes", nil)
	seen := &changeRecorder{}
	require.NoError(t, notifier.Subscribe(ctx, seen.record))

	require.NoError(t, client.Publish(ctx, "changes", "not json").Err())
	require.NoError(t, notifier.Notify(ctx, Change{Key: "staffTimeLogs", Source: "x"}))

	assert.Eventually(t, func() bool {
		return len(seen.keys()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"staffTimeLogs"}, seen.keys())
}
