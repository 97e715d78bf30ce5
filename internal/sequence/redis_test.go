package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedis(client, "bistro:order_id")
}

func TestRedis_Next(t *testing.T) {
	_, seq := newTestRedis(t)
	ctx := context.Background()

	first, err := seq.Next(ctx)
	require.NoError(t, err)
	second, err := seq.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestRedis_ConcurrentUnique(t *testing.T) {
	_, seq := newTestRedis(t)
	const n = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := seq.Next(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing id %d", i)
	}
}

func TestRedis_Floor(t *testing.T) {
	mr, seq := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, seq.Floor(ctx, 40))
	id, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(41), id)

	// never lowers the counter
	require.NoError(t, seq.Floor(ctx, 10))
	v, err := mr.Get("bistro:order_id")
	require.NoError(t, err)
	assert.Equal(t, "41", v)
}

func TestRedis_Unavailable(t *testing.T) {
	mr, seq := newTestRedis(t)
	mr.Close()

	_, err := seq.Next(context.Background())
	assert.Error(t, err)

	_, err = Connect(context.Background(), mr.Addr())
	assert.Error(t, err)
}

// interleavingClient runs before once ahead of the first script call
type interleavingClient struct {
	redis.Cmdable
	once   sync.Once
	before func()
}

func (c *interleavingClient) EvalSha(ctx context.Context, sha string, keys []string, args ...interface{}) *redis.Cmd {
	c.once.Do(c.before)
	return c.Cmdable.EvalSha(ctx, sha, keys, args...)
}

func (c *interleavingClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	c.once.Do(c.before)
	return c.Cmdable.Eval(ctx, script, keys, args...)
}

func TestRedis_FloorKeepsConcurrentIncrement(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { c.Close() })
		return c
	}
	other := NewRedis(newClient(), "bistro:order_id")

	var otherID int64
	client := &interleavingClient{Cmdable: newClient()}
	client.before = func() {
		require.NoError(t, other.Floor(ctx, 10))
		var err error
		otherID, err = other.Next(ctx)
		require.NoError(t, err)
	}
	seq := NewRedis(client, "bistro:order_id")

	require.NoError(t, seq.Floor(ctx, 10))
	id, err := seq.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(11), otherID)
	assert.Equal(t, int64(12), id)
	assert.NotEqual(t, otherID, id)
}

func TestRedis_ConcurrentFloorAndNext(t *testing.T) {
	mr, _ := newTestRedis(t)
	const n = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]int)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(floor int64) {
			defer wg.Done()
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer client.Close()
			seq := NewRedis(client, "bistro:order_id")

			ctx := context.Background()
			if !assert.NoError(t, seq.Floor(ctx, floor)) {
				return
			}
			id, err := seq.Next(ctx)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[id]++
			mu.Unlock()
		}(int64(i % 5))
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for id, count := range seen {
		assert.Equal(t, 1, count, "id %d allocated more than once", id)
	}
}
