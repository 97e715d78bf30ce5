// Package sequence allocates order ids from a Redis counter shared by every
// order service instance.
package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is an order.IDAllocator backed by INCR
type Redis struct {
	client redis.Cmdable
	key    string
}

func NewRedis(client redis.Cmdable, key string) *Redis {
	return &Redis{client: client, key: key}
}

// Connect opens a client for addr and verifies it answers
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (r *Redis) Next(ctx context.Context) (int64, error) {
	id, err := r.client.Incr(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", r.key, err)
	}
	return id, nil
}

// floorScript raises the counter to ARGV[1] unless it is already at least that high
var floorScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == false or tonumber(cur) < tonumber(ARGV[1]) then
	redis.call('SET', KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// Floor raises the counter to at least n, so ids resume after restored orders.
// The compare and set happen in one script and never race a concurrent Next.
func (r *Redis) Floor(ctx context.Context, n int64) error {
	if err := floorScript.Run(ctx, r.client, []string{r.key}, n).Err(); err != nil {
		return fmt.Errorf("failed to raise %s to %d: %w", r.key, n, err)
	}
	return nil
}
