package redisstore

import (
	"context"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"
)

// New constructs a Redis client and verifies connectivity. A failed ping is
// returned to the caller so service startup can abort instead of running in a
// degraded mode.
func New(ctx context.Context, addr string) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
