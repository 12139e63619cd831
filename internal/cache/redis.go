package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 90 * time.Second

// Client wraps the shared Redis connection: websocket presence plus the keys
// used by the rate limiter and the directory roster cache.
type Client struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Client {
	return &Client{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (c *Client) Redis() *redis.Client { return c.rdb }

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) SetPresence(ctx context.Context, userID string, online bool) error {
	key := "presence:" + userID
	if !online {
		return c.rdb.Del(ctx, key).Err()
	}
	return c.rdb.Set(ctx, key, "1", presenceTTL).Err()
}

func (c *Client) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, "presence:"+userID).Result()
	return n > 0, err
}

func (c *Client) Close() error { return c.rdb.Close() }
