package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// nudgeKey is a plain redis list; the API pushes job ids after enqueueing
// into postgres, workers block-pop so latency is not bound to the poll
// interval. Postgres stays the source of truth; a lost nudge only means
// the job waits for the next poll tick.
const nudgeKey = "flarepp:jobs:nudge"

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Ping checks redis connectivity (used by /readyz).
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Nudge wakes a worker after a job was persisted. Best effort.
func (c *Client) Nudge(ctx context.Context, jobID string) error {
	return c.redisdb.LPush(ctx, nudgeKey, jobID).Err()
}

// WaitForNudge blocks up to timeout for a nudge. Returns false on timeout.
func (c *Client) WaitForNudge(ctx context.Context, timeout time.Duration) (bool, error) {
	res, err := c.redisdb.BRPop(ctx, timeout, nudgeKey).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	return len(res) == 2, nil
}
