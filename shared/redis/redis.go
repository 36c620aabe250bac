package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aura/backend/pkg/lock"

	"github.com/redis/go-redis/v9"
)

// Options configures the shared client
type Options struct {
	URL      string
	Password string
	DB       int
}

// Client wraps go-redis with the operations AURA needs
type Client struct {
	client *redis.Client
}

// NewClient accepts either a redis:// URL or a bare host:port
func NewClient(opts Options) (*Client, error) {
	var redisOpts *redis.Options
	if strings.Contains(opts.URL, "://") {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		redisOpts = parsed
		if opts.Password != "" {
			redisOpts.Password = opts.Password
		}
	} else {
		addr := opts.URL
		if addr == "" {
			addr = "localhost:6379"
		}
		redisOpts = &redis.Options{
			Addr:     addr,
			Password: opts.Password,
			DB:       opts.DB,
		}
	}
	redisOpts.DialTimeout = 3 * time.Second

	return &Client{client: redis.NewClient(redisOpts)}, nil
}

// Ping checks connectivity
func (r *Client) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PublishJSON encodes payload and publishes it on channel
func (r *Client) PublishJSON(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe returns a subscription on channels; the caller closes it
func (r *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return r.client.Subscribe(ctx, channels...)
}

// Locker returns a distributed per-key lock backed by this client
func (r *Client) Locker(prefix string, ttl time.Duration) lock.Locker {
	return lock.NewRedisLocker(r.client, prefix, ttl)
}

// Close releases the connection pool
func (r *Client) Close() error {
	return r.client.Close()
}
