package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultKey is where the latest status is stored
	DefaultKey = "wescraper:status"
	// DefaultTTL bounds how long a finished status stays visible
	DefaultTTL = 24 * time.Hour
)

// ErrEmptyAddress is returned when no Redis address is configured
var ErrEmptyAddress = errors.New("redis address is required")

// RedisConfig holds the connection settings
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// Cmdable is the subset of the go-redis client the reporter uses
type Cmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// NewRedisClient connects and pings the server
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Redis stores the latest update as JSON under one key
type Redis struct {
	client Cmdable
	key    string
	ttl    time.Duration
}

// NewRedis creates a reporter. Empty key and zero ttl use the defaults.
func NewRedis(client Cmdable, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

// Report overwrites the stored status with u
func (r *Redis) Report(ctx context.Context, u Update) error {
	data, err := json.Marshal(stamp(u))
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}
	return nil
}

// Latest reads the stored status
func (r *Redis) Latest(ctx context.Context) (Update, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Update{}, ErrNoStatus
	}
	if err != nil {
		return Update{}, fmt.Errorf("failed to read status: %w", err)
	}
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("failed to decode status: %w", err)
	}
	return u, nil
}
