package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gastbook/config"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "gastbook:"

var client *redis.Client

// ErrNotInitialized is returned by every helper while redis is disabled.
var ErrNotInitialized = errors.New("redis client not initialized")

// InitRedis connects and pings.
func InitRedis(ctx context.Context, cfg config.RedisConfig) error {
	c := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("redis ping: %w", err)
	}

	client = c
	return nil
}

func GetClient() *redis.Client {
	return client
}

// Enabled reports whether InitRedis succeeded.
func Enabled() bool {
	return client != nil
}

func Close() error {
	if client != nil {
		err := client.Close()
		client = nil
		return err
	}
	return nil
}

func HealthCheck(ctx context.Context) error {
	if client == nil {
		return ErrNotInitialized
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func key(parts ...interface{}) string {
	k := KeyPrefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += fmt.Sprint(p)
	}
	return k
}

// IsMiss reports a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
