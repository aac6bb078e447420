package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client
var RedisURI string

// InitRedis leaves RedisClient nil when uri is empty (dev mode); callers
// fall back to in-process behaviour in that case.
func InitRedis(uri string) error {
	if uri == "" {
		return nil
	}
	c := redis.NewClient(&redis.Options{
		Addr:     uri, // เช่น localhost:6379
		Password: "",
		DB:       0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Ping(ctx).Result(); err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to connect Redis: %w", err)
	}
	RedisClient = c
	RedisURI = uri
	return nil
}
