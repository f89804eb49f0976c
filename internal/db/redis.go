package db

import (
	"context"
	"log"

	"backend-corevia/internal/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for the snapshot relay, or nil when redis is
// not configured or does not answer. A nil client keeps streaming local to
// this instance.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s, streaming stays local: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}
