package db

import (
	"context"
	"log"

	"github.com/icebreakerhq/icebreaker/config"
	"github.com/redis/go-redis/v9"
)

// GetRedis connects the client backing the rate limiter and the
// assist cache.
func GetRedis(c *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("unable to reach redis at %s: %v", c.RedisAddr, err)
	}
	return client
}
