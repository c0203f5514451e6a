package database

import (
	"context"

	"pdf-rag-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// RDB is the shared Redis client, safe for concurrent use.
var RDB *redis.Client

// InitRedis connects the Redis client and verifies the connection.
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Info("Redis client connected successfully")
}
