// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"appointly/config"

	"github.com/go-redis/redis/v8"
)

var (
	// OTPCacheClient holds one-time passwords.
	OTPCacheClient *redis.Client
	// QueueClient points at the DB the reminder queue lives in; used for health pings.
	QueueClient *redis.Client
)

func newRedisClient(db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
}

// InitRedis connects every Redis client the application uses.
func InitRedis() {
	OTPCacheClient = newRedisClient(config.AppConfig.RedisOTPDB)
	QueueClient = newRedisClient(config.AppConfig.RedisQueueDB)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := OTPCacheClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis (OTP): %v", err)
	}
	if err := QueueClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis (Queue): %v", err)
	}
}

// GetOTPCacheClient returns the Redis client for OTP storage.
func GetOTPCacheClient() *redis.Client {
	if OTPCacheClient == nil {
		InitRedis()
	}
	return OTPCacheClient
}

// RedisClients lists the initialized clients, for health checks.
func RedisClients() []*redis.Client {
	var out []*redis.Client
	for _, c := range []*redis.Client{OTPCacheClient, QueueClient} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
