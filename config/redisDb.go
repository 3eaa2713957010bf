package config

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis is optional infrastructure: the report cache and the cross-instance
// receipt lock degrade gracefully when REDIS_ADDRESS is unset or the server
// is unreachable. Correctness never depends on it (see workflow package).
type RedisStore struct {
	Client *redis.Client
	Locker *redislock.Client
}

// ConnectRedis returns nil when redis is not configured.
func ConnectRedis() *RedisStore {
	address := strings.TrimSpace(os.Getenv("REDIS_ADDRESS"))
	if address == "" {
		log.Printf("REDIS_ADDRESS not set; running without redis")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable (%s): %v; running without redis", address, err)
		return nil
	}

	return &RedisStore{
		Client: client,
		Locker: redislock.New(client),
	}
}

func (r *RedisStore) GetObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if r == nil || r.Client == nil {
		return false, nil
	}
	val, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisStore) SetObject(ctx context.Context, key string, obj any, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}
