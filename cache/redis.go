package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisCache stores session and round-aggregate state in Redis.
type RedisCache struct {
	rdclient *redis.Client
}

func NewRedisCache(redisURL string, redisPW string, redisDB int) (*RedisCache, error) {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	if err := rdclient.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Unable to reach redis at %s", redisURL))
	}
	return &RedisCache{rdclient: rdclient}, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "Unable to marshal cache value")
	}
	return r.rdclient.Set(ctx, key, data, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.rdclient.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, errors.Wrap(err, fmt.Sprintf("Unable to unmarshal cache value for key %s", key))
	}
	return true, nil
}

func (r *RedisCache) Del(ctx context.Context, key string) error {
	return r.rdclient.Del(ctx, key).Err()
}

func (r *RedisCache) Close() error {
	return r.rdclient.Close()
}
