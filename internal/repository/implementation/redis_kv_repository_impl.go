package implementation

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "docqa:"

// RedisKVRepository is the alternative durable layer for setups that
// already run a local Redis. Same silent-failure contract as the file
// implementation.
type RedisKVRepository struct {
	rdb *redis.Client
}

func NewRedisKVRepository(rdb *redis.Client) *RedisKVRepository {
	return &RedisKVRepository{
		rdb: rdb,
	}
}

func (r *RedisKVRepository) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *RedisKVRepository) Set(ctx context.Context, key string, value string) bool {
	return r.rdb.Set(ctx, redisKeyPrefix+key, value, 0).Err() == nil
}

func (r *RedisKVRepository) Delete(ctx context.Context, key string) {
	_ = r.rdb.Del(ctx, redisKeyPrefix+key).Err()
}
