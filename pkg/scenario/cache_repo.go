// 文件: pkg/scenario/cache_repo.go
// 场景缓存层 (Redis 读穿透)

package scenario

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// mc:scenario:{name}
	scenarioKeyPrefix = "mc:scenario:"

	DefaultCacheTTL = 10 * time.Minute
)

func scenarioKey(name string) string {
	return scenarioKeyPrefix + name
}

// CachedRepo 在任意 Repository 前加一层 Redis
type CachedRepo struct {
	inner Repository
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedRepo 创建缓存仓库，ttl <= 0 时用默认值
func NewCachedRepo(inner Repository, rdb *redis.Client, ttl time.Duration) *CachedRepo {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepo{inner: inner, redis: rdb, ttl: ttl}
}

// Get 先查 Redis，未命中再查底层仓库并回填
func (r *CachedRepo) Get(ctx context.Context, name string) (*Scenario, error) {
	key := scenarioKey(name)

	// 1. 查 Redis
	data, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var s Scenario
		if json.Unmarshal(data, &s) == nil {
			return &s, nil
		}
	} else if err != redis.Nil {
		log.Printf("[ScenarioCache] redis get %s: %v", key, err)
	}

	// 2. 查底层
	s, err := r.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	// 3. 回填
	r.cache(ctx, s)
	return s, nil
}

// Save 写底层仓库后删除缓存
func (r *CachedRepo) Save(ctx context.Context, s *Scenario) error {
	if err := r.inner.Save(ctx, s); err != nil {
		return err
	}
	if err := r.redis.Del(ctx, scenarioKey(s.Name)).Err(); err != nil {
		log.Printf("[ScenarioCache] redis del %s: %v", s.Name, err)
	}
	return nil
}

// List 不走缓存
func (r *CachedRepo) List(ctx context.Context) ([]Scenario, error) {
	return r.inner.List(ctx)
}

func (r *CachedRepo) cache(ctx context.Context, s *Scenario) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, scenarioKey(s.Name), data, r.ttl).Err(); err != nil {
		log.Printf("[ScenarioCache] redis set %s: %v", s.Name, err)
	}
}
