package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/premhagargi/Kollab/domain"
	"github.com/premhagargi/Kollab/session"
)

// ProfileCache wraps a Remote with Redis-backed caching for user profile
// lookups. All other Remote operations pass straight through.
type ProfileCache struct {
	session.Remote
	redis *redis.Client
	ttl   time.Duration
}

// NewProfileCache creates a caching Remote wrapper using the provided Redis
// client and TTL.
func NewProfileCache(base session.Remote, client *redis.Client, ttl time.Duration) *ProfileCache {
	if base == nil {
		panic("storage.NewProfileCache: base remote is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &ProfileCache{
		Remote: base,
		redis:  client,
		ttl:    ttl,
	}
}

func (c *ProfileCache) FetchUsersByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error) {
	users := make([]domain.UserProfile, 0, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if profile, ok := c.loadProfileFromCache(ctx, id); ok {
			users = append(users, profile)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return users, nil
	}

	fetched, err := c.Remote.FetchUsersByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, profile := range fetched {
		c.storeProfile(ctx, profile)
		users = append(users, profile)
	}
	return users, nil
}

func (c *ProfileCache) loadProfileFromCache(ctx context.Context, id string) (domain.UserProfile, bool) {
	if c.redis == nil {
		return domain.UserProfile{}, false
	}
	data, err := c.redis.Get(ctx, profileCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing remote without failing.
			_ = c.redis.Del(ctx, profileCacheKey(id)).Err()
		}
		return domain.UserProfile{}, false
	}
	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		_ = c.redis.Del(ctx, profileCacheKey(id)).Err()
		return domain.UserProfile{}, false
	}
	return profile, true
}

func (c *ProfileCache) storeProfile(ctx context.Context, profile domain.UserProfile) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, profileCacheKey(profile.ID), data, c.ttl).Err()
}

func profileCacheKey(id string) string {
	return "profile:" + id
}
