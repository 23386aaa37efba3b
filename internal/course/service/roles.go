package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
)

// DefaultRoleCacheTTL bounds how stale a cached role may get. Role changes
// take effect within this window without an explicit invalidation.
const DefaultRoleCacheTTL = 5 * time.Minute

// RoleResolver answers "what role does this user hold" with a short-lived
// cache in front of the store. Redis is optional; with a nil client every
// lookup goes straight to the store.
//
// Resolve never fails: any lookup error degrades to the most restrictive
// role, so a backend hiccup can narrow access but never widen it.
type RoleResolver struct {
	Store  store.Store
	Cache  *redis.Client
	Logger *slog.Logger
	TTL    time.Duration
}

func roleCacheKey(userID string) string { return "role:" + userID }

func (r *RoleResolver) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return DefaultRoleCacheTTL
}

// Resolve returns the user's role, or domain.FallbackRole when the lookup
// fails or yields an unknown value.
func (r *RoleResolver) Resolve(ctx context.Context, userID string) domain.Role {
	if userID == "" {
		return domain.FallbackRole
	}

	if r.Cache != nil {
		cached, err := r.Cache.Get(ctx, roleCacheKey(userID)).Result()
		if err == nil {
			if role := domain.Role(cached); role.Valid() {
				return role
			}
		} else if err != redis.Nil {
			r.Logger.Warn("role cache read failed", "user_id", userID, "error", err)
		}
	}

	role, err := r.Store.Roles().GetRoleByUserID(ctx, userID)
	if err != nil || !role.Valid() {
		if err != nil {
			r.Logger.Warn("role lookup failed, using fallback",
				"user_id", userID, "fallback", domain.FallbackRole, "error", err)
		}
		return domain.FallbackRole
	}

	if r.Cache != nil {
		if err := r.Cache.Set(ctx, roleCacheKey(userID), string(role), r.ttl()).Err(); err != nil {
			r.Logger.Warn("role cache write failed", "user_id", userID, "error", err)
		}
	}
	return role
}

// Invalidate drops the cached role after an admin changes it.
func (r *RoleResolver) Invalidate(ctx context.Context, userID string) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Del(ctx, roleCacheKey(userID)).Err(); err != nil {
		r.Logger.Warn("role cache invalidation failed", "user_id", userID, "error", err)
	}
}
