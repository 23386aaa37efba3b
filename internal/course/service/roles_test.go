package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
)

func TestRoleResolver(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("resolves the stored role", func(t *testing.T) {
		st := newTestStore(t)
		now := time.Now().UTC()
		u := domain.User{ID: idx.New().String(), Email: "a@b.c", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, st.Users().CreateUser(ctx, u))
		require.NoError(t, st.Roles().SetRole(ctx, u.ID, domain.RoleAdmin))

		r := &RoleResolver{Store: st, Logger: logger}
		require.Equal(t, domain.RoleAdmin, r.Resolve(ctx, u.ID))
	})

	t.Run("missing binding falls back to student", func(t *testing.T) {
		st := newTestStore(t)
		r := &RoleResolver{Store: st, Logger: logger}
		require.Equal(t, domain.FallbackRole, r.Resolve(ctx, "unknown-user"))
	})

	t.Run("backend failure falls back to student, never admin", func(t *testing.T) {
		st := newTestStore(t)
		now := time.Now().UTC()
		u := domain.User{ID: idx.New().String(), Email: "a@b.c", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, st.Users().CreateUser(ctx, u))
		require.NoError(t, st.Roles().SetRole(ctx, u.ID, domain.RoleAdmin))
		require.NoError(t, st.Close())

		r := &RoleResolver{Store: st, Logger: logger}
		require.Equal(t, domain.FallbackRole, r.Resolve(ctx, u.ID))
	})

	t.Run("empty user id is the fallback without a lookup", func(t *testing.T) {
		r := &RoleResolver{Logger: logger}
		require.Equal(t, domain.FallbackRole, r.Resolve(ctx, ""))
	})
}
