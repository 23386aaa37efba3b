package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDemoExpiredAt(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("non-demo accounts never expire", func(t *testing.T) {
		u := User{IsDemo: false, CreatedAt: createdAt}
		require.False(t, u.DemoExpiredAt(createdAt.Add(100*365*24*time.Hour)))
		require.True(t, u.DemoDeadline().IsZero())
	})

	t.Run("active inside the window", func(t *testing.T) {
		u := User{IsDemo: true, DemoHours: 24, CreatedAt: createdAt}
		require.False(t, u.DemoExpiredAt(createdAt))
		require.False(t, u.DemoExpiredAt(createdAt.Add(24*time.Hour-time.Second)))
	})

	t.Run("the deadline itself counts as expired", func(t *testing.T) {
		u := User{IsDemo: true, DemoHours: 24, CreatedAt: createdAt}
		require.True(t, u.DemoExpiredAt(createdAt.Add(24*time.Hour)))
		require.True(t, u.DemoExpiredAt(createdAt.Add(25*time.Hour)))
	})

	t.Run("missing demo hours fall back to the default", func(t *testing.T) {
		u := User{IsDemo: true, CreatedAt: createdAt}
		require.Equal(t, createdAt.Add(DefaultDemoHours*time.Hour), u.DemoDeadline())
	})

	t.Run("custom window", func(t *testing.T) {
		u := User{IsDemo: true, DemoHours: 2, CreatedAt: createdAt}
		require.False(t, u.DemoExpiredAt(createdAt.Add(119*time.Minute)))
		require.True(t, u.DemoExpiredAt(createdAt.Add(2*time.Hour)))
	})
}

func TestRoleValid(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleAdmin, RoleStudent, RoleManager, RoleSeller} {
		require.True(t, r.Valid())
	}
	require.False(t, Role("superuser").Valid())
	require.False(t, Role("").Valid())
}
