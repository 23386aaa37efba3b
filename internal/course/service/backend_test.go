package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/cryptox"
)

func principalBackend(st store.Store, svc *SessionService, sessionID string) *PrincipalBackend {
	return &PrincipalBackend{
		Sessions:  svc,
		Roles:     svc.Roles,
		Users:     st.Users(),
		SessionID: sessionID,
	}
}

// TestGateWithPrincipalBackend runs the gate against the real session
// service and store instead of a fake, so the forced sign-out and the event
// subscription are exercised end to end.
func TestGateWithPrincipalBackend(t *testing.T) {
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	ctx := context.Background()

	t.Run("login then mount grants", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		result, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)

		gate, decisions := testGate(principalBackend(st, svc, result.Session.ID), GateConfig{})
		gate.Mount()
		defer gate.Unmount()

		d := waitDecision(t, decisions)
		require.Equal(t, GateGranted, d.State)
		require.Equal(t, domain.RoleStudent, d.Role)
	})

	t.Run("wrong role denies against the stored role", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		result, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)

		gate, decisions := testGate(principalBackend(st, svc, result.Session.ID), GateConfig{
			RequiredRole: domain.RoleAdmin,
		})
		gate.Mount()
		defer gate.Unmount()

		d := waitDecision(t, decisions)
		require.Equal(t, GateDeniedWrongRole, d.State)
		require.Equal(t, RedirectStudent, d.Redirect)
	})

	t.Run("demo expiry revokes the real session row", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		created := time.Now().UTC()
		user := seedUser(t, st, "demo@example.com", "s3cret-pw", domain.RoleStudent, true, 24, created)

		// Log in inside the demo window, then evaluate with the clock pushed
		// past the deadline.
		result, err := svc.Login(ctx, "demo@example.com", "s3cret-pw")
		require.NoError(t, err)

		var expired []string
		gate, decisions := testGate(principalBackend(st, svc, result.Session.ID), GateConfig{
			Now:       func() time.Time { return created.Add(25 * time.Hour) },
			OnExpired: func(userID string) { expired = append(expired, userID) },
		})
		gate.Mount()

		d := waitDecision(t, decisions)
		require.Equal(t, GateDeniedExpired, d.State)
		require.Equal(t, RedirectLogin, d.Redirect)

		gate.Unmount()
		require.Equal(t, []string{user.ID}, expired)

		// The forced sign-out must have gone through the session service and
		// revoked the stored session, not just flipped the gate.
		_, err = svc.Probe(ctx, result.Session.ID)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("an external sign-out re-denies through the subscription", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		user := seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		result, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)

		gate, decisions := testGate(principalBackend(st, svc, result.Session.ID), GateConfig{})
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateGranted, waitDecision(t, decisions).State)

		require.NoError(t, svc.SignOutUser(ctx, user.ID))

		d := waitDecision(t, decisions)
		require.Equal(t, GateDeniedNoSession, d.State)
		require.Equal(t, RedirectLogin, d.Redirect)
	})
}
