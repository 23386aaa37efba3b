package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store/drivers/sqlite"
	"github.com/JorgeIteq1000/turma-digital/pkg/cryptox"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
	"github.com/JorgeIteq1000/turma-digital/pkg/jwtx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSessionService(t *testing.T, st store.Store) *SessionService {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	return &SessionService{
		Store:  st,
		Signer: jwtx.NewSigner("test-secret", "turma-digital-test", time.Hour),
		Logger: logger,
		Roles:  &RoleResolver{Store: st, Logger: logger},
	}
}

func seedUser(t *testing.T, st store.Store, email, password string, role domain.Role, demo bool, demoHours int, createdAt time.Time) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FullName:     "Test User",
		PasswordHash: hash,
		IsDemo:       demo,
		DemoHours:    demoHours,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	ctx := context.Background()
	require.NoError(t, st.Users().CreateUser(ctx, u))
	require.NoError(t, st.Roles().SetRole(ctx, u.ID, role))
	return u
}

func TestSessionLogin(t *testing.T) {
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	ctx := context.Background()

	t.Run("valid credentials issue a verifiable token", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		user := seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		result, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)
		require.Equal(t, user.ID, result.User.ID)
		require.Equal(t, domain.RoleStudent, result.Role)

		claims, err := svc.Signer.Verify(result.Token)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.Subject)
		require.Equal(t, result.Session.ID, claims.SessionID)

		sess, err := svc.Probe(ctx, result.Session.ID)
		require.NoError(t, err)
		require.Equal(t, user.ID, sess.UserID)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		_, err := svc.Login(ctx, "ana@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email is rejected the same way", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)

		_, err := svc.Login(ctx, "nobody@example.com", "whatever")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("expired demo account cannot log back in", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		seedUser(t, st, "demo@example.com", "s3cret-pw", domain.RoleStudent,
			true, 24, time.Now().UTC().Add(-25*time.Hour))

		_, err := svc.Login(ctx, "demo@example.com", "s3cret-pw")
		require.ErrorIs(t, err, ErrDemoExpired)
	})

	t.Run("demo account inside its window logs in", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		seedUser(t, st, "demo@example.com", "s3cret-pw", domain.RoleStudent,
			true, 24, time.Now().UTC().Add(-1*time.Hour))

		_, err := svc.Login(ctx, "demo@example.com", "s3cret-pw")
		require.NoError(t, err)
	})
}

func TestSessionLifecycle(t *testing.T) {
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	ctx := context.Background()

	t.Run("logout revokes the session and probes fail afterwards", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		result, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, result.Session.ID))

		_, err = svc.Probe(ctx, result.Session.ID)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("sign-out of a user kills every session", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		user := seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		first, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)
		second, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)

		require.NoError(t, svc.SignOutUser(ctx, user.ID))

		_, err = svc.Probe(ctx, first.Session.ID)
		require.ErrorIs(t, err, ErrNoSession)
		_, err = svc.Probe(ctx, second.Session.ID)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("probe of an unknown session id fails", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)

		_, err := svc.Probe(ctx, "no-such-session")
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("subscribers see sign-in and sign-out in order", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		user := seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		events, cancel := svc.Subscribe()
		defer cancel()

		result, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)
		require.NoError(t, svc.Logout(ctx, result.Session.ID))

		ev := <-events
		require.Equal(t, SessionSignedIn, ev.Type)
		require.Equal(t, user.ID, ev.UserID)

		ev = <-events
		require.Equal(t, SessionSignedOut, ev.Type)
		require.Equal(t, result.Session.ID, ev.SessionID)
	})

	t.Run("a backlogged subscriber still sees the newest event", func(t *testing.T) {
		svc := &SessionService{Logger: slog.New(slog.DiscardHandler)}

		events, cancel := svc.Subscribe()
		defer cancel()

		for i := 0; i < sessionEventBuffer+8; i++ {
			svc.publish(SessionEvent{Type: SessionSignedIn, UserID: "user-1"})
		}
		svc.publish(SessionEvent{Type: SessionSignedOut, UserID: "user-1"})

		var last SessionEvent
		for {
			select {
			case ev := <-events:
				last = ev
				continue
			default:
			}
			break
		}
		require.Equal(t, SessionSignedOut, last.Type)
		require.Equal(t, "user-1", last.UserID)
	})

	t.Run("cancelled subscribers stop receiving", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTestSessionService(t, st)
		seedUser(t, st, "ana@example.com", "s3cret-pw", domain.RoleStudent, false, 0, time.Now().UTC())

		events, cancel := svc.Subscribe()
		cancel()

		_, err := svc.Login(ctx, "ana@example.com", "s3cret-pw")
		require.NoError(t, err)

		_, open := <-events
		require.False(t, open)
	})
}
