package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type fakeGateBackend struct {
	mu         sync.Mutex
	session    domain.Session
	sessionErr error
	role       domain.Role
	profile    domain.User
	profileErr error
	signOuts   []string

	events       chan SessionEvent
	unsubOnce    sync.Once
	unsubscribed bool

	probeCalls int
	holdProbe  chan struct{} // first probe blocks on this when set
}

func newFakeGateBackend() *fakeGateBackend {
	return &fakeGateBackend{
		role:   domain.RoleStudent,
		events: make(chan SessionEvent, 16),
	}
}

func (f *fakeGateBackend) ProbeSession(ctx context.Context) (domain.Session, error) {
	f.mu.Lock()
	f.probeCalls++
	first := f.probeCalls == 1
	hold := f.holdProbe
	sess, err := f.session, f.sessionErr
	f.mu.Unlock()

	// The blocked probe answers with the state it read on entry, like a
	// response that was already on the wire when things changed.
	if first && hold != nil {
		<-hold
	}
	if err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func (f *fakeGateBackend) SubscribeSessions() (<-chan SessionEvent, func()) {
	return f.events, func() {
		f.unsubOnce.Do(func() {
			f.mu.Lock()
			f.unsubscribed = true
			f.mu.Unlock()
			close(f.events)
		})
	}
}

func (f *fakeGateBackend) ResolveRole(ctx context.Context, userID string) domain.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role
}

func (f *fakeGateBackend) LookupProfile(ctx context.Context, userID string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, f.profileErr
}

func (f *fakeGateBackend) SignOut(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts = append(f.signOuts, userID)
	return nil
}

func (f *fakeGateBackend) setSession(sess domain.Session, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session, f.sessionErr = sess, err
}

func activeSession(userID string) domain.Session {
	return domain.Session{
		ID:        "sess-1",
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func waitDecision(t *testing.T, ch <-chan Decision) Decision {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for gate decision")
		return Decision{}
	}
}

func testGate(backend GateBackend, cfg GateConfig) (*Gate, chan Decision) {
	decisions := make(chan Decision, 16)
	cfg.Backend = backend
	cfg.Logger = slog.New(slog.DiscardHandler)
	cfg.OnChange = func(d Decision) { decisions <- d }
	return NewGate(cfg), decisions
}

func TestGateStates(t *testing.T) {
	t.Parallel()

	t.Run("starts at checking before the first evaluation lands", func(t *testing.T) {
		backend := newFakeGateBackend()
		gate, _ := testGate(backend, GateConfig{})
		require.Equal(t, GateChecking, gate.Decision().State)
	})

	t.Run("no session denies with login redirect", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(domain.Session{}, ErrNoSession)

		gate, decisions := testGate(backend, GateConfig{})
		gate.Mount()
		defer gate.Unmount()

		d := waitDecision(t, decisions)
		require.Equal(t, GateDeniedNoSession, d.State)
		require.Equal(t, RedirectLogin, d.Redirect)
	})

	t.Run("matching role is granted", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)

		gate, decisions := testGate(backend, GateConfig{RequiredRole: domain.RoleStudent})
		gate.Mount()
		defer gate.Unmount()

		d := waitDecision(t, decisions)
		require.Equal(t, GateGranted, d.State)
		require.Equal(t, domain.RoleStudent, d.Role)
		require.Equal(t, RedirectNone, d.Redirect)
	})

	t.Run("no required role grants any authenticated user", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)

		gate, decisions := testGate(backend, GateConfig{})
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateGranted, waitDecision(t, decisions).State)
	})

	t.Run("wrong role denies with the role's own home as redirect", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)
		backend.role = domain.RoleStudent

		gate, decisions := testGate(backend, GateConfig{RequiredRole: domain.RoleAdmin})
		gate.Mount()
		defer gate.Unmount()

		d := waitDecision(t, decisions)
		require.Equal(t, GateDeniedWrongRole, d.State)
		require.Equal(t, RedirectStudent, d.Redirect)
		require.Empty(t, backend.signOuts)
	})

	t.Run("admin override passes any required role", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("admin-1"), nil)
		backend.role = domain.RoleAdmin

		gate, decisions := testGate(backend, GateConfig{
			RequiredRole:  domain.RoleManager,
			AdminOverride: true,
		})
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateGranted, waitDecision(t, decisions).State)
	})

	t.Run("without override an admin is just a wrong role", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("admin-1"), nil)
		backend.role = domain.RoleAdmin

		gate, decisions := testGate(backend, GateConfig{RequiredRole: domain.RoleManager})
		gate.Mount()
		defer gate.Unmount()

		d := waitDecision(t, decisions)
		require.Equal(t, GateDeniedWrongRole, d.State)
		require.Equal(t, RedirectAdmin, d.Redirect)
	})
}

func TestGateDemoExpiry(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	demoUser := domain.User{
		ID:        "user-1",
		IsDemo:    true,
		DemoHours: 24,
		CreatedAt: created,
	}

	t.Run("expiry denies, signs out, and fires the hook", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)
		backend.profile = demoUser

		var expired []string
		gate, decisions := testGate(backend, GateConfig{
			Now:       func() time.Time { return created.Add(25 * time.Hour) },
			OnExpired: func(userID string) { expired = append(expired, userID) },
		})
		gate.Mount()

		d := waitDecision(t, decisions)
		require.Equal(t, GateDeniedExpired, d.State)
		require.Equal(t, RedirectLogin, d.Redirect)

		gate.Unmount()
		require.Equal(t, []string{"user-1"}, expired)
		require.Contains(t, backend.signOuts, "user-1")
	})

	t.Run("the deadline instant itself counts as expired", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)
		backend.profile = demoUser

		gate, decisions := testGate(backend, GateConfig{
			Now: func() time.Time { return created.Add(24 * time.Hour) },
		})
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateDeniedExpired, waitDecision(t, decisions).State)
	})

	t.Run("one second before the deadline is still granted", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)
		backend.profile = demoUser

		gate, decisions := testGate(backend, GateConfig{
			Now: func() time.Time { return created.Add(24*time.Hour - time.Second) },
		})
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateGranted, waitDecision(t, decisions).State)
	})

	t.Run("non-demo accounts never expire no matter how old", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)
		backend.profile = domain.User{ID: "user-1", CreatedAt: created.Add(-10 * 365 * 24 * time.Hour)}

		gate, decisions := testGate(backend, GateConfig{
			Now: time.Now,
		})
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateGranted, waitDecision(t, decisions).State)
		require.Empty(t, backend.signOuts)
	})

	t.Run("profile lookup failure is treated as non-demo", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)
		backend.profileErr = context.DeadlineExceeded

		gate, decisions := testGate(backend, GateConfig{})
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateGranted, waitDecision(t, decisions).State)
		require.Empty(t, backend.signOuts)
	})
}

func TestGateReEvaluation(t *testing.T) {
	t.Parallel()

	t.Run("granted is not terminal, a sign-out event re-denies", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)

		gate, decisions := testGate(backend, GateConfig{})
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateGranted, waitDecision(t, decisions).State)

		backend.setSession(domain.Session{}, ErrNoSession)
		backend.events <- SessionEvent{Type: SessionSignedOut, UserID: "user-1"}

		require.Equal(t, GateDeniedNoSession, waitDecision(t, decisions).State)
	})

	t.Run("a stale in-flight evaluation never overwrites a newer one", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)
		backend.holdProbe = make(chan struct{})

		gate, decisions := testGate(backend, GateConfig{})
		gate.Mount()

		// First evaluation is stuck probing. A sign-out lands meanwhile
		// and a second evaluation denies.
		backend.setSession(domain.Session{}, ErrNoSession)
		backend.events <- SessionEvent{Type: SessionSignedOut, UserID: "user-1"}
		require.Equal(t, GateDeniedNoSession, waitDecision(t, decisions).State)

		// Unstick the first evaluation and let everything drain. Its
		// result belongs to a dead generation and must be dropped.
		close(backend.holdProbe)
		gate.Unmount()

		require.Equal(t, GateDeniedNoSession, gate.Decision().State)
		select {
		case d := <-decisions:
			t.Fatalf("stale evaluation leaked a decision: %+v", d)
		default:
		}
	})

	t.Run("unmount unsubscribes", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)

		gate, decisions := testGate(backend, GateConfig{})
		gate.Mount()
		require.Equal(t, GateGranted, waitDecision(t, decisions).State)

		gate.Unmount()

		backend.mu.Lock()
		defer backend.mu.Unlock()
		require.True(t, backend.unsubscribed)
	})

	t.Run("a burst of session flips delivers the final decision last", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)

		decisions := make(chan Decision, 128)
		gate := NewGate(GateConfig{
			Backend:  backend,
			Logger:   slog.New(slog.DiscardHandler),
			OnChange: func(d Decision) { decisions <- d },
		})
		gate.Mount()

		for i := 0; i < 25; i++ {
			if i%2 == 0 {
				backend.setSession(domain.Session{}, ErrNoSession)
			} else {
				backend.setSession(activeSession("user-1"), nil)
			}
			backend.events <- SessionEvent{Type: SessionSignedOut, UserID: "user-1"}
		}

		// The closing state is the only one granting the manager role, so
		// its decision is unambiguous in the stream.
		backend.setSession(activeSession("user-1"), nil)
		backend.mu.Lock()
		backend.role = domain.RoleManager
		backend.mu.Unlock()
		backend.events <- SessionEvent{Type: SessionSignedIn, UserID: "user-1"}

		deadline := time.After(2 * time.Second)
		var last Decision
		for last.Role != domain.RoleManager {
			select {
			case last = <-decisions:
			case <-deadline:
				t.Fatal("timed out waiting for the closing decision")
			}
		}
		gate.Unmount()

		require.Equal(t, GateGranted, last.State)
		require.Equal(t, last, gate.Decision())
		select {
		case d := <-decisions:
			t.Fatalf("callback delivered after the closing decision: %+v", d)
		default:
		}
	})

	t.Run("mount twice is a no-op", func(t *testing.T) {
		backend := newFakeGateBackend()
		backend.setSession(activeSession("user-1"), nil)

		gate, decisions := testGate(backend, GateConfig{})
		gate.Mount()
		gate.Mount()
		defer gate.Unmount()

		require.Equal(t, GateGranted, waitDecision(t, decisions).State)
	})
}
