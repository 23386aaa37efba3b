package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

// GateState is where a mounted access gate currently stands for its
// principal. The denied states are ordered by precedence: a missing session
// wins over an expired demo, which wins over a role mismatch.
type GateState string

const (
	GateChecking        GateState = "checking"
	GateDeniedNoSession GateState = "denied_no_session"
	GateDeniedExpired   GateState = "denied_expired"
	GateDeniedWrongRole GateState = "denied_wrong_role"
	GateGranted         GateState = "granted"
)

// Redirect is where a denied principal should be sent.
type Redirect string

const (
	RedirectNone    Redirect = ""
	RedirectLogin   Redirect = "/login"
	RedirectAdmin   Redirect = "/admin"
	RedirectStudent Redirect = "/dashboard"
)

// RoleHome maps a role to its landing page.
func RoleHome(role domain.Role) Redirect {
	if role == domain.RoleAdmin {
		return RedirectAdmin
	}
	return RedirectStudent
}

// Decision is the gate's current answer. Role is only meaningful once the
// gate has moved past Checking and found a session.
type Decision struct {
	State    GateState
	Role     domain.Role
	Redirect Redirect
}

// GateBackend is the narrow surface the gate needs. SessionService and
// RoleResolver together satisfy it in production; tests supply fakes.
type GateBackend interface {
	// ProbeSession returns the principal's current session or ErrNoSession.
	ProbeSession(ctx context.Context) (domain.Session, error)

	// SubscribeSessions registers for session change events; the cancel
	// func unsubscribes.
	SubscribeSessions() (<-chan SessionEvent, func())

	// ResolveRole returns the user's role, falling back restrictively on
	// failure (it does not error).
	ResolveRole(ctx context.Context, userID string) domain.Role

	// LookupProfile returns the account profile for demo-expiry checks.
	LookupProfile(ctx context.Context, userID string) (domain.User, error)

	// SignOut force-revokes all of the user's sessions.
	SignOut(ctx context.Context, userID string) error
}

// DefaultLookupTimeout bounds each backend round trip during evaluation. A
// timed-out lookup is treated like a failed one.
const DefaultLookupTimeout = 5 * time.Second

// GateConfig configures a Gate.
type GateConfig struct {
	Backend GateBackend
	Logger  *slog.Logger

	// RequiredRole gates access to role-specific areas. Empty means any
	// authenticated, non-expired principal passes.
	RequiredRole domain.Role

	// AdminOverride lets admins pass any RequiredRole check.
	AdminOverride bool

	// LookupTimeout bounds backend lookups; zero uses DefaultLookupTimeout.
	LookupTimeout time.Duration

	// OnChange is called with each decision the gate settles on, in order.
	OnChange func(Decision)

	// OnExpired is called once per evaluation that detects demo expiry,
	// after the forced sign-out. Hook for the UI notice.
	OnExpired func(userID string)

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Gate evaluates access for one mounted principal and re-evaluates whenever
// the session changes. Evaluations run asynchronously; a generation counter
// makes the latest evaluation win, so a slow lookup that started before a
// sign-out can never resurrect access.
type Gate struct {
	cfg GateConfig

	mu       sync.Mutex
	mounted  bool
	gen      uint64
	decision Decision

	// dispatch serializes decision installs with their OnChange delivery so
	// callbacks always arrive in the order decisions settle.
	dispatch sync.Mutex

	unsubscribe func()
	loopDone    chan struct{}
	evals       sync.WaitGroup
}

func NewGate(cfg GateConfig) *Gate {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Gate{cfg: cfg, decision: Decision{State: GateChecking}}
}

// Mount subscribes to session changes and kicks off the first evaluation.
// Mounting an already mounted gate is a no-op.
func (g *Gate) Mount() {
	g.mu.Lock()
	if g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = true
	g.decision = Decision{State: GateChecking}

	events, cancel := g.cfg.Backend.SubscribeSessions()
	g.unsubscribe = cancel
	g.loopDone = make(chan struct{})
	g.mu.Unlock()

	go g.eventLoop(events)
	g.refresh()
}

// Unmount unsubscribes and discards any in-flight evaluation. It blocks
// until the event loop and pending evaluations have finished.
func (g *Gate) Unmount() {
	g.mu.Lock()
	if !g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = false
	g.gen++ // orphan anything still in flight
	cancel := g.unsubscribe
	done := g.loopDone
	g.unsubscribe = nil
	g.mu.Unlock()

	cancel()
	<-done
	g.evals.Wait()
}

// Decision returns the gate's current decision.
func (g *Gate) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

func (g *Gate) eventLoop(events <-chan SessionEvent) {
	defer close(g.loopDone)
	for range events {
		g.refresh()
	}
}

// refresh starts a new evaluation generation. The decision flips back to
// Checking synchronously; the outcome lands when the lookups return, unless
// a newer generation has started in the meantime.
func (g *Gate) refresh() {
	g.mu.Lock()
	if !g.mounted {
		g.mu.Unlock()
		return
	}
	g.gen++
	gen := g.gen
	g.setDecisionLocked(Decision{State: GateChecking})
	g.mu.Unlock()

	g.evals.Add(1)
	go func() {
		defer g.evals.Done()
		d, expiredUser := g.evaluate()
		g.apply(gen, d, expiredUser)
	}()
}

// evaluate runs the lookups and computes a decision. It returns the user id
// whose demo window was found expired, if any, so apply can run the forced
// sign-out only when the decision is still current.
func (g *Gate) evaluate() (Decision, string) {
	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.LookupTimeout)
	defer cancel()

	now := g.cfg.Now()

	sess, err := g.cfg.Backend.ProbeSession(ctx)
	if err != nil {
		return Decision{State: GateDeniedNoSession, Redirect: RedirectLogin}, ""
	}

	role := g.cfg.Backend.ResolveRole(ctx, sess.UserID)

	// Expiry outranks role. A failed profile lookup cannot prove expiry,
	// so the account is treated as non-demo for this evaluation.
	user, err := g.cfg.Backend.LookupProfile(ctx, sess.UserID)
	if err != nil {
		g.cfg.Logger.Warn("profile lookup failed, skipping demo expiry check",
			"user_id", sess.UserID, "error", err)
	} else if user.DemoExpiredAt(now) {
		return Decision{State: GateDeniedExpired, Role: role, Redirect: RedirectLogin}, sess.UserID
	}

	if !g.roleAllowed(role) {
		return Decision{State: GateDeniedWrongRole, Role: role, Redirect: RoleHome(role)}, ""
	}
	return Decision{State: GateGranted, Role: role}, ""
}

func (g *Gate) roleAllowed(role domain.Role) bool {
	required := g.cfg.RequiredRole
	if required == "" || role == required {
		return true
	}
	return g.cfg.AdminOverride && role == domain.RoleAdmin
}

// apply installs a decision if its generation is still current, then runs
// side effects. Stale generations are dropped on the floor. The dispatch
// lock is held across install and callback so two racing applies cannot
// deliver OnChange out of install order.
func (g *Gate) apply(gen uint64, d Decision, expiredUser string) {
	g.dispatch.Lock()
	defer g.dispatch.Unlock()

	g.mu.Lock()
	if !g.mounted || gen != g.gen {
		g.mu.Unlock()
		return
	}
	g.setDecisionLocked(d)
	g.mu.Unlock()

	if expiredUser != "" {
		ctx, cancel := context.WithTimeout(context.Background(), g.cfg.LookupTimeout)
		if err := g.cfg.Backend.SignOut(ctx, expiredUser); err != nil {
			g.cfg.Logger.Error("forced sign-out failed", "user_id", expiredUser, "error", err)
		}
		cancel()
		if g.cfg.OnExpired != nil {
			g.cfg.OnExpired(expiredUser)
		}
	}

	if g.cfg.OnChange != nil {
		g.cfg.OnChange(d)
	}
}

func (g *Gate) setDecisionLocked(d Decision) {
	g.decision = d
}
