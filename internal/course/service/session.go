package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/cryptox"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
	"github.com/JorgeIteq1000/turma-digital/pkg/jwtx"
)

var (
	ErrInvalidCredentials = errors.New("session: invalid credentials")
	ErrNoSession          = errors.New("session: no active session")
	ErrDemoExpired        = errors.New("session: demo access expired")
)

// SessionEventType marks what happened to a session.
type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionSignedOut SessionEventType = "signed_out"
)

// SessionEvent is broadcast to subscribers whenever a session is created or
// torn down, so access gates can re-evaluate without polling.
type SessionEvent struct {
	Type      SessionEventType
	UserID    string
	SessionID string
}

// subscriber channels are buffered; when a subscriber falls this far behind,
// the oldest queued event is shed to make room for the newest.
const sessionEventBuffer = 16

// SessionService owns login sessions: issuing tokens, probing, revocation,
// and broadcasting session changes to subscribers.
type SessionService struct {
	Store  store.Store
	Signer *jwtx.Signer
	Logger *slog.Logger
	Roles  *RoleResolver

	mu     sync.Mutex
	subs   map[int]chan SessionEvent
	nextID int
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	User    domain.User
	Role    domain.Role
	Token   string
	Session domain.Session
}

// Login verifies credentials and issues a session token. Expired demo
// accounts are refused outright, the same as the forced sign-out path.
func (s *SessionService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a verification anyway so missing accounts cost the
			// same as wrong passwords.
			_ = cryptox.VerifyPassword(password, dummyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if user.DemoExpiredAt(now) {
		if err := s.Store.Sessions().RevokeAllUserSessions(ctx, user.ID); err != nil {
			s.Logger.Warn("revoke sessions for expired demo", "user_id", user.ID, "error", err)
		}
		return LoginResult{}, ErrDemoExpired
	}

	role := s.Roles.Resolve(ctx, user.ID)

	sessionID := idx.New().String()
	token, err := s.Signer.Sign(user.ID, string(role), sessionID, now)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	sess := domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(s.Signer.TTL()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	s.publish(SessionEvent{Type: SessionSignedIn, UserID: user.ID, SessionID: sessionID})
	s.Logger.Info("user logged in", "user_id", user.ID, "session_id", sessionID)

	return LoginResult{User: user, Role: role, Token: token, Session: sess}, nil
}

// Probe returns the session if it exists and is still usable, otherwise
// ErrNoSession. Backend failures also surface as ErrNoSession so callers
// treat them restrictively.
func (s *SessionService) Probe(ctx context.Context, sessionID string) (domain.Session, error) {
	sess, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.Logger.Warn("session probe failed", "session_id", sessionID, "error", err)
		}
		return domain.Session{}, ErrNoSession
	}
	if !sess.Active(time.Now().UTC()) {
		return domain.Session{}, ErrNoSession
	}
	return sess, nil
}

// Logout revokes a single session.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}
	if err := s.Store.Sessions().RevokeSession(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.publish(SessionEvent{Type: SessionSignedOut, UserID: sess.UserID, SessionID: sessionID})
	return nil
}

// SignOutUser revokes every session of a user. Used for demo expiry and
// account deletion.
func (s *SessionService) SignOutUser(ctx context.Context, userID string) error {
	if err := s.Store.Sessions().RevokeAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.publish(SessionEvent{Type: SessionSignedOut, UserID: userID})
	return nil
}

// Subscribe registers for session change events. The returned cancel func
// must be called when the subscriber goes away; it closes the channel.
func (s *SessionService) Subscribe() (<-chan SessionEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]chan SessionEvent)
	}
	id := s.nextID
	s.nextID++
	ch := make(chan SessionEvent, sessionEventBuffer)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish fans an event out to all subscribers. Delivered events keep publish
// order; a full subscriber sheds its oldest queued event so the newest always
// lands. Subscribers re-evaluate session state on any event, so losing an
// intermediate one cannot strand them on a stale view.
func (s *SessionService) publish(ev SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			// Publishes are serialized under s.mu, so the freed slot (or a
			// concurrent receive) guarantees this send cannot block.
			ch <- ev
			s.Logger.Warn("session event backlog, oldest event shed",
				"event", ev.Type, "user_id", ev.UserID)
		}
	}
}

// dummyHash keeps login timing uniform when the email does not exist.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
