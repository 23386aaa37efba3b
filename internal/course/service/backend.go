package service

import (
	"context"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
)

// PrincipalBackend adapts the real services to the gate's GateBackend
// interface for one principal, pinned to the session id presented at mount
// time. If that session is revoked or expires, probes start failing and the
// gate denies.
type PrincipalBackend struct {
	Sessions  *SessionService
	Roles     *RoleResolver
	Users     store.Users
	SessionID string
}

var _ GateBackend = (*PrincipalBackend)(nil)

func (b *PrincipalBackend) ProbeSession(ctx context.Context) (domain.Session, error) {
	return b.Sessions.Probe(ctx, b.SessionID)
}

func (b *PrincipalBackend) SubscribeSessions() (<-chan SessionEvent, func()) {
	return b.Sessions.Subscribe()
}

func (b *PrincipalBackend) ResolveRole(ctx context.Context, userID string) domain.Role {
	return b.Roles.Resolve(ctx, userID)
}

func (b *PrincipalBackend) LookupProfile(ctx context.Context, userID string) (domain.User, error) {
	return b.Users.GetUserByID(ctx, userID)
}

func (b *PrincipalBackend) SignOut(ctx context.Context, userID string) error {
	return b.Sessions.SignOutUser(ctx, userID)
}
