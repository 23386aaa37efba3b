package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyRole      ctxKey = "role"
	CtxKeySessionID ctxKey = "session_id"
)

// ContextWithIdentity stamps the authenticated identity into the context for
// downstream handlers.
func ContextWithIdentity(ctx context.Context, userID, role, sessionID string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	ctx = context.WithValue(ctx, CtxKeyRole, role)
	ctx = context.WithValue(ctx, CtxKeySessionID, sessionID)
	return ctx
}

// UserIDFromCtx returns the authenticated user id, or "" when anonymous.
func UserIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// RoleFromCtx returns the resolved role, or "" when anonymous.
func RoleFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRole).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromCtx returns the session id, or "" when anonymous.
func SessionIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySessionID).(string); ok {
		return v
	}
	return ""
}
