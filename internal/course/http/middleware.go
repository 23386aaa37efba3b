package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/pkg/cryptox"
	"github.com/JorgeIteq1000/turma-digital/pkg/httpx"
)

// Authenticate verifies the bearer token, checks the backing session row is
// still alive, and rejects expired demo accounts. It is the per-request
// enforcement of the same rules the access gate applies client-side: a
// missing session outranks demo expiry, which outranks any role concern.
func (r *Router) Authenticate() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			raw := bearerToken(req)
			if raw == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "no_session", "missing bearer token")
				return
			}

			claims, err := r.signer.Verify(raw)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "no_session", "invalid token")
				return
			}

			sess, err := r.Sessions.Probe(req.Context(), claims.SessionID)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "no_session", "session revoked or expired")
				return
			}
			if sess.TokenHash != cryptox.FingerprintToken(raw) {
				httpx.WriteError(w, http.StatusUnauthorized, "no_session", "token does not match session")
				return
			}

			// Demo expiry: force the sign-out and fire the notice, then
			// deny. A failed profile lookup cannot prove expiry, so the
			// request proceeds.
			if user, err := r.store.Users().GetUserByID(req.Context(), sess.UserID); err == nil {
				if user.DemoExpiredAt(time.Now().UTC()) {
					if err := r.Sessions.SignOutUser(req.Context(), sess.UserID); err != nil {
						r.logger.Error("forced sign-out failed", "user_id", sess.UserID, "error", err)
					}
					if r.Notifications != nil {
						r.Notifications.NotifyDemoExpired(sess.UserID)
					}
					httpx.WriteError(w, http.StatusUnauthorized, "demo_expired", "demo access window has closed")
					return
				}
			} else {
				r.logger.Warn("profile lookup failed during authn", "user_id", sess.UserID, "error", err)
			}

			role := r.Roles.Resolve(req.Context(), sess.UserID)

			ctx := httpx.ContextWithIdentity(req.Context(), sess.UserID, string(role), sess.ID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on the resolved role. With adminOverride set an
// admin passes any requirement.
func RequireRole(required domain.Role, adminOverride bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			role := domain.Role(httpx.RoleFromCtx(req.Context()))
			if role != required && !(adminOverride && role == domain.RoleAdmin) {
				httpx.WriteError(w, http.StatusForbidden, "wrong_role", "insufficient role for this resource")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func bearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
