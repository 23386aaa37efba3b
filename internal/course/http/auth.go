package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/service"
	"github.com/JorgeIteq1000/turma-digital/pkg/httpx"
)

// AuthHandler serves login, logout, and session introspection.
type AuthHandler struct {
	Sessions *service.SessionService
	Students *service.StudentService
	Logger   *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role"`
	IsDemo    bool   `json:"is_demo"`
	DemoHours int    `json:"demo_hours,omitempty"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	result, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		return
	case errors.Is(err, service.ErrDemoExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "demo_expired", "demo access window has closed")
		return
	case err != nil:
		h.Logger.Error("login failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not log in")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.Session.ExpiresAt,
		User: userResponse{
			ID:        result.User.ID,
			Email:     result.User.Email,
			FullName:  result.User.FullName,
			AvatarURL: result.User.AvatarURL,
			Role:      string(result.Role),
			IsDemo:    result.User.IsDemo,
			DemoHours: result.User.DemoHours,
		},
	})
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := httpx.SessionIDFromCtx(r.Context())
	if err := h.Sessions.Logout(r.Context(), sessionID); err != nil {
		h.Logger.Error("logout failed", "session_id", sessionID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleSession is the authenticated probe: reaching it at all means the
// middleware found a live, non-expired session.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Probe(r.Context(), httpx.SessionIDFromCtx(r.Context()))
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "no_session", "session not found")
		return
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		UserID:    sess.UserID,
		SessionID: sess.ID,
		Role:      httpx.RoleFromCtx(r.Context()),
		ExpiresAt: sess.ExpiresAt,
	})
}

func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Students.Get(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		h.Logger.Error("profile lookup failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not load profile")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{
		ID:        profile.User.ID,
		Email:     profile.User.Email,
		FullName:  profile.User.FullName,
		AvatarURL: profile.User.AvatarURL,
		Role:      string(profile.Role),
		IsDemo:    profile.User.IsDemo,
		DemoHours: profile.User.DemoHours,
	})
}

func (h *AuthHandler) HandleMyRole(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"role": httpx.RoleFromCtx(r.Context()),
	})
}
