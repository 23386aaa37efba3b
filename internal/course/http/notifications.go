package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/service"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/httpx"
)

type NotificationHandler struct {
	Notifications *service.NotificationService
	Logger        *slog.Logger
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	Live      bool      `json:"live"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		Live:      strings.HasPrefix(n.ID, "live-"),
		CreatedAt: n.CreatedAt,
	}
}

func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.Notifications.ListForUser(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		h.Logger.Error("list notifications failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not list notifications")
		return
	}
	out := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toNotificationResponse(n))
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if strings.HasPrefix(id, "live-") {
		// Synthetic live notices have no row to flip.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "notification not found")
			return
		}
		h.Logger.Error("mark notification read failed", "id", id, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not mark notification read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type broadcastRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link"`
}

func (h *NotificationHandler) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	n, err := h.Notifications.Broadcast(r.Context(), req.Title, req.Message, req.Link)
	if err != nil {
		h.Logger.Error("broadcast notification failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not create notification")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toNotificationResponse(n))
}
