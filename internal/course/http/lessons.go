package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/service"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/httpx"
)

type LessonHandler struct {
	Lessons       *service.LessonService
	Notes         *service.NoteService
	Notifications *service.NotificationService
	Logger        *slog.Logger
}

type lessonRequest struct {
	ClassGroupID string    `json:"class_group_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	YoutubeURL   string    `json:"youtube_url"`
	MaterialURL  string    `json:"material_url"`
	MaterialName string    `json:"material_name"`
	OrderIndex   int       `json:"order_index"`
	IsPublished  bool      `json:"is_published"`
}

type lessonResponse struct {
	ID           string              `json:"id"`
	ClassGroupID string              `json:"class_group_id"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	ScheduledAt  time.Time           `json:"scheduled_at"`
	YoutubeURL   string              `json:"youtube_url,omitempty"`
	MaterialURL  string              `json:"material_url,omitempty"`
	MaterialName string              `json:"material_name,omitempty"`
	OrderIndex   int                 `json:"order_index"`
	IsPublished  bool                `json:"is_published"`
	ClassGroup   *classGroupResponse `json:"class_group,omitempty"`
}

func toLessonResponse(l domain.Lesson) lessonResponse {
	resp := lessonResponse{
		ID:           l.ID,
		ClassGroupID: l.ClassGroupID,
		Title:        l.Title,
		Description:  l.Description,
		ScheduledAt:  l.ScheduledAt,
		YoutubeURL:   l.YoutubeURL,
		MaterialURL:  l.MaterialURL,
		MaterialName: l.MaterialName,
		OrderIndex:   l.OrderIndex,
		IsPublished:  l.IsPublished,
	}
	if l.ClassGroup != nil {
		g := toClassGroupResponse(*l.ClassGroup)
		resp.ClassGroup = &g
	}
	return resp
}

func toLessonResponses(lessons []domain.Lesson) []lessonResponse {
	out := make([]lessonResponse, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, toLessonResponse(l))
	}
	return out
}

func (h *LessonHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	l, err := h.Lessons.Create(r.Context(), service.LessonInput(req))
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	h.announceIfLive(r.Context(), l)
	httpx.WriteJSON(w, http.StatusCreated, toLessonResponse(l))
}

// announceIfLive pushes a live-lesson event when an admin publishes a lesson
// whose scheduled slot is already inside the live window, so students get the
// notice without waiting for their next bell refresh.
func (h *LessonHandler) announceIfLive(ctx context.Context, l domain.Lesson) {
	if h.Notifications == nil || !l.IsPublished {
		return
	}
	delta := time.Until(l.ScheduledAt)
	if delta < -service.LiveLessonWindow || delta > service.LiveLessonWindow {
		return
	}
	h.Notifications.AnnounceLessonLive(ctx, l)
}

func (h *LessonHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	l, err := h.Lessons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toLessonResponse(l))
}

func (h *LessonHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.Lessons.List(r.Context())
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toLessonResponses(lessons))
}

type scheduleResponse struct {
	Upcoming []lessonResponse `json:"upcoming"`
	Recorded []lessonResponse `json:"recorded"`
}

// HandleSchedule is the student's lesson listing, split around now.
func (h *LessonHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Lessons.ScheduleForUser(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scheduleResponse{
		Upcoming: toLessonResponses(sched.Upcoming),
		Recorded: toLessonResponses(sched.Recorded),
	})
}

func (h *LessonHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	l, err := h.Lessons.Update(r.Context(), r.PathValue("id"), service.LessonInput(req))
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	h.announceIfLive(r.Context(), l)
	httpx.WriteJSON(w, http.StatusOK, toLessonResponse(l))
}

func (h *LessonHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Lessons.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordViewRequest struct {
	WatchDurationSeconds int `json:"watch_duration_seconds"`
}

func (h *LessonHandler) HandleRecordView(w http.ResponseWriter, r *http.Request) {
	var req recordViewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	err := h.Lessons.RecordView(r.Context(),
		httpx.UserIDFromCtx(r.Context()), r.PathValue("id"), req.WatchDurationSeconds)
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type noteRequest struct {
	Content          string `json:"content"`
	TimestampSeconds int    `json:"timestamp_seconds"`
}

type noteResponse struct {
	ID               string    `json:"id"`
	LessonID         string    `json:"lesson_id"`
	Content          string    `json:"content"`
	TimestampSeconds int       `json:"timestamp_seconds"`
	CreatedAt        time.Time `json:"created_at"`
}

func toNoteResponse(n domain.LessonNote) noteResponse {
	return noteResponse{
		ID:               n.ID,
		LessonID:         n.LessonID,
		Content:          n.Content,
		TimestampSeconds: n.TimestampSeconds,
		CreatedAt:        n.CreatedAt,
	}
}

func (h *LessonHandler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	n, err := h.Notes.Add(r.Context(),
		httpx.UserIDFromCtx(r.Context()), r.PathValue("id"), req.Content, req.TimestampSeconds)
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toNoteResponse(n))
}

func (h *LessonHandler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Notes.List(r.Context(), httpx.UserIDFromCtx(r.Context()), r.PathValue("id"))
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *LessonHandler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	err := h.Notes.Delete(r.Context(), httpx.UserIDFromCtx(r.Context()), r.PathValue("id"))
	if err != nil {
		writeLessonError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeLessonError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, service.ErrLessonTitleRequired),
		errors.Is(err, service.ErrLessonClassGroup),
		errors.Is(err, service.ErrNoteContentRequired),
		errors.Is(err, service.ErrNoteBadTimestamp):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrNotEnrolled):
		httpx.WriteError(w, http.StatusForbidden, "not_enrolled", err.Error())
	default:
		logger.Error("lesson operation failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "lesson operation failed")
	}
}
