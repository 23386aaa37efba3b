package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/service"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/httpx"
)

type CourseHandler struct {
	Courses *service.CourseService
	Logger  *slog.Logger
}

type courseRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsActive     bool   `json:"is_active"`
}

type courseResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toCourseResponse(c domain.Course) courseResponse {
	return courseResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ThumbnailURL: c.ThumbnailURL,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (h *CourseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	c, err := h.Courses.Create(r.Context(), service.CourseInput(req))
	if err != nil {
		writeCourseError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toCourseResponse(c))
}

func (h *CourseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.Courses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeCourseError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCourseResponse(c))
}

func (h *CourseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.List(r.Context())
	if err != nil {
		writeCourseError(w, h.Logger, err)
		return
	}
	out := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *CourseHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	c, err := h.Courses.Update(r.Context(), r.PathValue("id"), service.CourseInput(req))
	if err != nil {
		writeCourseError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCourseResponse(c))
}

func (h *CourseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Courses.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeCourseError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeCourseError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "course not found")
	case errors.Is(err, service.ErrCourseNameRequired):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		logger.Error("course operation failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "course operation failed")
	}
}
