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

type ClassGroupHandler struct {
	ClassGroups *service.ClassGroupService
	Logger      *slog.Logger
}

type classGroupRequest struct {
	CourseID    string     `json:"course_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    bool       `json:"is_active"`
}

type classGroupResponse struct {
	ID          string          `json:"id"`
	CourseID    string          `json:"course_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	IsActive    bool            `json:"is_active"`
	Course      *courseResponse `json:"course,omitempty"`
}

func toClassGroupResponse(g domain.ClassGroup) classGroupResponse {
	resp := classGroupResponse{
		ID:          g.ID,
		CourseID:    g.CourseID,
		Name:        g.Name,
		Description: g.Description,
		StartDate:   g.StartDate,
		EndDate:     g.EndDate,
		IsActive:    g.IsActive,
	}
	if g.Course != nil {
		c := toCourseResponse(*g.Course)
		resp.Course = &c
	}
	return resp
}

func (h *ClassGroupHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req classGroupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	g, err := h.ClassGroups.Create(r.Context(), service.ClassGroupInput(req))
	if err != nil {
		writeClassGroupError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toClassGroupResponse(g))
}

func (h *ClassGroupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	g, err := h.ClassGroups.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeClassGroupError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toClassGroupResponse(g))
}

func (h *ClassGroupHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	groups, err := h.ClassGroups.List(r.Context())
	if err != nil {
		writeClassGroupError(w, h.Logger, err)
		return
	}
	out := make([]classGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toClassGroupResponse(g))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ClassGroupHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req classGroupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	g, err := h.ClassGroups.Update(r.Context(), r.PathValue("id"), service.ClassGroupInput(req))
	if err != nil {
		writeClassGroupError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toClassGroupResponse(g))
}

func (h *ClassGroupHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ClassGroups.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeClassGroupError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeClassGroupError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "class group not found")
	case errors.Is(err, service.ErrClassGroupNameRequired), errors.Is(err, service.ErrClassGroupCourse):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		logger.Error("class group operation failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "class group operation failed")
	}
}
