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

type StudentHandler struct {
	Students    *service.StudentService
	Enrollments *service.EnrollmentReconciler
	Store       store.Store
	Logger      *slog.Logger
}

type createStudentRequest struct {
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	IsDemo    bool   `json:"is_demo"`
	DemoHours int    `json:"demo_hours"`
}

type createStudentResponse struct {
	User     userResponse `json:"user"`
	Password string       `json:"password,omitempty"` // only set when generated
}

type studentResponse struct {
	User        userResponse         `json:"user"`
	Enrollments []enrollmentResponse `json:"enrollments"`
}

type enrollmentResponse struct {
	ClassGroupID string              `json:"class_group_id"`
	EnrolledAt   time.Time           `json:"enrolled_at"`
	IsActive     bool                `json:"is_active"`
	ClassGroup   *classGroupResponse `json:"class_group,omitempty"`
}

func toStudentResponse(p service.StudentProfile) studentResponse {
	enrollments := make([]enrollmentResponse, 0, len(p.Enrollments))
	for _, e := range p.Enrollments {
		resp := enrollmentResponse{
			ClassGroupID: e.ClassGroupID,
			EnrolledAt:   e.EnrolledAt,
			IsActive:     e.IsActive,
		}
		if e.ClassGroup != nil {
			g := toClassGroupResponse(*e.ClassGroup)
			resp.ClassGroup = &g
		}
		enrollments = append(enrollments, resp)
	}
	return studentResponse{
		User: userResponse{
			ID:        p.User.ID,
			Email:     p.User.Email,
			FullName:  p.User.FullName,
			AvatarURL: p.User.AvatarURL,
			Role:      string(p.Role),
			IsDemo:    p.User.IsDemo,
			DemoHours: p.User.DemoHours,
		},
		Enrollments: enrollments,
	}
}

func (h *StudentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	result, err := h.Students.Create(r.Context(), service.CreateStudentInput{
		Email:     req.Email,
		FullName:  req.FullName,
		Password:  req.Password,
		Role:      domain.Role(req.Role),
		IsDemo:    req.IsDemo,
		DemoHours: req.DemoHours,
	})
	if err != nil {
		writeStudentError(w, h.Logger, err)
		return
	}

	resp := createStudentResponse{
		User: userResponse{
			ID:        result.User.ID,
			Email:     result.User.Email,
			FullName:  result.User.FullName,
			Role:      string(result.Role),
			IsDemo:    result.User.IsDemo,
			DemoHours: result.User.DemoHours,
		},
	}
	if req.Password == "" {
		resp.Password = result.Password
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func (h *StudentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Students.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStudentError(w, h.Logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toStudentResponse(profile))
}

func (h *StudentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Students.ListStudents(r.Context())
	if err != nil {
		writeStudentError(w, h.Logger, err)
		return
	}
	out := make([]studentResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toStudentResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *StudentHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if err := h.Students.SetRole(r.Context(), r.PathValue("id"), domain.Role(req.Role)); err != nil {
		writeStudentError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setDemoRequest struct {
	IsDemo    bool `json:"is_demo"`
	DemoHours int  `json:"demo_hours"`
}

func (h *StudentHandler) HandleSetDemo(w http.ResponseWriter, r *http.Request) {
	var req setDemoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if err := h.Students.SetDemoAccess(r.Context(), r.PathValue("id"), req.IsDemo, req.DemoHours); err != nil {
		writeStudentError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Students.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStudentError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudentHandler) HandleListEnrollments(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Store.Enrollments().ListClassGroupIDs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStudentError(w, h.Logger, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]string{"class_group_ids": ids})
}

type reconcileRequest struct {
	ClassGroupIDs []string `json:"class_group_ids"`
}

type reconcileResponse struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// HandleReconcileEnrollments makes the student's memberships equal the
// submitted set. A remove-phase failure reports 502 with the landed adds so
// the caller knows to retry.
func (h *StudentHandler) HandleReconcileEnrollments(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	result, err := h.Enrollments.Reconcile(r.Context(), r.PathValue("id"), req.ClassGroupIDs)
	if err != nil {
		var rerr *service.ReconcileError
		switch {
		case errors.Is(err, service.ErrMissingUserID):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "student id is required")
		case errors.As(err, &rerr) && rerr.Partial():
			h.Logger.Error("enrollment reconcile partially applied",
				"user_id", r.PathValue("id"), "added", rerr.Added, "error", err)
			httpx.WriteError(w, http.StatusBadGateway, "partial_failure",
				"additions were applied but removals failed; retry to converge")
		default:
			h.Logger.Error("enrollment reconcile failed", "user_id", r.PathValue("id"), "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not update enrollments")
		}
		return
	}

	if result.Added == nil {
		result.Added = []string{}
	}
	if result.Removed == nil {
		result.Removed = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, reconcileResponse(result))
}

func writeStudentError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "student not found")
	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteError(w, http.StatusConflict, "already_exists", "an account with this email already exists")
	case errors.Is(err, service.ErrEmailRequired), errors.Is(err, service.ErrBadRole):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		logger.Error("student operation failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "student operation failed")
	}
}
