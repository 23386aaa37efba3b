package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/service"
	"github.com/JorgeIteq1000/turma-digital/pkg/httpx"
)

type DashboardHandler struct {
	Dashboards *service.DashboardService
	Logger     *slog.Logger
}

type adminDashboardResponse struct {
	StudentCount      int                      `json:"student_count"`
	ActiveCourseCount int                      `json:"active_course_count"`
	ActiveClassCount  int                      `json:"active_class_count"`
	UpcomingLessons   int                      `json:"upcoming_lesson_count"`
	NextLessons       []lessonResponse         `json:"next_lessons"`
	RecentActivity    []recentActivityResponse `json:"recent_activity"`
}

type recentActivityResponse struct {
	ViewedAt    time.Time `json:"viewed_at"`
	StudentName string    `json:"student_name"`
	LessonTitle string    `json:"lesson_title"`
	ClassName   string    `json:"class_name"`
}

func (h *DashboardHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	d, err := h.Dashboards.Admin(r.Context())
	if err != nil {
		h.Logger.Error("admin dashboard failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not build dashboard")
		return
	}

	activity := make([]recentActivityResponse, 0, len(d.RecentActivity))
	for _, a := range d.RecentActivity {
		activity = append(activity, recentActivityResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, adminDashboardResponse{
		StudentCount:      d.StudentCount,
		ActiveCourseCount: d.ActiveCourseCount,
		ActiveClassCount:  d.ActiveClassCount,
		UpcomingLessons:   d.UpcomingLessons,
		NextLessons:       toLessonResponses(d.NextLessons),
		RecentActivity:    activity,
	})
}

type classSummaryResponse struct {
	ClassGroup  classGroupResponse `json:"class_group"`
	LessonCount int                `json:"lesson_count"`
}

type studentDashboardResponse struct {
	Classes  []classSummaryResponse `json:"classes"`
	Upcoming []lessonResponse       `json:"upcoming"`
	Recent   []lessonResponse       `json:"recent"`
}

func (h *DashboardHandler) HandleStudent(w http.ResponseWriter, r *http.Request) {
	d, err := h.Dashboards.Student(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		h.Logger.Error("student dashboard failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not build dashboard")
		return
	}

	classes := make([]classSummaryResponse, 0, len(d.Classes))
	for _, c := range d.Classes {
		classes = append(classes, classSummaryResponse{
			ClassGroup:  toClassGroupResponse(c.ClassGroup),
			LessonCount: c.LessonCount,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, studentDashboardResponse{
		Classes:  classes,
		Upcoming: toLessonResponses(d.Upcoming),
		Recent:   toLessonResponses(d.Recent),
	})
}
