package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/service"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/httpx"
	"github.com/JorgeIteq1000/turma-digital/pkg/jwtx"
	"github.com/JorgeIteq1000/turma-digital/pkg/slogx"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.Signer
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Sessions      *service.SessionService
	Roles         *service.RoleResolver
	Students      *service.StudentService
	Courses       *service.CourseService
	ClassGroups   *service.ClassGroupService
	Lessons       *service.LessonService
	Notes         *service.NoteService
	Enrollments   *service.EnrollmentReconciler
	Notifications *service.NotificationService
	Dashboards    *service.DashboardService
}

func NewRouter(signer *jwtx.Signer, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerCourses()
	r.registerClassGroups()
	r.registerLessons()
	r.registerStudents()
	r.registerNotifications()
	r.registerDashboards()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed wraps a handler with authentication plus an optional required role.
// Admins pass role checks everywhere; that is the site-wide override policy.
func (r *Router) authed(h http.Handler, required domain.Role) http.Handler {
	mws := []httpx.Middleware{r.Authenticate()}
	if required != "" {
		mws = append(mws, RequireRole(required, true))
	}
	return httpx.Chain(h, mws...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Sessions: r.Sessions,
		Students: r.Students,
		Logger:   r.logger,
	}

	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/logout", r.authed(http.HandlerFunc(h.HandleLogout), ""))
	r.Mux.Handle("GET /v1/auth/session", r.authed(http.HandlerFunc(h.HandleSession), ""))
	r.Mux.Handle("GET /v1/me", r.authed(http.HandlerFunc(h.HandleMe), ""))
	r.Mux.Handle("GET /v1/me/role", r.authed(http.HandlerFunc(h.HandleMyRole), ""))
}

func (r *Router) registerCourses() {
	h := &CourseHandler{Courses: r.Courses, Logger: r.logger}

	r.Mux.Handle("GET /v1/courses", r.authed(http.HandlerFunc(h.HandleList), ""))
	r.Mux.Handle("GET /v1/courses/{id}", r.authed(http.HandlerFunc(h.HandleGet), ""))
	r.Mux.Handle("POST /v1/courses", r.authed(http.HandlerFunc(h.HandleCreate), domain.RoleAdmin))
	r.Mux.Handle("PUT /v1/courses/{id}", r.authed(http.HandlerFunc(h.HandleUpdate), domain.RoleAdmin))
	r.Mux.Handle("DELETE /v1/courses/{id}", r.authed(http.HandlerFunc(h.HandleDelete), domain.RoleAdmin))
}

func (r *Router) registerClassGroups() {
	h := &ClassGroupHandler{ClassGroups: r.ClassGroups, Logger: r.logger}

	r.Mux.Handle("GET /v1/classes", r.authed(http.HandlerFunc(h.HandleList), ""))
	r.Mux.Handle("GET /v1/classes/{id}", r.authed(http.HandlerFunc(h.HandleGet), ""))
	r.Mux.Handle("POST /v1/classes", r.authed(http.HandlerFunc(h.HandleCreate), domain.RoleAdmin))
	r.Mux.Handle("PUT /v1/classes/{id}", r.authed(http.HandlerFunc(h.HandleUpdate), domain.RoleAdmin))
	r.Mux.Handle("DELETE /v1/classes/{id}", r.authed(http.HandlerFunc(h.HandleDelete), domain.RoleAdmin))
}

func (r *Router) registerLessons() {
	h := &LessonHandler{
		Lessons:       r.Lessons,
		Notes:         r.Notes,
		Notifications: r.Notifications,
		Logger:        r.logger,
	}

	r.Mux.Handle("GET /v1/lessons", r.authed(http.HandlerFunc(h.HandleList), ""))
	r.Mux.Handle("GET /v1/lessons/{id}", r.authed(http.HandlerFunc(h.HandleGet), ""))
	r.Mux.Handle("POST /v1/lessons", r.authed(http.HandlerFunc(h.HandleCreate), domain.RoleAdmin))
	r.Mux.Handle("PUT /v1/lessons/{id}", r.authed(http.HandlerFunc(h.HandleUpdate), domain.RoleAdmin))
	r.Mux.Handle("DELETE /v1/lessons/{id}", r.authed(http.HandlerFunc(h.HandleDelete), domain.RoleAdmin))

	r.Mux.Handle("GET /v1/schedule", r.authed(http.HandlerFunc(h.HandleSchedule), ""))
	r.Mux.Handle("POST /v1/lessons/{id}/views", r.authed(http.HandlerFunc(h.HandleRecordView), ""))

	r.Mux.Handle("GET /v1/lessons/{id}/notes", r.authed(http.HandlerFunc(h.HandleListNotes), ""))
	r.Mux.Handle("POST /v1/lessons/{id}/notes", r.authed(http.HandlerFunc(h.HandleAddNote), ""))
	r.Mux.Handle("DELETE /v1/notes/{id}", r.authed(http.HandlerFunc(h.HandleDeleteNote), ""))
}

func (r *Router) registerStudents() {
	h := &StudentHandler{
		Students:    r.Students,
		Enrollments: r.Enrollments,
		Store:       r.store,
		Logger:      r.logger,
	}

	r.Mux.Handle("GET /v1/students", r.authed(http.HandlerFunc(h.HandleList), domain.RoleAdmin))
	r.Mux.Handle("POST /v1/students", r.authed(http.HandlerFunc(h.HandleCreate), domain.RoleAdmin))
	r.Mux.Handle("GET /v1/students/{id}", r.authed(http.HandlerFunc(h.HandleGet), domain.RoleAdmin))
	r.Mux.Handle("PUT /v1/students/{id}/role", r.authed(http.HandlerFunc(h.HandleSetRole), domain.RoleAdmin))
	r.Mux.Handle("PUT /v1/students/{id}/demo", r.authed(http.HandlerFunc(h.HandleSetDemo), domain.RoleAdmin))
	r.Mux.Handle("DELETE /v1/students/{id}", r.authed(http.HandlerFunc(h.HandleDelete), domain.RoleAdmin))

	r.Mux.Handle("GET /v1/students/{id}/enrollments", r.authed(http.HandlerFunc(h.HandleListEnrollments), domain.RoleAdmin))
	r.Mux.Handle("PUT /v1/students/{id}/enrollments", r.authed(http.HandlerFunc(h.HandleReconcileEnrollments), domain.RoleAdmin))
}

func (r *Router) registerNotifications() {
	h := &NotificationHandler{Notifications: r.Notifications, Logger: r.logger}

	r.Mux.Handle("GET /v1/notifications", r.authed(http.HandlerFunc(h.HandleList), ""))
	r.Mux.Handle("POST /v1/notifications/{id}/read", r.authed(http.HandlerFunc(h.HandleMarkRead), ""))
	r.Mux.Handle("POST /v1/notifications", r.authed(http.HandlerFunc(h.HandleBroadcast), domain.RoleAdmin))
}

func (r *Router) registerDashboards() {
	h := &DashboardHandler{Dashboards: r.Dashboards, Logger: r.logger}

	r.Mux.Handle("GET /v1/dashboard/admin", r.authed(http.HandlerFunc(h.HandleAdmin), domain.RoleAdmin))
	r.Mux.Handle("GET /v1/dashboard/student", r.authed(http.HandlerFunc(h.HandleStudent), ""))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.store))
}
