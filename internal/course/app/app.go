package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	httpapi "github.com/JorgeIteq1000/turma-digital/internal/course/http"
	"github.com/JorgeIteq1000/turma-digital/internal/course/notify"
	"github.com/JorgeIteq1000/turma-digital/internal/course/service"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store/drivers/sqlite"
	"github.com/JorgeIteq1000/turma-digital/pkg/cryptox"
	"github.com/JorgeIteq1000/turma-digital/pkg/jwtx"
	"github.com/JorgeIteq1000/turma-digital/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the course service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer
	rdb    *redis.Client

	publisher      *notify.Publisher
	consumer       *notify.Consumer
	consumerCancel context.CancelFunc
	consumerDone   chan struct{}

	sessionService      *service.SessionService
	roleResolver        *service.RoleResolver
	studentService      *service.StudentService
	courseService       *service.CourseService
	classGroupService   *service.ClassGroupService
	lessonService       *service.LessonService
	noteService         *service.NoteService
	reconciler          *service.EnrollmentReconciler
	notificationService *service.NotificationService
	dashboardService    *service.DashboardService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates the application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if cfg.TokenSecret == "" {
		return nil, errors.New("TURMA_TOKEN_SECRET is required")
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "turma-digital",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	app.signer = jwtx.NewSigner(cfg.TokenSecret, cfg.Issuer, cfg.SessionTTL)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initRedis()
	app.initBroker()
	app.initServices()

	if err := app.bootstrapAdmin(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.startConsumer()

	app.logger.Info("course service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the HTTP server, workers, and connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down course service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	app.stopConsumer()

	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("error closing broker connection", "error", err)
		}
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("course service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRedis sets up the optional role cache. Without an address the resolver
// goes straight to the store on every lookup.
func (app *Application) initRedis() {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("redis not configured, role cache disabled")
		return
	}
	app.rdb = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
	app.logger.Info("redis role cache enabled", "addr", app.cfg.RedisAddr)
}

// initBroker sets up the optional RabbitMQ publisher/consumer pair.
func (app *Application) initBroker() {
	if app.cfg.AMQPURL == "" {
		app.logger.Info("message broker not configured, events stay local")
		return
	}
	app.publisher = notify.NewPublisher(app.cfg.AMQPURL, app.logger)
	app.logger.Info("message broker enabled")
}

func (app *Application) initServices() {
	app.roleResolver = &service.RoleResolver{
		Store:  app.db,
		Cache:  app.rdb,
		Logger: app.logger,
	}
	app.sessionService = &service.SessionService{
		Store:  app.db,
		Signer: app.signer,
		Logger: app.logger,
		Roles:  app.roleResolver,
	}
	app.studentService = &service.StudentService{
		Store:    app.db,
		Roles:    app.roleResolver,
		Sessions: app.sessionService,
		Logger:   app.logger,
	}
	app.courseService = &service.CourseService{Store: app.db}
	app.classGroupService = &service.ClassGroupService{Store: app.db}
	app.lessonService = &service.LessonService{Store: app.db}
	app.noteService = &service.NoteService{Store: app.db}
	app.reconciler = &service.EnrollmentReconciler{
		Enrollments: app.db.Enrollments(),
		Logger:      app.logger,
	}
	app.notificationService = &service.NotificationService{
		Store:  app.db,
		Logger: app.logger,
	}
	if app.publisher != nil {
		app.notificationService.Publisher = app.publisher
		app.consumer = notify.NewConsumer(app.cfg.AMQPURL, app.notificationService, app.logger)
	}
	app.dashboardService = &service.DashboardService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// bootstrapAdmin seeds the first admin account from the environment when no
// admin exists yet. Without it a fresh database has no way in.
func (app *Application) bootstrapAdmin(ctx context.Context) error {
	count, err := app.db.Roles().CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 || app.cfg.AdminEmail == "" {
		return nil
	}

	result, err := app.studentService.Create(ctx, service.CreateStudentInput{
		Email:    app.cfg.AdminEmail,
		FullName: "Administrator",
		Password: app.cfg.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	if app.cfg.AdminPassword == "" {
		// One-time print of the generated credential.
		app.logger.Warn("bootstrap admin created with generated password",
			"email", app.cfg.AdminEmail, "password", result.Password)
	} else {
		app.logger.Info("bootstrap admin created", "email", app.cfg.AdminEmail)
	}
	return nil
}

func (app *Application) startConsumer() {
	if app.consumer == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	app.consumerCancel = cancel
	app.consumerDone = make(chan struct{})
	go func() {
		defer close(app.consumerDone)
		app.consumer.Run(ctx)
	}()
}

func (app *Application) stopConsumer() {
	if app.consumerCancel == nil {
		return
	}
	app.consumerCancel()
	select {
	case <-app.consumerDone:
	case <-time.After(5 * time.Second):
		app.logger.Warn("consumer did not stop in time")
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.signer, BuildVersion, app.db, app.logger)

	router.Sessions = app.sessionService
	router.Roles = app.roleResolver
	router.Students = app.studentService
	router.Courses = app.courseService
	router.ClassGroups = app.classGroupService
	router.Lessons = app.lessonService
	router.Notes = app.noteService
	router.Enrollments = app.reconciler
	router.Notifications = app.notificationService
	router.Dashboards = app.dashboardService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
