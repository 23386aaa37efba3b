package store

import (
	"context"
	"errors"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to stop callers from accidentally nesting transactions.
type Store interface {
	Users() Users
	Roles() Roles
	Sessions() Sessions
	Courses() Courses
	ClassGroups() ClassGroups
	Enrollments() Enrollments
	Lessons() Lessons
	LessonNotes() LessonNotes
	LessonViews() LessonViews
	Notifications() Notifications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile mutates display fields and bumps updated_at.
	UpdateProfile(ctx context.Context, userID, fullName, avatarURL string) error

	// UpdateDemoAccess sets the demo flag and window for a user.
	UpdateDemoAccess(ctx context.Context, userID string, isDemo bool, demoHours int) error

	// ListByRole returns all users holding the given role, ordered by name.
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)

	// DeleteUser cascades to sessions, enrollments, notes, and views.
	DeleteUser(ctx context.Context, userID string) error
}

type Roles interface {
	// GetRoleByUserID returns the role bound to a user identity.
	GetRoleByUserID(ctx context.Context, userID string) (domain.Role, error)

	// SetRole binds a role to a user, replacing any previous binding.
	SetRole(ctx context.Context, userID string, role domain.Role) error

	// CountByRole returns the number of users holding a role.
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

type Sessions interface {
	// CreateSession stores a new login session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID fetches a session by id (the token's jti claim).
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// RevokeSession flips revoked=1 and bumps updated_at.
	RevokeSession(ctx context.Context, id string) error

	// RevokeAllUserSessions bulk-revokes every session of a user, used on
	// demo expiry so the account cannot stay authenticated.
	RevokeAllUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}

type Courses interface {
	CreateCourse(ctx context.Context, c domain.Course) error
	GetCourseByID(ctx context.Context, id string) (domain.Course, error)

	// ListCourses returns all courses, newest first.
	ListCourses(ctx context.Context) ([]domain.Course, error)

	UpdateCourse(ctx context.Context, c domain.Course) error
	DeleteCourse(ctx context.Context, id string) error

	// CountActiveCourses feeds the admin dashboard.
	CountActiveCourses(ctx context.Context) (int, error)
}

type ClassGroups interface {
	CreateClassGroup(ctx context.Context, g domain.ClassGroup) error

	// GetClassGroupByID returns the group with its course joined.
	GetClassGroupByID(ctx context.Context, id string) (domain.ClassGroup, error)

	// ListClassGroups returns all groups with courses joined, newest first.
	ListClassGroups(ctx context.Context) ([]domain.ClassGroup, error)

	UpdateClassGroup(ctx context.Context, g domain.ClassGroup) error
	DeleteClassGroup(ctx context.Context, id string) error
	CountActiveClassGroups(ctx context.Context) (int, error)
}

type Enrollments interface {
	// ListClassGroupIDs returns the set of class-group ids a user belongs
	// to. This is the "current" side of reconciliation.
	ListClassGroupIDs(ctx context.Context, userID string) ([]string, error)

	// ListByUser returns a user's enrollments with class groups joined.
	ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)

	// InsertEnrollments batch-inserts (user, class group) pairs. Pairs that
	// already exist are left untouched so a retry cannot double-insert.
	InsertEnrollments(ctx context.Context, userID string, classGroupIDs []string) error

	// DeleteEnrollments batch-deletes (user, class group) pairs.
	DeleteEnrollments(ctx context.Context, userID string, classGroupIDs []string) error
}

type Lessons interface {
	CreateLesson(ctx context.Context, l domain.Lesson) error

	// GetLessonByID returns the lesson with its class group and course.
	GetLessonByID(ctx context.Context, id string) (domain.Lesson, error)

	// ListLessons returns all lessons with class groups joined, by schedule.
	ListLessons(ctx context.Context) ([]domain.Lesson, error)

	// ListLessonsForClassGroups returns published lessons of the given
	// groups scheduled within [from, to). A zero bound is open.
	ListLessonsForClassGroups(ctx context.Context, classGroupIDs []string, from, to time.Time) ([]domain.Lesson, error)

	// ListUpcomingLessons returns the next published lessons after the given
	// instant across all groups, soonest first.
	ListUpcomingLessons(ctx context.Context, after time.Time, limit int) ([]domain.Lesson, error)

	// CountLessonsForClassGroups returns per-group published lesson counts.
	CountLessonsForClassGroups(ctx context.Context, classGroupIDs []string) (map[string]int, error)

	// CountScheduledAfter counts lessons scheduled at or after the instant.
	CountScheduledAfter(ctx context.Context, after time.Time) (int, error)

	UpdateLesson(ctx context.Context, l domain.Lesson) error
	DeleteLesson(ctx context.Context, id string) error
}

type LessonNotes interface {
	CreateNote(ctx context.Context, n domain.LessonNote) error

	// ListNotes returns a user's notes for a lesson ordered by timestamp.
	ListNotes(ctx context.Context, lessonID, userID string) ([]domain.LessonNote, error)

	// DeleteNote removes a note owned by the user; ErrNotFound otherwise.
	DeleteNote(ctx context.Context, noteID, userID string) error
}

type LessonViews interface {
	CreateView(ctx context.Context, v domain.LessonView) error

	// ListRecentActivity returns the latest views joined with student and
	// lesson names for the admin feed.
	ListRecentActivity(ctx context.Context, limit int) ([]domain.RecentActivity, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n domain.Notification) error

	// ListNotifications returns broadcast notices plus the user's own,
	// newest first, up to limit.
	ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error)

	// MarkNotificationRead flips read=1.
	MarkNotificationRead(ctx context.Context, id string) error

	// DeleteNotificationsBefore is housekeeping.
	DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) error
}
