package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
)

func seedLesson(t *testing.T, st store.Store, classGroupID, title string, scheduledAt time.Time) domain.Lesson {
	t.Helper()

	now := time.Now().UTC()
	l := domain.Lesson{
		ID:           idx.New().String(),
		ClassGroupID: classGroupID,
		Title:        title,
		ScheduledAt:  scheduledAt,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Lessons().CreateLesson(context.Background(), l))
	return l
}

func seedEnrolledStudent(t *testing.T, st store.Store) (userID, classGroupID string) {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	userID = idx.New().String()
	require.NoError(t, st.Users().CreateUser(ctx, domain.User{
		ID: userID, Email: userID + "@example.com", CreatedAt: now, UpdatedAt: now,
	}))

	courseID := idx.New().String()
	require.NoError(t, st.Courses().CreateCourse(ctx, domain.Course{
		ID: courseID, Name: "Curso", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))

	classGroupID = idx.New().String()
	require.NoError(t, st.ClassGroups().CreateClassGroup(ctx, domain.ClassGroup{
		ID: classGroupID, CourseID: courseID, Name: "Turma", IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, st.Enrollments().InsertEnrollments(ctx, userID, []string{classGroupID}))
	return userID, classGroupID
}

func TestNotificationListForUser(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("lesson inside the live window becomes a notice", func(t *testing.T) {
		st := newTestStore(t)
		userID, classGroupID := seedEnrolledStudent(t, st)
		lesson := seedLesson(t, st, classGroupID, "Aula 1", time.Now().UTC().Add(30*time.Minute))

		svc := &NotificationService{Store: st, Logger: logger}
		notifications, err := svc.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		require.Equal(t, "live-"+lesson.ID, notifications[0].ID)
		require.Contains(t, notifications[0].Message, "Aula 1")
	})

	t.Run("a lesson that just ended still counts as live", func(t *testing.T) {
		st := newTestStore(t)
		userID, classGroupID := seedEnrolledStudent(t, st)
		seedLesson(t, st, classGroupID, "Aula 1", time.Now().UTC().Add(-50*time.Minute))

		svc := &NotificationService{Store: st, Logger: logger}
		notifications, err := svc.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
	})

	t.Run("lessons outside the window are ignored", func(t *testing.T) {
		st := newTestStore(t)
		userID, classGroupID := seedEnrolledStudent(t, st)
		seedLesson(t, st, classGroupID, "Antiga", time.Now().UTC().Add(-2*time.Hour))
		seedLesson(t, st, classGroupID, "Futura", time.Now().UTC().Add(3*time.Hour))

		svc := &NotificationService{Store: st, Logger: logger}
		notifications, err := svc.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Empty(t, notifications)
	})

	t.Run("live lessons of other classes do not leak", func(t *testing.T) {
		st := newTestStore(t)
		userID, _ := seedEnrolledStudent(t, st)
		_, otherClass := seedEnrolledStudent(t, st)
		// userID is not enrolled in otherClass; its live lesson must not show.
		seedLesson(t, st, otherClass, "Outra turma", time.Now().UTC())

		svc := &NotificationService{Store: st, Logger: logger}
		notifications, err := svc.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Empty(t, notifications)
	})

	t.Run("stored notices follow live ones, broadcast included", func(t *testing.T) {
		st := newTestStore(t)
		userID, _ := seedEnrolledStudent(t, st)

		svc := &NotificationService{Store: st, Logger: logger}
		_, err := svc.Broadcast(ctx, "Aviso geral", "mensagem", "")
		require.NoError(t, err)
		svc.NotifyDemoExpired(userID)

		notifications, err := svc.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, notifications, 2)
	})

	t.Run("mark read flips the stored flag", func(t *testing.T) {
		st := newTestStore(t)
		userID, _ := seedEnrolledStudent(t, st)

		svc := &NotificationService{Store: st, Logger: logger}
		n, err := svc.Broadcast(ctx, "Aviso", "m", "")
		require.NoError(t, err)

		require.NoError(t, svc.MarkRead(ctx, n.ID))

		notifications, err := svc.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		require.True(t, notifications[0].Read)
	})
}
