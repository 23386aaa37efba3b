package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedClassFixtures(t *testing.T, st *Store) (userID string, classIDs []string) {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	userID = idx.New().String()
	require.NoError(t, st.Users().CreateUser(ctx, domain.User{
		ID: userID, Email: "student@example.com", CreatedAt: now, UpdatedAt: now,
	}))

	courseID := idx.New().String()
	require.NoError(t, st.Courses().CreateCourse(ctx, domain.Course{
		ID: courseID, Name: "Matemática", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))

	for _, name := range []string{"Turma A", "Turma B", "Turma C"} {
		id := idx.New().String()
		require.NoError(t, st.ClassGroups().CreateClassGroup(ctx, domain.ClassGroup{
			ID: id, CourseID: courseID, Name: name, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		}))
		classIDs = append(classIDs, id)
	}
	return userID, classIDs
}

func TestEnrollmentsRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("insert then list round-trips", func(t *testing.T) {
		st := newTestStore(t)
		userID, classIDs := seedClassFixtures(t, st)

		require.NoError(t, st.Enrollments().InsertEnrollments(ctx, userID, classIDs[:2]))

		got, err := st.Enrollments().ListClassGroupIDs(ctx, userID)
		require.NoError(t, err)
		require.ElementsMatch(t, classIDs[:2], got)
	})

	t.Run("inserting an existing pair is a no-op", func(t *testing.T) {
		st := newTestStore(t)
		userID, classIDs := seedClassFixtures(t, st)

		require.NoError(t, st.Enrollments().InsertEnrollments(ctx, userID, classIDs[:1]))
		require.NoError(t, st.Enrollments().InsertEnrollments(ctx, userID, classIDs[:2]))

		got, err := st.Enrollments().ListClassGroupIDs(ctx, userID)
		require.NoError(t, err)
		require.ElementsMatch(t, classIDs[:2], got)

		enrollments, err := st.Enrollments().ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, enrollments, 2)
	})

	t.Run("delete removes only the named pairs", func(t *testing.T) {
		st := newTestStore(t)
		userID, classIDs := seedClassFixtures(t, st)

		require.NoError(t, st.Enrollments().InsertEnrollments(ctx, userID, classIDs))
		require.NoError(t, st.Enrollments().DeleteEnrollments(ctx, userID, classIDs[:1]))

		got, err := st.Enrollments().ListClassGroupIDs(ctx, userID)
		require.NoError(t, err)
		require.ElementsMatch(t, classIDs[1:], got)
	})

	t.Run("empty batches touch nothing", func(t *testing.T) {
		st := newTestStore(t)
		userID, _ := seedClassFixtures(t, st)

		require.NoError(t, st.Enrollments().InsertEnrollments(ctx, userID, nil))
		require.NoError(t, st.Enrollments().DeleteEnrollments(ctx, userID, nil))

		got, err := st.Enrollments().ListClassGroupIDs(ctx, userID)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("list joins the class group", func(t *testing.T) {
		st := newTestStore(t)
		userID, classIDs := seedClassFixtures(t, st)

		require.NoError(t, st.Enrollments().InsertEnrollments(ctx, userID, classIDs[:1]))

		enrollments, err := st.Enrollments().ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, enrollments, 1)
		require.NotNil(t, enrollments[0].ClassGroup)
		require.Equal(t, "Turma A", enrollments[0].ClassGroup.Name)
		require.True(t, enrollments[0].IsActive)
	})
}
