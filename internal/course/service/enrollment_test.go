package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEnrollmentStore tracks membership in memory and records every call so
// tests can assert which phases ran.
type fakeEnrollmentStore struct {
	members map[string]bool

	listErr   error
	insertErr error
	deleteErr error

	insertCalls [][]string
	deleteCalls [][]string
}

func newFakeEnrollmentStore(ids ...string) *fakeEnrollmentStore {
	members := make(map[string]bool)
	for _, id := range ids {
		members[id] = true
	}
	return &fakeEnrollmentStore{members: members}
}

func (f *fakeEnrollmentStore) ListClassGroupIDs(ctx context.Context, userID string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []string
	for id := range f.members {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeEnrollmentStore) InsertEnrollments(ctx context.Context, userID string, ids []string) error {
	f.insertCalls = append(f.insertCalls, ids)
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, id := range ids {
		f.members[id] = true
	}
	return nil
}

func (f *fakeEnrollmentStore) DeleteEnrollments(ctx context.Context, userID string, ids []string) error {
	f.deleteCalls = append(f.deleteCalls, ids)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, id := range ids {
		delete(f.members, id)
	}
	return nil
}

func (f *fakeEnrollmentStore) memberIDs() []string {
	ids, _ := f.ListClassGroupIDs(context.Background(), "")
	return ids
}

func newTestReconciler(store *fakeEnrollmentStore) *EnrollmentReconciler {
	return &EnrollmentReconciler{
		Enrollments: store,
		Logger:      slog.New(slog.DiscardHandler),
	}
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects empty user id before touching the store", func(t *testing.T) {
		store := newFakeEnrollmentStore("a")
		_, err := newTestReconciler(store).Reconcile(ctx, "", []string{"a", "b"})
		require.ErrorIs(t, err, ErrMissingUserID)
		require.Empty(t, store.insertCalls)
		require.Empty(t, store.deleteCalls)
	})

	t.Run("adds and removes the symmetric difference", func(t *testing.T) {
		store := newFakeEnrollmentStore("a", "b", "c")
		result, err := newTestReconciler(store).Reconcile(ctx, "user-1", []string{"b", "c", "d"})
		require.NoError(t, err)
		require.Equal(t, []string{"d"}, result.Added)
		require.Equal(t, []string{"a"}, result.Removed)
		require.ElementsMatch(t, []string{"b", "c", "d"}, store.memberIDs())
	})

	t.Run("kept ids are never reinserted or deleted", func(t *testing.T) {
		store := newFakeEnrollmentStore("a", "b")
		_, err := newTestReconciler(store).Reconcile(ctx, "user-1", []string{"a", "b", "c"})
		require.NoError(t, err)
		require.Equal(t, [][]string{{"c"}}, store.insertCalls)
		require.Empty(t, store.deleteCalls)
	})

	t.Run("identical sets touch nothing", func(t *testing.T) {
		store := newFakeEnrollmentStore("a", "b")
		result, err := newTestReconciler(store).Reconcile(ctx, "user-1", []string{"b", "a"})
		require.NoError(t, err)
		require.Empty(t, result.Added)
		require.Empty(t, result.Removed)
		require.Empty(t, store.insertCalls)
		require.Empty(t, store.deleteCalls)
	})

	t.Run("empty desired against empty current touches nothing", func(t *testing.T) {
		store := newFakeEnrollmentStore()
		result, err := newTestReconciler(store).Reconcile(ctx, "user-1", nil)
		require.NoError(t, err)
		require.Empty(t, result.Added)
		require.Empty(t, result.Removed)
		require.Empty(t, store.insertCalls)
		require.Empty(t, store.deleteCalls)
	})

	t.Run("empty desired clears all memberships", func(t *testing.T) {
		store := newFakeEnrollmentStore("a", "b")
		result, err := newTestReconciler(store).Reconcile(ctx, "user-1", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, result.Removed)
		require.Empty(t, store.memberIDs())
	})

	t.Run("duplicate desired ids collapse", func(t *testing.T) {
		store := newFakeEnrollmentStore()
		result, err := newTestReconciler(store).Reconcile(ctx, "user-1", []string{"a", "a", "a"})
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, result.Added)
		require.Equal(t, [][]string{{"a"}}, store.insertCalls)
	})

	t.Run("add phase failure mutates nothing and carries the phase", func(t *testing.T) {
		store := newFakeEnrollmentStore("a")
		store.insertErr = errors.New("db down")

		_, err := newTestReconciler(store).Reconcile(ctx, "user-1", []string{"a", "b"})
		var rerr *ReconcileError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, PhaseAdd, rerr.Phase)
		require.False(t, rerr.Partial())
		require.Empty(t, store.deleteCalls)
		require.ElementsMatch(t, []string{"a"}, store.memberIDs())
	})

	t.Run("remove phase failure reports partial state with the landed adds", func(t *testing.T) {
		store := newFakeEnrollmentStore("a", "b")
		store.deleteErr = errors.New("db down")

		_, err := newTestReconciler(store).Reconcile(ctx, "user-1", []string{"b", "c"})
		var rerr *ReconcileError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, PhaseRemove, rerr.Phase)
		require.True(t, rerr.Partial())
		require.Equal(t, []string{"c"}, rerr.Added)
	})

	t.Run("retry after partial failure converges", func(t *testing.T) {
		store := newFakeEnrollmentStore("a", "b")
		store.deleteErr = errors.New("db down")

		r := newTestReconciler(store)
		_, err := r.Reconcile(ctx, "user-1", []string{"b", "c"})
		require.Error(t, err)

		store.deleteErr = nil
		result, err := r.Reconcile(ctx, "user-1", []string{"b", "c"})
		require.NoError(t, err)
		require.Empty(t, result.Added) // c landed on the first attempt
		require.Equal(t, []string{"a"}, result.Removed)
		require.ElementsMatch(t, []string{"b", "c"}, store.memberIDs())
	})

	t.Run("current listing failure surfaces before any phase", func(t *testing.T) {
		store := newFakeEnrollmentStore("a")
		store.listErr = errors.New("db down")

		_, err := newTestReconciler(store).Reconcile(ctx, "user-1", []string{"b"})
		require.Error(t, err)
		var rerr *ReconcileError
		require.False(t, errors.As(err, &rerr))
		require.Empty(t, store.insertCalls)
	})
}
