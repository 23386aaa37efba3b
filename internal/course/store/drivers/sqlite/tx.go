package sqlite

import (
	"context"
	"database/sql"

	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller commits/rolls back; outer DB stays open

// Ping is a no-op for transactions; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx starts

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) Roles() store.Roles                 { return &rolesRepo{db: t.tx} }
func (t *txStore) Sessions() store.Sessions           { return &sessionsRepo{db: t.tx} }
func (t *txStore) Courses() store.Courses             { return &coursesRepo{db: t.tx} }
func (t *txStore) ClassGroups() store.ClassGroups     { return &classGroupsRepo{db: t.tx} }
func (t *txStore) Enrollments() store.Enrollments     { return &enrollmentsRepo{db: t.tx} }
func (t *txStore) Lessons() store.Lessons             { return &lessonsRepo{db: t.tx} }
func (t *txStore) LessonNotes() store.LessonNotes     { return &lessonNotesRepo{db: t.tx} }
func (t *txStore) LessonViews() store.LessonViews     { return &lessonViewsRepo{db: t.tx} }
func (t *txStore) Notifications() store.Notifications { return &notificationsRepo{db: t.tx} }
