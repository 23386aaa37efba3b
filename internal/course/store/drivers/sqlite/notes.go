package sqlite

import (
	"context"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type lessonNotesRepo struct {
	db dbtx
}

func (r *lessonNotesRepo) CreateNote(ctx context.Context, n domain.LessonNote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lesson_notes (id, user_id, lesson_id, content, timestamp_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.LessonID, n.Content, n.TimestampSeconds, n.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *lessonNotesRepo) ListNotes(ctx context.Context, lessonID, userID string) ([]domain.LessonNote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, lesson_id, content, timestamp_seconds, created_at
		 FROM lesson_notes
		 WHERE lesson_id = ? AND user_id = ?
		 ORDER BY timestamp_seconds`,
		lessonID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.LessonNote
	for rows.Next() {
		var n domain.LessonNote
		err := rows.Scan(&n.ID, &n.UserID, &n.LessonID, &n.Content, &n.TimestampSeconds, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteNote only deletes notes owned by userID so one student cannot remove
// another's notes by guessing ids.
func (r *lessonNotesRepo) DeleteNote(ctx context.Context, noteID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM lesson_notes WHERE id = ? AND user_id = ?`, noteID, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
