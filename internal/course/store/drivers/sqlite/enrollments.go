package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
)

type enrollmentsRepo struct {
	db dbtx
}

func (r *enrollmentsRepo) ListClassGroupIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT class_group_id FROM class_enrollments WHERE user_id = ? AND is_active = 1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *enrollmentsRepo) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.user_id, e.class_group_id, e.enrolled_at, e.is_active,
		        g.id, g.course_id, g.name, g.description, g.start_date, g.end_date,
		        g.is_active, g.created_at, g.updated_at
		 FROM class_enrollments e
		 JOIN class_groups g ON g.id = e.class_group_id
		 WHERE e.user_id = ?
		 ORDER BY e.enrolled_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []domain.Enrollment
	for rows.Next() {
		var (
			e          domain.Enrollment
			g          domain.ClassGroup
			start, end sql.NullTime
		)
		err := rows.Scan(
			&e.ID, &e.UserID, &e.ClassGroupID, &e.EnrolledAt, &e.IsActive,
			&g.ID, &g.CourseID, &g.Name, &g.Description, &start, &end,
			&g.IsActive, &g.CreatedAt, &g.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		g.StartDate = mapNullTimePtr(start)
		g.EndDate = mapNullTimePtr(end)
		e.ClassGroup = &g
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// InsertEnrollments batch-inserts pairs. ON CONFLICT DO NOTHING keeps the
// add phase idempotent so a reconciliation retry cannot double-insert.
func (r *enrollmentsRepo) InsertEnrollments(ctx context.Context, userID string, classGroupIDs []string) error {
	if len(classGroupIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, classGroupID := range classGroupIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO class_enrollments (id, user_id, class_group_id, enrolled_at, is_active)
			 VALUES (?, ?, ?, ?, 1)
			 ON CONFLICT (user_id, class_group_id) DO NOTHING`,
			idx.New().String(), userID, classGroupID, now,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *enrollmentsRepo) DeleteEnrollments(ctx context.Context, userID string, classGroupIDs []string) error {
	if len(classGroupIDs) == 0 {
		return nil
	}

	args := append([]any{userID}, toAnySlice(classGroupIDs)...)
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM class_enrollments
		 WHERE user_id = ? AND class_group_id IN (`+placeholders(len(classGroupIDs))+`)`,
		args...,
	)
	return err
}
