package sqlite

import (
	"context"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type lessonViewsRepo struct {
	db dbtx
}

func (r *lessonViewsRepo) CreateView(ctx context.Context, v domain.LessonView) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lesson_views (id, user_id, lesson_id, viewed_at, watch_duration_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.LessonID, v.ViewedAt, v.WatchDurationSeconds,
	)
	return mapConstraint(err)
}

func (r *lessonViewsRepo) ListRecentActivity(ctx context.Context, limit int) ([]domain.RecentActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.viewed_at, u.full_name, l.title, g.name
		 FROM lesson_views v
		 JOIN users u ON u.id = v.user_id
		 JOIN lessons l ON l.id = v.lesson_id
		 JOIN class_groups g ON g.id = l.class_group_id
		 ORDER BY v.viewed_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activity []domain.RecentActivity
	for rows.Next() {
		var a domain.RecentActivity
		err := rows.Scan(&a.ViewedAt, &a.StudentName, &a.LessonTitle, &a.ClassName)
		if err != nil {
			return nil, err
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}
