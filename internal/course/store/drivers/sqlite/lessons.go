package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type lessonsRepo struct {
	db dbtx
}

const lessonJoin = `
	SELECT l.id, l.class_group_id, l.title, l.description, l.scheduled_at,
	       l.youtube_url, l.material_url, l.material_name, l.order_index,
	       l.is_published, l.created_at, l.updated_at,
	       g.id, g.course_id, g.name, g.description, g.start_date, g.end_date,
	       g.is_active, g.created_at, g.updated_at
	FROM lessons l
	JOIN class_groups g ON g.id = l.class_group_id`

func scanLessonJoined(row interface{ Scan(...any) error }) (domain.Lesson, error) {
	var (
		l          domain.Lesson
		g          domain.ClassGroup
		start, end sql.NullTime
	)
	err := row.Scan(
		&l.ID, &l.ClassGroupID, &l.Title, &l.Description, &l.ScheduledAt,
		&l.YoutubeURL, &l.MaterialURL, &l.MaterialName, &l.OrderIndex,
		&l.IsPublished, &l.CreatedAt, &l.UpdatedAt,
		&g.ID, &g.CourseID, &g.Name, &g.Description, &start, &end,
		&g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return domain.Lesson{}, err
	}
	g.StartDate = mapNullTimePtr(start)
	g.EndDate = mapNullTimePtr(end)
	l.ClassGroup = &g
	return l, nil
}

func collectLessons(rows *sql.Rows) ([]domain.Lesson, error) {
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		l, err := scanLessonJoined(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (r *lessonsRepo) CreateLesson(ctx context.Context, l domain.Lesson) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lessons (id, class_group_id, title, description, scheduled_at, youtube_url, material_url, material_name, order_index, is_published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ClassGroupID, l.Title, l.Description, l.ScheduledAt,
		l.YoutubeURL, l.MaterialURL, l.MaterialName, l.OrderIndex,
		l.IsPublished, l.CreatedAt, l.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *lessonsRepo) GetLessonByID(ctx context.Context, id string) (domain.Lesson, error) {
	row := r.db.QueryRowContext(ctx, lessonJoin+` WHERE l.id = ?`, id)
	l, err := scanLessonJoined(row)
	if err != nil {
		return domain.Lesson{}, mapNotFound(err)
	}
	return l, nil
}

func (r *lessonsRepo) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	rows, err := r.db.QueryContext(ctx, lessonJoin+` ORDER BY l.scheduled_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectLessons(rows)
}

func (r *lessonsRepo) ListLessonsForClassGroups(ctx context.Context, classGroupIDs []string, from, to time.Time) ([]domain.Lesson, error) {
	if len(classGroupIDs) == 0 {
		return nil, nil
	}

	query := lessonJoin + ` WHERE l.is_published = 1 AND l.class_group_id IN (` + placeholders(len(classGroupIDs)) + `)`
	args := toAnySlice(classGroupIDs)
	if !from.IsZero() {
		query += ` AND l.scheduled_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND l.scheduled_at < ?`
		args = append(args, to)
	}
	query += ` ORDER BY l.scheduled_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectLessons(rows)
}

func (r *lessonsRepo) ListUpcomingLessons(ctx context.Context, after time.Time, limit int) ([]domain.Lesson, error) {
	rows, err := r.db.QueryContext(ctx,
		lessonJoin+` WHERE l.is_published = 1 AND l.scheduled_at >= ? ORDER BY l.scheduled_at LIMIT ?`,
		after, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectLessons(rows)
}

func (r *lessonsRepo) CountLessonsForClassGroups(ctx context.Context, classGroupIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(classGroupIDs))
	if len(classGroupIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT class_group_id, COUNT(*) FROM lessons
		 WHERE is_published = 1 AND class_group_id IN (`+placeholders(len(classGroupIDs))+`)
		 GROUP BY class_group_id`,
		toAnySlice(classGroupIDs)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *lessonsRepo) CountScheduledAfter(ctx context.Context, after time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lessons WHERE scheduled_at >= ?`, after,
	).Scan(&n)
	return n, err
}

func (r *lessonsRepo) UpdateLesson(ctx context.Context, l domain.Lesson) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lessons SET class_group_id = ?, title = ?, description = ?, scheduled_at = ?, youtube_url = ?, material_url = ?, material_name = ?, order_index = ?, is_published = ?, updated_at = ?
		 WHERE id = ?`,
		l.ClassGroupID, l.Title, l.Description, l.ScheduledAt, l.YoutubeURL,
		l.MaterialURL, l.MaterialName, l.OrderIndex, l.IsPublished, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *lessonsRepo) DeleteLesson(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
