package sqlite

import (
	"context"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type coursesRepo struct {
	db dbtx
}

const courseColumns = `id, name, description, thumbnail_url, is_active, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }) (domain.Course, error) {
	var c domain.Course
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.ThumbnailURL,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *coursesRepo) CreateCourse(ctx context.Context, c domain.Course) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (id, name, description, thumbnail_url, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.ThumbnailURL, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *coursesRepo) GetCourseByID(ctx context.Context, id string) (domain.Course, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
	c, err := scanCourse(row)
	if err != nil {
		return domain.Course{}, mapNotFound(err)
	}
	return c, nil
}

func (r *coursesRepo) ListCourses(ctx context.Context) ([]domain.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *coursesRepo) UpdateCourse(ctx context.Context, c domain.Course) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET name = ?, description = ?, thumbnail_url = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Description, c.ThumbnailURL, c.IsActive, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *coursesRepo) DeleteCourse(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *coursesRepo) CountActiveCourses(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM courses WHERE is_active = 1`).Scan(&n)
	return n, err
}
