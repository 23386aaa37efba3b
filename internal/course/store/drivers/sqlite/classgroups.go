package sqlite

import (
	"context"
	"database/sql"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type classGroupsRepo struct {
	db dbtx
}

const classGroupJoin = `
	SELECT g.id, g.course_id, g.name, g.description, g.start_date, g.end_date,
	       g.is_active, g.created_at, g.updated_at,
	       c.id, c.name, c.description, c.thumbnail_url, c.is_active, c.created_at, c.updated_at
	FROM class_groups g
	JOIN courses c ON c.id = g.course_id`

func scanClassGroupJoined(row interface{ Scan(...any) error }) (domain.ClassGroup, error) {
	var (
		g          domain.ClassGroup
		c          domain.Course
		start, end sql.NullTime
	)
	err := row.Scan(
		&g.ID, &g.CourseID, &g.Name, &g.Description, &start, &end,
		&g.IsActive, &g.CreatedAt, &g.UpdatedAt,
		&c.ID, &c.Name, &c.Description, &c.ThumbnailURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.ClassGroup{}, err
	}
	g.StartDate = mapNullTimePtr(start)
	g.EndDate = mapNullTimePtr(end)
	g.Course = &c
	return g, nil
}

func (r *classGroupsRepo) CreateClassGroup(ctx context.Context, g domain.ClassGroup) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO class_groups (id, course_id, name, description, start_date, end_date, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.CourseID, g.Name, g.Description,
		mapOptionalTime(g.StartDate), mapOptionalTime(g.EndDate),
		g.IsActive, g.CreatedAt, g.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *classGroupsRepo) GetClassGroupByID(ctx context.Context, id string) (domain.ClassGroup, error) {
	row := r.db.QueryRowContext(ctx, classGroupJoin+` WHERE g.id = ?`, id)
	g, err := scanClassGroupJoined(row)
	if err != nil {
		return domain.ClassGroup{}, mapNotFound(err)
	}
	return g, nil
}

func (r *classGroupsRepo) ListClassGroups(ctx context.Context) ([]domain.ClassGroup, error) {
	rows, err := r.db.QueryContext(ctx, classGroupJoin+` ORDER BY g.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.ClassGroup
	for rows.Next() {
		g, err := scanClassGroupJoined(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *classGroupsRepo) UpdateClassGroup(ctx context.Context, g domain.ClassGroup) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE class_groups SET course_id = ?, name = ?, description = ?, start_date = ?, end_date = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		g.CourseID, g.Name, g.Description,
		mapOptionalTime(g.StartDate), mapOptionalTime(g.EndDate),
		g.IsActive, g.UpdatedAt, g.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *classGroupsRepo) DeleteClassGroup(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_groups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *classGroupsRepo) CountActiveClassGroups(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM class_groups WHERE is_active = 1`).Scan(&n)
	return n, err
}
