package sqlite

import (
	"context"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetRoleByUserID(ctx context.Context, userID string) (domain.Role, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = ?`, userID,
	).Scan(&role)
	if err != nil {
		return "", mapNotFound(err)
	}
	return domain.Role(role), nil
}

func (r *rolesRepo) SetRole(ctx context.Context, userID string, role domain.Role) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET role = excluded.role, updated_at = excluded.updated_at`,
		userID, string(role), now, now,
	)
	return err
}

func (r *rolesRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_roles WHERE role = ?`, string(role),
	).Scan(&n)
	return n, err
}
