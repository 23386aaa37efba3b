package sqlite

import (
	"context"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, full_name, avatar_url, password_hash, is_demo, demo_hours, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.AvatarURL, &u.PasswordHash,
		&u.IsDemo, &u.DemoHours, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, avatar_url, password_hash, is_demo, demo_hours, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, u.AvatarURL, u.PasswordHash,
		u.IsDemo, u.DemoHours, u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, fullName, avatarURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		fullName, avatarURL, time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *usersRepo) UpdateDemoAccess(ctx context.Context, userID string, isDemo bool, demoHours int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_demo = ?, demo_hours = ?, updated_at = ? WHERE id = ?`,
		isDemo, demoHours, time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *usersRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.full_name, u.avatar_url, u.password_hash, u.is_demo, u.demo_hours, u.created_at, u.updated_at
		 FROM users u
		 JOIN user_roles ur ON ur.user_id = u.id
		 WHERE ur.role = ?
		 ORDER BY u.full_name`,
		string(role),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
