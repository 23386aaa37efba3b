package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/cryptox"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
)

var (
	ErrEmailRequired = errors.New("student: email is required")
	ErrBadRole       = errors.New("student: unknown role")
)

// StudentService is the admin's roster management surface.
type StudentService struct {
	Store    store.Store
	Roles    *RoleResolver
	Sessions *SessionService
	Logger   *slog.Logger
}

type CreateStudentInput struct {
	Email     string
	FullName  string
	Password  string // generated when empty
	Role      domain.Role
	IsDemo    bool
	DemoHours int
}

// CreateStudentResult carries the generated password back exactly once so
// the admin can hand it to the student. It is never stored in the clear.
type CreateStudentResult struct {
	User     domain.User
	Role     domain.Role
	Password string
}

// Create registers an account with a role binding. User and role land in
// one transaction so a crash cannot leave an account without a role row.
func (s *StudentService) Create(ctx context.Context, in CreateStudentInput) (CreateStudentResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return CreateStudentResult{}, ErrEmailRequired
	}

	role := in.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !role.Valid() {
		return CreateStudentResult{}, ErrBadRole
	}

	password := in.Password
	if password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			return CreateStudentResult{}, fmt.Errorf("generate password: %w", err)
		}
		password = generated
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return CreateStudentResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		IsDemo:       in.IsDemo,
		DemoHours:    in.DemoHours,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.Roles().SetRole(ctx, user.ID, role)
	})
	if err != nil {
		return CreateStudentResult{}, err
	}

	s.Logger.Info("student created", "user_id", user.ID, "role", role, "is_demo", in.IsDemo)
	return CreateStudentResult{User: user, Role: role, Password: password}, nil
}

// StudentProfile is a roster row: the account plus its role and current
// enrollments.
type StudentProfile struct {
	User        domain.User
	Role        domain.Role
	Enrollments []domain.Enrollment
}

func (s *StudentService) Get(ctx context.Context, userID string) (StudentProfile, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return StudentProfile{}, err
	}
	enrollments, err := s.Store.Enrollments().ListByUser(ctx, userID)
	if err != nil {
		return StudentProfile{}, err
	}
	return StudentProfile{
		User:        user,
		Role:        s.Roles.Resolve(ctx, userID),
		Enrollments: enrollments,
	}, nil
}

// ListStudents returns every account holding the student role, with
// enrollments joined.
func (s *StudentService) ListStudents(ctx context.Context) ([]StudentProfile, error) {
	users, err := s.Store.Users().ListByRole(ctx, domain.RoleStudent)
	if err != nil {
		return nil, err
	}

	profiles := make([]StudentProfile, 0, len(users))
	for _, u := range users {
		enrollments, err := s.Store.Enrollments().ListByUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, StudentProfile{
			User:        u,
			Role:        domain.RoleStudent,
			Enrollments: enrollments,
		})
	}
	return profiles, nil
}

// SetRole rebinds the user's role and drops the cached value so the change
// is visible immediately instead of after the cache TTL.
func (s *StudentService) SetRole(ctx context.Context, userID string, role domain.Role) error {
	if !role.Valid() {
		return ErrBadRole
	}
	if err := s.Store.Roles().SetRole(ctx, userID, role); err != nil {
		return err
	}
	s.Roles.Invalidate(ctx, userID)
	return nil
}

// SetDemoAccess adjusts the demo flag and window.
func (s *StudentService) SetDemoAccess(ctx context.Context, userID string, isDemo bool, demoHours int) error {
	if demoHours <= 0 {
		demoHours = domain.DefaultDemoHours
	}
	return s.Store.Users().UpdateDemoAccess(ctx, userID, isDemo, demoHours)
}

// UpdateProfile changes display fields.
func (s *StudentService) UpdateProfile(ctx context.Context, userID, fullName, avatarURL string) error {
	return s.Store.Users().UpdateProfile(ctx, userID, fullName, avatarURL)
}

// Delete removes the account after revoking its sessions.
func (s *StudentService) Delete(ctx context.Context, userID string) error {
	if err := s.Sessions.SignOutUser(ctx, userID); err != nil {
		return err
	}
	return s.Store.Users().DeleteUser(ctx, userID)
}
