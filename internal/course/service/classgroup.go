package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
	"github.com/JorgeIteq1000/turma-digital/pkg/idx"
)

var (
	ErrClassGroupNameRequired = errors.New("classgroup: name is required")
	ErrClassGroupCourse       = errors.New("classgroup: course does not exist")
)

// ClassGroupService manages cohorts within courses.
type ClassGroupService struct {
	Store store.Store
}

type ClassGroupInput struct {
	CourseID    string
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    bool
}

func (s *ClassGroupService) Create(ctx context.Context, in ClassGroupInput) (domain.ClassGroup, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.ClassGroup{}, ErrClassGroupNameRequired
	}
	if _, err := s.Store.Courses().GetCourseByID(ctx, in.CourseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ClassGroup{}, ErrClassGroupCourse
		}
		return domain.ClassGroup{}, err
	}

	now := time.Now().UTC()
	g := domain.ClassGroup{
		ID:          idx.New().String(),
		CourseID:    in.CourseID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.ClassGroups().CreateClassGroup(ctx, g); err != nil {
		return domain.ClassGroup{}, err
	}
	return g, nil
}

func (s *ClassGroupService) Get(ctx context.Context, id string) (domain.ClassGroup, error) {
	return s.Store.ClassGroups().GetClassGroupByID(ctx, id)
}

func (s *ClassGroupService) List(ctx context.Context) ([]domain.ClassGroup, error) {
	return s.Store.ClassGroups().ListClassGroups(ctx)
}

func (s *ClassGroupService) Update(ctx context.Context, id string, in ClassGroupInput) (domain.ClassGroup, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.ClassGroup{}, ErrClassGroupNameRequired
	}

	g, err := s.Store.ClassGroups().GetClassGroupByID(ctx, id)
	if err != nil {
		return domain.ClassGroup{}, err
	}
	g.CourseID = in.CourseID
	g.Name = strings.TrimSpace(in.Name)
	g.Description = in.Description
	g.StartDate = in.StartDate
	g.EndDate = in.EndDate
	g.IsActive = in.IsActive
	g.UpdatedAt = time.Now().UTC()

	if err := s.Store.ClassGroups().UpdateClassGroup(ctx, g); err != nil {
		return domain.ClassGroup{}, err
	}
	return g, nil
}

func (s *ClassGroupService) Delete(ctx context.Context, id string) error {
	return s.Store.ClassGroups().DeleteClassGroup(ctx, id)
}
