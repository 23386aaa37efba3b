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

var ErrCourseNameRequired = errors.New("course: name is required")

// CourseService manages the course catalog.
type CourseService struct {
	Store store.Store
}

type CourseInput struct {
	Name         string
	Description  string
	ThumbnailURL string
	IsActive     bool
}

func (s *CourseService) Create(ctx context.Context, in CourseInput) (domain.Course, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Course{}, ErrCourseNameRequired
	}

	now := time.Now().UTC()
	c := domain.Course{
		ID:           idx.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		ThumbnailURL: in.ThumbnailURL,
		IsActive:     in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Courses().CreateCourse(ctx, c); err != nil {
		return domain.Course{}, err
	}
	return c, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (domain.Course, error) {
	return s.Store.Courses().GetCourseByID(ctx, id)
}

func (s *CourseService) List(ctx context.Context) ([]domain.Course, error) {
	return s.Store.Courses().ListCourses(ctx)
}

func (s *CourseService) Update(ctx context.Context, id string, in CourseInput) (domain.Course, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Course{}, ErrCourseNameRequired
	}

	c, err := s.Store.Courses().GetCourseByID(ctx, id)
	if err != nil {
		return domain.Course{}, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	c.ThumbnailURL = in.ThumbnailURL
	c.IsActive = in.IsActive
	c.UpdatedAt = time.Now().UTC()

	if err := s.Store.Courses().UpdateCourse(ctx, c); err != nil {
		return domain.Course{}, err
	}
	return c, nil
}

func (s *CourseService) Delete(ctx context.Context, id string) error {
	return s.Store.Courses().DeleteCourse(ctx, id)
}
