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
	ErrLessonTitleRequired = errors.New("lesson: title is required")
	ErrLessonClassGroup    = errors.New("lesson: class group does not exist")
	ErrNotEnrolled         = errors.New("lesson: user is not enrolled in this class")
)

// LessonService manages lessons and the student-facing schedule views.
type LessonService struct {
	Store store.Store
}

type LessonInput struct {
	ClassGroupID string
	Title        string
	Description  string
	ScheduledAt  time.Time
	YoutubeURL   string
	MaterialURL  string
	MaterialName string
	OrderIndex   int
	IsPublished  bool
}

func (s *LessonService) Create(ctx context.Context, in LessonInput) (domain.Lesson, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Lesson{}, ErrLessonTitleRequired
	}
	if _, err := s.Store.ClassGroups().GetClassGroupByID(ctx, in.ClassGroupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Lesson{}, ErrLessonClassGroup
		}
		return domain.Lesson{}, err
	}

	now := time.Now().UTC()
	l := domain.Lesson{
		ID:           idx.New().String(),
		ClassGroupID: in.ClassGroupID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		ScheduledAt:  in.ScheduledAt,
		YoutubeURL:   in.YoutubeURL,
		MaterialURL:  in.MaterialURL,
		MaterialName: in.MaterialName,
		OrderIndex:   in.OrderIndex,
		IsPublished:  in.IsPublished,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Lessons().CreateLesson(ctx, l); err != nil {
		return domain.Lesson{}, err
	}
	return l, nil
}

func (s *LessonService) Get(ctx context.Context, id string) (domain.Lesson, error) {
	return s.Store.Lessons().GetLessonByID(ctx, id)
}

func (s *LessonService) List(ctx context.Context) ([]domain.Lesson, error) {
	return s.Store.Lessons().ListLessons(ctx)
}

// Schedule is a student's lesson listing split into upcoming and recorded
// halves by the lesson's scheduled slot.
type Schedule struct {
	Upcoming []domain.Lesson
	Recorded []domain.Lesson
}

// ScheduleForUser returns the published lessons of the user's enrolled
// classes, partitioned around now. Upcoming is soonest-first, recorded is
// newest-first.
func (s *LessonService) ScheduleForUser(ctx context.Context, userID string) (Schedule, error) {
	classIDs, err := s.Store.Enrollments().ListClassGroupIDs(ctx, userID)
	if err != nil {
		return Schedule{}, err
	}

	lessons, err := s.Store.Lessons().ListLessonsForClassGroups(ctx, classIDs, time.Time{}, time.Time{})
	if err != nil {
		return Schedule{}, err
	}

	now := time.Now().UTC()
	var sched Schedule
	for _, l := range lessons {
		if l.Recorded(now) {
			sched.Recorded = append(sched.Recorded, l)
		} else {
			sched.Upcoming = append(sched.Upcoming, l)
		}
	}
	// Lessons come back in schedule order; recorded reads better newest
	// first.
	for i, j := 0, len(sched.Recorded)-1; i < j; i, j = i+1, j-1 {
		sched.Recorded[i], sched.Recorded[j] = sched.Recorded[j], sched.Recorded[i]
	}
	return sched, nil
}

func (s *LessonService) Update(ctx context.Context, id string, in LessonInput) (domain.Lesson, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Lesson{}, ErrLessonTitleRequired
	}

	l, err := s.Store.Lessons().GetLessonByID(ctx, id)
	if err != nil {
		return domain.Lesson{}, err
	}
	l.ClassGroupID = in.ClassGroupID
	l.Title = strings.TrimSpace(in.Title)
	l.Description = in.Description
	l.ScheduledAt = in.ScheduledAt
	l.YoutubeURL = in.YoutubeURL
	l.MaterialURL = in.MaterialURL
	l.MaterialName = in.MaterialName
	l.OrderIndex = in.OrderIndex
	l.IsPublished = in.IsPublished
	l.UpdatedAt = time.Now().UTC()

	if err := s.Store.Lessons().UpdateLesson(ctx, l); err != nil {
		return domain.Lesson{}, err
	}
	return l, nil
}

func (s *LessonService) Delete(ctx context.Context, id string) error {
	return s.Store.Lessons().DeleteLesson(ctx, id)
}

// RecordView stores that a student opened a lesson. The student must be
// enrolled in the lesson's class.
func (s *LessonService) RecordView(ctx context.Context, userID, lessonID string, watchSeconds int) error {
	lesson, err := s.Store.Lessons().GetLessonByID(ctx, lessonID)
	if err != nil {
		return err
	}
	if err := s.requireEnrollment(ctx, userID, lesson.ClassGroupID); err != nil {
		return err
	}

	v := domain.LessonView{
		ID:                   idx.New().String(),
		UserID:               userID,
		LessonID:             lessonID,
		ViewedAt:             time.Now().UTC(),
		WatchDurationSeconds: watchSeconds,
	}
	return s.Store.LessonViews().CreateView(ctx, v)
}

func (s *LessonService) requireEnrollment(ctx context.Context, userID, classGroupID string) error {
	ids, err := s.Store.Enrollments().ListClassGroupIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == classGroupID {
			return nil
		}
	}
	return ErrNotEnrolled
}
