package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
)

// DashboardService aggregates the numbers behind the admin and student
// landing pages.
type DashboardService struct {
	Store store.Store
}

type AdminDashboard struct {
	StudentCount      int
	ActiveCourseCount int
	ActiveClassCount  int
	UpcomingLessons   int
	NextLessons       []domain.Lesson
	RecentActivity    []domain.RecentActivity
}

func (s *DashboardService) Admin(ctx context.Context) (AdminDashboard, error) {
	now := time.Now().UTC()
	var d AdminDashboard
	var err error

	if d.StudentCount, err = s.Store.Roles().CountByRole(ctx, domain.RoleStudent); err != nil {
		return AdminDashboard{}, fmt.Errorf("count students: %w", err)
	}
	if d.ActiveCourseCount, err = s.Store.Courses().CountActiveCourses(ctx); err != nil {
		return AdminDashboard{}, fmt.Errorf("count courses: %w", err)
	}
	if d.ActiveClassCount, err = s.Store.ClassGroups().CountActiveClassGroups(ctx); err != nil {
		return AdminDashboard{}, fmt.Errorf("count classes: %w", err)
	}
	if d.UpcomingLessons, err = s.Store.Lessons().CountScheduledAfter(ctx, now); err != nil {
		return AdminDashboard{}, fmt.Errorf("count upcoming lessons: %w", err)
	}
	if d.NextLessons, err = s.Store.Lessons().ListUpcomingLessons(ctx, now, 5); err != nil {
		return AdminDashboard{}, fmt.Errorf("list next lessons: %w", err)
	}
	if d.RecentActivity, err = s.Store.LessonViews().ListRecentActivity(ctx, 10); err != nil {
		return AdminDashboard{}, fmt.Errorf("list recent activity: %w", err)
	}
	return d, nil
}

// ClassSummary is one of the student's classes with its lesson count.
type ClassSummary struct {
	ClassGroup  domain.ClassGroup
	LessonCount int
}

type StudentDashboard struct {
	Classes  []ClassSummary
	Upcoming []domain.Lesson
	Recent   []domain.Lesson
}

func (s *DashboardService) Student(ctx context.Context, userID string) (StudentDashboard, error) {
	now := time.Now().UTC()

	enrollments, err := s.Store.Enrollments().ListByUser(ctx, userID)
	if err != nil {
		return StudentDashboard{}, fmt.Errorf("list enrollments: %w", err)
	}

	classIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if e.IsActive {
			classIDs = append(classIDs, e.ClassGroupID)
		}
	}

	counts, err := s.Store.Lessons().CountLessonsForClassGroups(ctx, classIDs)
	if err != nil {
		return StudentDashboard{}, fmt.Errorf("count lessons: %w", err)
	}

	var d StudentDashboard
	for _, e := range enrollments {
		if !e.IsActive || e.ClassGroup == nil {
			continue
		}
		d.Classes = append(d.Classes, ClassSummary{
			ClassGroup:  *e.ClassGroup,
			LessonCount: counts[e.ClassGroupID],
		})
	}

	if d.Upcoming, err = s.Store.Lessons().ListLessonsForClassGroups(ctx, classIDs, now, time.Time{}); err != nil {
		return StudentDashboard{}, fmt.Errorf("list upcoming: %w", err)
	}
	if len(d.Upcoming) > 5 {
		d.Upcoming = d.Upcoming[:5]
	}

	recent, err := s.Store.Lessons().ListLessonsForClassGroups(ctx, classIDs, time.Time{}, now)
	if err != nil {
		return StudentDashboard{}, fmt.Errorf("list recent: %w", err)
	}
	// recent comes back oldest first; show the latest few.
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	d.Recent = recent

	return d, nil
}
