package domain

import "time"

type Course struct {
	ID           string
	Name         string
	Description  string
	ThumbnailURL string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClassGroup is a cohort of students working through a course together.
type ClassGroup struct {
	ID          string
	CourseID    string
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Course *Course // joined when listing
}
