package domain

import "time"

type Lesson struct {
	ID           string
	ClassGroupID string
	Title        string
	Description  string
	ScheduledAt  time.Time
	YoutubeURL   string
	MaterialURL  string
	MaterialName string
	OrderIndex   int
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	ClassGroup *ClassGroup // joined when listing
}

// Recorded reports whether the lesson's scheduled slot has passed, meaning
// students see it under recorded lessons rather than upcoming ones.
func (l Lesson) Recorded(now time.Time) bool {
	return l.ScheduledAt.Before(now)
}

// LessonView records that a student opened a lesson, with an optional watch
// duration reported by the player.
type LessonView struct {
	ID                   string
	UserID               string
	LessonID             string
	ViewedAt             time.Time
	WatchDurationSeconds int
}

// RecentActivity is a lesson view joined with display names for the admin
// activity feed.
type RecentActivity struct {
	ViewedAt    time.Time
	StudentName string
	LessonTitle string
	ClassName   string
}
