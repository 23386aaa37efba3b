package domain

import "time"

// LessonNote is a student's note anchored to a playback position, stored in
// whole seconds.
type LessonNote struct {
	ID               string
	UserID           string
	LessonID         string
	Content          string
	TimestampSeconds int
	CreatedAt        time.Time
}
