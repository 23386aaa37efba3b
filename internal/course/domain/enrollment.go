package domain

import "time"

// Enrollment is the membership relation between a student and a class group.
// The (UserID, ClassGroupID) pair is the uniqueness key.
type Enrollment struct {
	ID           string
	UserID       string
	ClassGroupID string
	EnrolledAt   time.Time
	IsActive     bool

	ClassGroup *ClassGroup // joined when listing
}
