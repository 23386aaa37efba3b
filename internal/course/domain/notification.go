package domain

import "time"

// Notification is a stored notice shown in the bell menu. UserID is empty
// for broadcast notices visible to everyone.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Link      string
	Read      bool
	CreatedAt time.Time
}
