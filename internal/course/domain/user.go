package domain

import "time"

// Role is the authorization tier controlling which views a user may access.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleManager Role = "manager"
	RoleSeller  Role = "seller"
)

// FallbackRole is applied when a role lookup fails. It must always be the
// most restrictive tier so a backend hiccup can never widen access.
const FallbackRole = RoleStudent

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleManager, RoleSeller:
		return true
	}
	return false
}

// DefaultDemoHours is the access window applied to demo accounts that were
// created without an explicit one.
const DefaultDemoHours = 24

// User is an account profile. Demo accounts carry a time-boxed access window
// measured from CreatedAt.
type User struct {
	ID           string
	Email        string
	FullName     string
	AvatarURL    string
	PasswordHash string
	IsDemo       bool
	DemoHours    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DemoDeadline returns the instant the account's demo window closes. The
// zero time is returned for non-demo accounts.
func (u User) DemoDeadline() time.Time {
	if !u.IsDemo {
		return time.Time{}
	}
	hours := u.DemoHours
	if hours <= 0 {
		hours = DefaultDemoHours
	}
	return u.CreatedAt.Add(time.Duration(hours) * time.Hour)
}

// DemoExpiredAt reports whether the account's demo window has closed at the
// given instant. The deadline itself counts as expired. Never true for
// non-demo accounts, regardless of CreatedAt.
func (u User) DemoExpiredAt(now time.Time) bool {
	if !u.IsDemo {
		return false
	}
	return !now.Before(u.DemoDeadline())
}
