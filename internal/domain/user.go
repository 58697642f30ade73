package domain

import "time"

// User is the account record the coordinator acts on. Only the fields the
// export/erasure/lifecycle flows need are modeled here; the full account row
// is owned by the user store.
type User struct {
	ID            int64
	Username      string
	Name          string
	Email         string
	RegisterDate  time.Time
	LastVisitDate time.Time
	// Pseudonymized is set once an erasure has replaced the row's personal
	// fields with opaque placeholders.
	Pseudonymized bool
}

// LastActivity returns the most recent activity instant: the last visit, or
// the registration date for accounts that never logged in.
func (u User) LastActivity() time.Time {
	if u.LastVisitDate.After(u.RegisterDate) {
		return u.LastVisitDate
	}
	return u.RegisterDate
}

// LifecycleCandidate is derived, never stored: a snapshot of a user's
// eligibility for unattended deletion as of the evaluation instant.
type LifecycleCandidate struct {
	UserID        int64
	RegisterDate  time.Time
	LastVisitDate time.Time
	Eligible      bool
	When          time.Time
}
