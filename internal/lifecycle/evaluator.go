// Package lifecycle decides whether dormant accounts may be purged without an
// explicit request, and runs the unattended deletion batches.
package lifecycle

import (
	"time"

	"datacustody/internal/domain"
)

// Policy holds the configured retention windows.
type Policy struct {
	// InactivityThreshold is how long an account may stay inactive before it
	// qualifies for unattended deletion.
	InactivityThreshold time.Duration

	// GracePeriod is the warning window: accounts within GracePeriod of the
	// threshold are notified before they age out.
	GracePeriod time.Duration
}

// EligibleAt reports whether the account qualifies for unattended deletion
// as of the given instant. Pure: eligibility is a function of the account's
// last activity (last visit, or registration if never visited) and the
// policy, nothing else. Given no new activity, eligibility is monotonic in
// time - once true it stays true.
func EligibleAt(u domain.User, asOf time.Time, p Policy) bool {
	if u.Pseudonymized {
		return false
	}
	return u.LastActivity().Before(asOf.Add(-p.InactivityThreshold))
}

// WarnAt reports whether the account is inside the warning window: not yet
// eligible, but due to become eligible within the grace period.
func WarnAt(u domain.User, asOf time.Time, p Policy) bool {
	if u.Pseudonymized || EligibleAt(u, asOf, p) {
		return false
	}
	return u.LastActivity().Before(asOf.Add(-p.InactivityThreshold + p.GracePeriod))
}

// Candidate builds the derived eligibility snapshot for one account.
func Candidate(u domain.User, asOf time.Time, p Policy) domain.LifecycleCandidate {
	return domain.LifecycleCandidate{
		UserID:        u.ID,
		RegisterDate:  u.RegisterDate,
		LastVisitDate: u.LastVisitDate,
		Eligible:      EligibleAt(u, asOf, p),
		When:          asOf,
	}
}
