package domain

import (
	"fmt"
	"time"
)

// ConsentRecord tracks a user's personal-data-processing consent. One record
// per user, mutated only by the user's own explicit action.
type ConsentRecord struct {
	UserID      int64
	Enabled     bool
	RequesterIP string
	CreatedOn   time.Time
}

// DNTPolicy enumerates how a stored consent preference interacts with the
// browser's Do-Not-Track signal. The precedence is an explicit configuration
// choice, never inferred.
type DNTPolicy string

const (
	// DNTPolicyIgnore disregards the DNT signal; only stored consent counts.
	DNTPolicyIgnore DNTPolicy = "ignore"
	// DNTPolicyOverrides lets an active DNT signal veto stored consent.
	DNTPolicyOverrides DNTPolicy = "dnt-overrides"
	// DNTPolicyStoredWins honors the stored preference when one exists; users
	// who never chose are treated as not consenting.
	DNTPolicyStoredWins DNTPolicy = "stored-overrides"
)

var validDNTPolicies = map[DNTPolicy]bool{
	DNTPolicyIgnore:     true,
	DNTPolicyOverrides:  true,
	DNTPolicyStoredWins: true,
}

// ParseDNTPolicy constructs a DNTPolicy from configuration input.
func ParseDNTPolicy(s string) (DNTPolicy, error) {
	p := DNTPolicy(s)
	if !validDNTPolicies[p] {
		return "", fmt.Errorf("invalid dnt policy %q", s)
	}
	return p, nil
}
