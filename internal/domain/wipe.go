package domain

import "fmt"

// WipeType identifies who or what triggered an erasure.
// Invariant: the value must be one of the supported wipe types.
//
// Usage: construct via ParseWipeType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type WipeType string

const (
	// WipeTypeUser is a self-service erasure requested by the account owner.
	WipeTypeUser WipeType = "user"
	// WipeTypeAdmin is an erasure performed by an administrator on a user's behalf.
	WipeTypeAdmin WipeType = "admin"
	// WipeTypeLifecycle is an unattended erasure of a dormant account.
	WipeTypeLifecycle WipeType = "lifecycle"
)

// validWipeTypes is the single source of truth for valid wipe types.
var validWipeTypes = map[WipeType]bool{
	WipeTypeUser:      true,
	WipeTypeAdmin:     true,
	WipeTypeLifecycle: true,
}

// ParseWipeType constructs a WipeType from external input.
func ParseWipeType(s string) (WipeType, error) {
	t := WipeType(s)
	if !validWipeTypes[t] {
		return "", fmt.Errorf("invalid wipe type %q", s)
	}
	return t, nil
}

// IsValid checks if the wipe type is one of the supported enum values.
func (t WipeType) IsValid() bool {
	return validWipeTypes[t]
}

// String returns the string representation of the wipe type.
func (t WipeType) String() string {
	return string(t)
}

// DeletionReport is what a domain handler returns for an erasure call: a
// mapping from a human label (e.g. "tfa", "log", "dlid") to the domain-local
// identifiers of the records that were deleted.
//
// Invariant: values are identifiers only, never personally identifiable data.
type DeletionReport map[string][]string

// NewDeletionReport returns an empty report.
func NewDeletionReport() DeletionReport {
	return make(DeletionReport)
}

// Add appends deleted record identifiers under the given label.
func (r DeletionReport) Add(what string, ids ...string) {
	r[what] = append(r[what], ids...)
}

// Empty reports whether no identifiers were recorded under any label.
func (r DeletionReport) Empty() bool {
	for _, ids := range r {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// Count returns the total number of deleted identifiers across all labels.
func (r DeletionReport) Count() int {
	n := 0
	for _, ids := range r {
		n += len(ids)
	}
	return n
}
