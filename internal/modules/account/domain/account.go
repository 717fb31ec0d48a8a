package domain

import (
	"time"

	"github.com/samber/lo"
)

// MonitoredAccount represents a Twitter/X account being monitored
type MonitoredAccount struct {
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	AddedAt     time.Time `json:"added_at"`
	Enabled     bool      `json:"enabled"`
	// Degraded is set when fetching repeatedly fails with an auth error and
	// cleared on the next successful poll. Purely informational.
	Degraded bool `json:"degraded,omitempty"`
}

// Fingerprint is the per-category marker of already-seen content. For the
// pinned category only Pinned is used (nil means no pinned tweet); for the
// list categories IDs is a bounded window of recently seen tweet ids, oldest
// first.
type Fingerprint struct {
	Pinned *string  `json:"pinned,omitempty"`
	IDs    []string `json:"ids,omitempty"`
}

// Contains reports whether the id is inside the fingerprint window.
func (f Fingerprint) Contains(id string) bool {
	return lo.Contains(f.IDs, id)
}

// Equal compares two fingerprints for the compare-and-advance check.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if (f.Pinned == nil) != (other.Pinned == nil) {
		return false
	}
	if f.Pinned != nil && *f.Pinned != *other.Pinned {
		return false
	}
	if len(f.IDs) != len(other.IDs) {
		return false
	}
	for i, id := range f.IDs {
		if other.IDs[i] != id {
			return false
		}
	}
	return true
}

// Merge appends ids (assumed sorted oldest first) to the window and trims it
// to the newest limit entries.
func (f Fingerprint) Merge(ids []string, limit int) Fingerprint {
	merged := append(append([]string{}, f.IDs...), ids...)
	if limit > 0 && len(merged) > limit {
		merged = merged[len(merged)-limit:]
	}
	return Fingerprint{IDs: merged}
}

// AccountState holds the last-seen fingerprints for one monitored account.
// The record exists only after the first successful baseline poll.
type AccountState struct {
	Handle       string                   `json:"handle"`
	Fingerprints map[Category]Fingerprint `json:"fingerprints"`
	LastPoll     time.Time                `json:"last_poll"`
}

// Fingerprint returns the stored fingerprint for a category, zero value when
// the category has never been seen.
func (s *AccountState) Fingerprint(cat Category) Fingerprint {
	if s == nil || s.Fingerprints == nil {
		return Fingerprint{}
	}
	return s.Fingerprints[cat]
}
