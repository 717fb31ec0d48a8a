package repository

import (
	"tweetwatch/internal/modules/account/domain"
)

// Registry persists the set of monitored accounts. It is CRUD-managed from
// the HTTP API; the poll scheduler only observes it.
type Registry interface {
	SaveAccount(account *domain.MonitoredAccount) error
	GetAccount(handle string) (*domain.MonitoredAccount, error)
	GetAllAccounts() ([]*domain.MonitoredAccount, error)
	DeleteAccount(handle string) error
}

// StateStore persists per-account last-seen fingerprints. CompareAndAdvance
// is the sole mutator of existing records and is atomic per account: two
// overlapping cycles for the same account cannot double-advance.
type StateStore interface {
	Get(handle string) (*domain.AccountState, error)
	// Seed creates the baseline record for a freshly added account. It fails
	// with ErrStateConflict if a record already exists.
	Seed(state *domain.AccountState) error
	// CompareAndAdvance replaces the fingerprint of one category, but only if
	// the stored fingerprint still equals expected. ErrStateConflict means
	// another cycle advanced first; the caller must not resend anything.
	CompareAndAdvance(handle string, category domain.Category, next, expected domain.Fingerprint) error
	// Touch records the time of the latest completed poll.
	Touch(handle string) error
	Delete(handle string) error
}
