package repository

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/oops"

	"tweetwatch/internal/modules/account/domain"
	sharedErrors "tweetwatch/internal/shared/errors"
)

// FileStateStore implements StateStore using one JSON file per account.
// Writes are serialized per account so cycles for different accounts do not
// contend.
type FileStateStore struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStateStore creates a new file-based account state store
func NewFileStateStore(basePath string) (StateStore, error) {
	statePath := filepath.Join(basePath, "state")
	if err := os.MkdirAll(statePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create state directory").Wrap(err)
	}

	return &FileStateStore{
		basePath: statePath,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

func (s *FileStateStore) accountLock(handle string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[handle]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[handle] = lock
	}
	return lock
}

func (s *FileStateStore) path(handle string) string {
	return filepath.Join(s.basePath, handle+".json")
}

func (s *FileStateStore) read(handle string) (*domain.AccountState, error) {
	data, err := os.ReadFile(s.path(handle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sharedErrors.ErrStateNotFound
		}
		return nil, oops.With("handle", handle, "cause", err.Error()).Wrap(sharedErrors.ErrStoreUnavailable)
	}

	var state domain.AccountState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, oops.With("handle", handle, "cause", err.Error()).Wrap(sharedErrors.ErrStoreUnavailable)
	}

	return &state, nil
}

func (s *FileStateStore) write(state *domain.AccountState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return oops.With("handle", state.Handle, "context", "failed to marshal state").Wrap(err)
	}

	if err := os.WriteFile(s.path(state.Handle), data, 0644); err != nil {
		return oops.With("handle", state.Handle, "cause", err.Error()).Wrap(sharedErrors.ErrStoreUnavailable)
	}
	return nil
}

func (s *FileStateStore) Get(handle string) (*domain.AccountState, error) {
	lock := s.accountLock(handle)
	lock.Lock()
	defer lock.Unlock()

	return s.read(handle)
}

func (s *FileStateStore) Seed(state *domain.AccountState) error {
	lock := s.accountLock(state.Handle)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.read(state.Handle)
	switch {
	case err == nil:
		return oops.With("handle", state.Handle).Wrap(sharedErrors.ErrStateConflict)
	case errors.Is(err, sharedErrors.ErrStateNotFound):
		// fresh account, fall through to write
	default:
		return err
	}

	return s.write(state)
}

func (s *FileStateStore) CompareAndAdvance(handle string, category domain.Category, next, expected domain.Fingerprint) error {
	lock := s.accountLock(handle)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.read(handle)
	if err != nil {
		return err
	}

	if !state.Fingerprint(category).Equal(expected) {
		return oops.With("handle", handle, "category", string(category)).Wrap(sharedErrors.ErrStateConflict)
	}

	if state.Fingerprints == nil {
		state.Fingerprints = make(map[domain.Category]domain.Fingerprint)
	}
	state.Fingerprints[category] = next
	state.LastPoll = time.Now()

	return s.write(state)
}

func (s *FileStateStore) Touch(handle string) error {
	lock := s.accountLock(handle)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.read(handle)
	if err != nil {
		return err
	}

	state.LastPoll = time.Now()
	return s.write(state)
}

func (s *FileStateStore) Delete(handle string) error {
	lock := s.accountLock(handle)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.path(handle)); err != nil && !os.IsNotExist(err) {
		return oops.With("handle", handle, "cause", err.Error()).Wrap(sharedErrors.ErrStoreUnavailable)
	}
	return nil
}
