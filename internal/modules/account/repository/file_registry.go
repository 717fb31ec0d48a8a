package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"tweetwatch/internal/modules/account/domain"
	sharedErrors "tweetwatch/internal/shared/errors"
)

// FileRegistry implements Registry using one JSON file per account
type FileRegistry struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileRegistry creates a new file-based account registry
func NewFileRegistry(basePath string) (Registry, error) {
	accountsPath := filepath.Join(basePath, "accounts")
	if err := os.MkdirAll(accountsPath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create accounts directory").Wrap(err)
	}

	return &FileRegistry{basePath: accountsPath}, nil
}

func (r *FileRegistry) SaveAccount(account *domain.MonitoredAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.basePath, account.Handle+".json")
	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return oops.With("handle", account.Handle, "context", "failed to marshal account").Wrap(err)
	}

	return os.WriteFile(path, data, 0644)
}

func (r *FileRegistry) GetAccount(handle string) (*domain.MonitoredAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path := filepath.Join(r.basePath, handle+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sharedErrors.ErrAccountNotFound
		}
		return nil, oops.With("handle", handle, "context", "failed to read account").Wrap(err)
	}

	var account domain.MonitoredAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, oops.With("handle", handle, "context", "failed to unmarshal account").Wrap(err)
	}

	return &account, nil
}

func (r *FileRegistry) GetAllAccounts() ([]*domain.MonitoredAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, oops.With("directory", r.basePath, "context", "failed to read accounts directory").Wrap(err)
	}

	accounts := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*domain.MonitoredAccount, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return nil, false
		}

		path := filepath.Join(r.basePath, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false
		}

		var account domain.MonitoredAccount
		if err := json.Unmarshal(data, &account); err != nil {
			return nil, false
		}

		return &account, true
	})

	return accounts, nil
}

func (r *FileRegistry) DeleteAccount(handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.basePath, handle+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return sharedErrors.ErrAccountNotFound
		}
		return oops.With("handle", handle, "context", "failed to delete account").Wrap(err)
	}
	return nil
}
