// Package service implements the monitored-account registry operations. The
// poll scheduler observes additions and removals through the Watcher.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"tweetwatch/internal/modules/account/domain"
	"tweetwatch/internal/modules/account/repository"
	snapshotDomain "tweetwatch/internal/modules/snapshot/domain"
	sharedErrors "tweetwatch/internal/shared/errors"
)

// Verifier checks that a handle exists upstream before it is monitored
type Verifier interface {
	LookupUser(ctx context.Context, handle string) (*snapshotDomain.UserInfo, error)
}

// Watcher is the scheduler surface the registry drives
type Watcher interface {
	Watch(handle string)
	Unwatch(handle string)
}

// Service manages the set of monitored accounts
type Service struct {
	registry repository.Registry
	states   repository.StateStore
	verifier Verifier
	watcher  Watcher
	logger   *slog.Logger
}

// New creates the account service
func New(registry repository.Registry, states repository.StateStore, verifier Verifier, watcher Watcher) *Service {
	return &Service{
		registry: registry,
		states:   states,
		verifier: verifier,
		watcher:  watcher,
		logger:   slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// NormalizeHandle strips the leading @ and surrounding whitespace.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// Add validates the handle upstream, registers it and starts its schedule.
func (s *Service) Add(ctx context.Context, handle string) (*domain.MonitoredAccount, error) {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return nil, sharedErrors.ErrAccountNotFound
	}

	if _, err := s.registry.GetAccount(handle); err == nil {
		return nil, oops.With("handle", handle).Wrap(sharedErrors.ErrAccountExists)
	}

	info, err := s.verifier.LookupUser(ctx, handle)
	if err != nil {
		return nil, oops.With("handle", handle, "context", "account verification failed").Wrap(err)
	}

	account := &domain.MonitoredAccount{
		Handle:      handle,
		DisplayName: info.DisplayName,
		AddedAt:     time.Now(),
		Enabled:     true,
	}
	if err := s.registry.SaveAccount(account); err != nil {
		return nil, err
	}

	s.watcher.Watch(handle)
	s.logger.Info("Account added", "handle", handle, "display_name", info.DisplayName)
	return account, nil
}

// Remove stops the schedule and deletes the account and its stored state.
func (s *Service) Remove(handle string) error {
	handle = NormalizeHandle(handle)

	s.watcher.Unwatch(handle)

	if err := s.registry.DeleteAccount(handle); err != nil {
		return err
	}
	if err := s.states.Delete(handle); err != nil {
		s.logger.Warn("Failed to delete account state", "handle", handle, "error", err)
	}

	s.logger.Info("Account removed", "handle", handle)
	return nil
}

// SetEnabled toggles monitoring for an account without forgetting its state,
// so re-enabling does not replay the timeline.
func (s *Service) SetEnabled(handle string, enabled bool) error {
	handle = NormalizeHandle(handle)

	account, err := s.registry.GetAccount(handle)
	if err != nil {
		return err
	}
	if account.Enabled == enabled {
		return nil
	}

	account.Enabled = enabled
	if err := s.registry.SaveAccount(account); err != nil {
		return err
	}

	if enabled {
		s.watcher.Watch(handle)
	} else {
		s.watcher.Unwatch(handle)
	}

	s.logger.Info("Account toggled", "handle", handle, "enabled", enabled)
	return nil
}

// List returns all monitored accounts.
func (s *Service) List() ([]*domain.MonitoredAccount, error) {
	return s.registry.GetAllAccounts()
}

// EnabledHandles returns the handles that should have an active schedule.
func (s *Service) EnabledHandles() ([]string, error) {
	accounts, err := s.registry.GetAllAccounts()
	if err != nil {
		return nil, err
	}

	return lo.FilterMap(accounts, func(a *domain.MonitoredAccount, _ int) (string, bool) {
		return a.Handle, a.Enabled
	}), nil
}
