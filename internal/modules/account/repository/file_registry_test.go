package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetwatch/internal/modules/account/domain"
	sharedErrors "tweetwatch/internal/shared/errors"
)

func TestRegistryRoundtrip(t *testing.T) {
	registry, err := NewFileRegistry(t.TempDir())
	require.NoError(t, err)

	account := &domain.MonitoredAccount{
		Handle:      "alice",
		DisplayName: "Alice",
		AddedAt:     time.Now(),
		Enabled:     true,
	}
	require.NoError(t, registry.SaveAccount(account))

	got, err := registry.GetAccount("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.True(t, got.Enabled)

	all, err := registry.GetAllAccounts()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, registry.DeleteAccount("alice"))
	_, err = registry.GetAccount("alice")
	assert.ErrorIs(t, err, sharedErrors.ErrAccountNotFound)
}

func TestRegistryMissingAccount(t *testing.T) {
	registry, err := NewFileRegistry(t.TempDir())
	require.NoError(t, err)

	_, err = registry.GetAccount("nobody")
	assert.ErrorIs(t, err, sharedErrors.ErrAccountNotFound)

	err = registry.DeleteAccount("nobody")
	assert.ErrorIs(t, err, sharedErrors.ErrAccountNotFound)
}
