package errors

import "errors"

// Configuration errors
var (
	ErrMissingTwitterAPIKey = errors.New("TWITTER_API_KEY is required")
	ErrMissingBotToken      = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingChatID        = errors.New("TELEGRAM_CHAT_ID is required")
)

// Registry errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already monitored")
)

// State store errors
var (
	ErrStateNotFound    = errors.New("account state not found")
	ErrStateConflict    = errors.New("account state changed since read")
	ErrStoreUnavailable = errors.New("state store unavailable")
)

// Fetch errors returned by the tweet API collaborator. Everything except
// ErrFetchNotFound is transient from the scheduler's point of view: the next
// tick is the retry.
var (
	ErrFetchTransient    = errors.New("tweet fetch failed")
	ErrFetchRateLimited  = errors.New("tweet fetch rate limited")
	ErrFetchUnauthorized = errors.New("tweet fetch unauthorized")
	ErrFetchNotFound     = errors.New("tweet account not found")
)

// Delivery errors returned by the messaging collaborator
var (
	ErrDeliveryTransient    = errors.New("notification delivery failed")
	ErrDeliveryRateLimited  = errors.New("notification delivery rate limited")
	ErrDeliveryUnauthorized = errors.New("notification delivery unauthorized")
)
