package detect

import (
	accountDomain "tweetwatch/internal/modules/account/domain"
	snapshotDomain "tweetwatch/internal/modules/snapshot/domain"
)

// EventType distinguishes the detected change classes
type EventType string

const (
	EventNewTweet      EventType = "new_tweet"
	EventPinnedChanged EventType = "pinned_changed"
	EventPinnedRemoved EventType = "pinned_removed"
)

// Event is one detected, not-yet-delivered change. An Event is only ever
// constructed for a tweet id that is absent from the account's current
// fingerprint for its category.
type Event struct {
	Handle      string
	DisplayName string
	Type        EventType
	Category    accountDomain.Category
	// Tweet carries the payload for new-tweet and pinned-changed events; it
	// is nil for pinned-removed.
	Tweet *snapshotDomain.Tweet
}
