package domain

import (
	"time"

	accountDomain "tweetwatch/internal/modules/account/domain"
)

// Tweet is the minimal payload the engine needs from one tweet
type Tweet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	URL       string    `json:"url"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	IsReply   bool      `json:"is_reply"`
	IsRetweet bool      `json:"is_retweet"`
}

// Snapshot is the full result of one fetch for one account. It is ephemeral:
// produced by the fetch collaborator, consumed by the change detector and
// discarded.
type Snapshot struct {
	Handle      string
	DisplayName string
	PinnedID    *string
	Originals   []Tweet
	Replies     []Tweet
	Retweets    []Tweet
	FetchedAt   time.Time
}

// New classifies the fetched tweets into the three list categories the same
// way the remote API flags them: a retweet wins over a reply.
func New(handle, displayName string, pinnedID *string, tweets []Tweet) *Snapshot {
	s := &Snapshot{
		Handle:      handle,
		DisplayName: displayName,
		PinnedID:    pinnedID,
		FetchedAt:   time.Now(),
	}
	for _, t := range tweets {
		switch {
		case t.IsRetweet:
			s.Retweets = append(s.Retweets, t)
		case t.IsReply:
			s.Replies = append(s.Replies, t)
		default:
			s.Originals = append(s.Originals, t)
		}
	}
	return s
}

// Tweets returns the snapshot list for one of the list categories.
func (s *Snapshot) Tweets(cat accountDomain.Category) []Tweet {
	switch cat {
	case accountDomain.CategoryOriginal:
		return s.Originals
	case accountDomain.CategoryReply:
		return s.Replies
	case accountDomain.CategoryRetweet:
		return s.Retweets
	}
	return nil
}
