package detect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountDomain "tweetwatch/internal/modules/account/domain"
	snapshotDomain "tweetwatch/internal/modules/snapshot/domain"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func tweet(id string, offset time.Duration) snapshotDomain.Tweet {
	return snapshotDomain.Tweet{
		ID:        id,
		Text:      "tweet " + id,
		CreatedAt: baseTime.Add(offset),
	}
}

func snap(handle string, pinned *string, originals ...snapshotDomain.Tweet) *snapshotDomain.Snapshot {
	return &snapshotDomain.Snapshot{
		Handle:      handle,
		DisplayName: "Test User",
		PinnedID:    pinned,
		Originals:   originals,
		FetchedAt:   baseTime,
	}
}

func stateFrom(result Result, handle string) *accountDomain.AccountState {
	return &accountDomain.AccountState{
		Handle:       handle,
		Fingerprints: result.Next,
		LastPoll:     baseTime,
	}
}

func TestBaselineSilence(t *testing.T) {
	s := snap("alice", nil,
		tweet("100", 0),
		tweet("101", time.Minute),
		tweet("102", 2*time.Minute),
	)

	result := Diff(nil, s, DefaultOptions())

	assert.Empty(t, result.Events)
	fp := result.Next[accountDomain.CategoryOriginal]
	assert.ElementsMatch(t, []string{"100", "101", "102"}, fp.IDs)
}

func TestSingleNewTweet(t *testing.T) {
	baseline := Diff(nil, snap("alice", nil, tweet("100", 0)), DefaultOptions())
	state := stateFrom(baseline, "alice")

	result := Diff(state, snap("alice", nil, tweet("100", 0), tweet("101", time.Minute)), DefaultOptions())

	require.Len(t, result.Events, 1)
	ev := result.Events[0]
	assert.Equal(t, EventNewTweet, ev.Type)
	assert.Equal(t, accountDomain.CategoryOriginal, ev.Category)
	assert.Equal(t, "101", ev.Tweet.ID)
	assert.Equal(t, "alice", ev.Handle)
}

func TestNoDuplicateOnReplay(t *testing.T) {
	baseline := Diff(nil, snap("alice", nil, tweet("100", 0)), DefaultOptions())
	state := stateFrom(baseline, "alice")

	s := snap("alice", nil, tweet("100", 0), tweet("101", time.Minute))
	first := Diff(state, s, DefaultOptions())
	require.Len(t, first.Events, 1)

	// Re-running against the advanced state must be silent.
	advanced := stateFrom(first, "alice")
	second := Diff(advanced, s, DefaultOptions())
	assert.Empty(t, second.Events)
}

func TestChronologicalOrdering(t *testing.T) {
	baseline := Diff(nil, snap("alice", nil, tweet("100", 0)), DefaultOptions())
	state := stateFrom(baseline, "alice")

	// API returns newest first; events must come out oldest first.
	s := snap("alice", nil,
		tweet("103", 3*time.Minute),
		tweet("101", time.Minute),
		tweet("102", 2*time.Minute),
		tweet("100", 0),
	)
	result := Diff(state, s, DefaultOptions())

	require.Len(t, result.Events, 3)
	assert.Equal(t, "101", result.Events[0].Tweet.ID)
	assert.Equal(t, "102", result.Events[1].Tweet.ID)
	assert.Equal(t, "103", result.Events[2].Tweet.ID)
}

func TestStormCap(t *testing.T) {
	baseline := Diff(nil, snap("alice", nil, tweet("100", 0)), DefaultOptions())
	state := stateFrom(baseline, "alice")

	tweets := []snapshotDomain.Tweet{tweet("100", 0)}
	for i := 1; i <= 12; i++ {
		tweets = append(tweets, tweet(fmt.Sprintf("2%02d", i), time.Duration(i)*time.Minute))
	}

	opts := Options{StormCap: 5, Window: 50}
	result := Diff(state, snap("alice", nil, tweets...), opts)

	// Only the newest 5 produce events, in chronological order.
	require.Len(t, result.Events, 5)
	assert.Equal(t, "208", result.Events[0].Tweet.ID)
	assert.Equal(t, "212", result.Events[4].Tweet.ID)

	// All 12 ids are fingerprinted so none is ever re-flagged.
	advanced := stateFrom(result, "alice")
	replay := Diff(advanced, snap("alice", nil, tweets...), opts)
	assert.Empty(t, replay.Events)
}

func TestWindowBound(t *testing.T) {
	baseline := Diff(nil, snap("alice", nil, tweet("100", 0)), DefaultOptions())
	state := stateFrom(baseline, "alice")

	tweets := []snapshotDomain.Tweet{}
	for i := 1; i <= 10; i++ {
		tweets = append(tweets, tweet(fmt.Sprintf("3%02d", i), time.Duration(i)*time.Minute))
	}

	result := Diff(state, snap("alice", nil, tweets...), Options{StormCap: 20, Window: 4})
	fp := result.Next[accountDomain.CategoryOriginal]
	assert.Equal(t, []string{"307", "308", "309", "310"}, fp.IDs)
}

func TestPinnedTransitions(t *testing.T) {
	pin := func(id string) *string { return &id }

	t.Run("none to some", func(t *testing.T) {
		baseline := Diff(nil, snap("alice", nil, tweet("100", 0)), DefaultOptions())
		state := stateFrom(baseline, "alice")

		result := Diff(state, snap("alice", pin("100"), tweet("100", 0)), DefaultOptions())
		require.Len(t, result.Events, 1)
		assert.Equal(t, EventPinnedChanged, result.Events[0].Type)
		assert.Equal(t, "100", result.Events[0].Tweet.ID)
		// Payload resolved from the snapshot lists.
		assert.Equal(t, "tweet 100", result.Events[0].Tweet.Text)
	})

	t.Run("some to other", func(t *testing.T) {
		baseline := Diff(nil, snap("alice", pin("100"), tweet("100", 0)), DefaultOptions())
		state := stateFrom(baseline, "alice")

		result := Diff(state, snap("alice", pin("999"), tweet("100", 0)), DefaultOptions())
		require.Len(t, result.Events, 1)
		assert.Equal(t, EventPinnedChanged, result.Events[0].Type)
		assert.Equal(t, "999", result.Events[0].Tweet.ID)
	})

	t.Run("some to none emits unpin without payload", func(t *testing.T) {
		baseline := Diff(nil, snap("alice", pin("100"), tweet("100", 0)), DefaultOptions())
		state := stateFrom(baseline, "alice")

		result := Diff(state, snap("alice", nil, tweet("100", 0)), DefaultOptions())
		require.Len(t, result.Events, 1)
		assert.Equal(t, EventPinnedRemoved, result.Events[0].Type)
		assert.Nil(t, result.Events[0].Tweet)
	})

	t.Run("unchanged is silent", func(t *testing.T) {
		baseline := Diff(nil, snap("alice", pin("100"), tweet("100", 0)), DefaultOptions())
		state := stateFrom(baseline, "alice")

		result := Diff(state, snap("alice", pin("100"), tweet("100", 0)), DefaultOptions())
		assert.Empty(t, result.Events)
	})
}

func TestPinnedTweetNotReportedAsNew(t *testing.T) {
	pin := func(id string) *string { return &id }

	baseline := Diff(nil, snap("alice", nil, tweet("100", 0)), DefaultOptions())
	state := stateFrom(baseline, "alice")

	// A brand-new tweet that is simultaneously pinned: the pinned event
	// covers it, the list categories stay silent, but the id is still
	// fingerprinted.
	result := Diff(state, snap("alice", pin("101"), tweet("100", 0), tweet("101", time.Minute)), DefaultOptions())

	require.Len(t, result.Events, 1)
	assert.Equal(t, EventPinnedChanged, result.Events[0].Type)
	assert.True(t, result.Next[accountDomain.CategoryOriginal].Contains("101"))
}

func TestCategoriesDiffIndependently(t *testing.T) {
	full := &snapshotDomain.Snapshot{
		Handle:    "alice",
		Originals: []snapshotDomain.Tweet{tweet("100", 0)},
		Replies:   []snapshotDomain.Tweet{{ID: "200", Text: "re", CreatedAt: baseTime, IsReply: true}},
		Retweets:  []snapshotDomain.Tweet{{ID: "300", Text: "rt", CreatedAt: baseTime, IsRetweet: true}},
	}
	baseline := Diff(nil, full, DefaultOptions())
	state := stateFrom(baseline, "alice")

	next := &snapshotDomain.Snapshot{
		Handle:    "alice",
		Originals: full.Originals,
		Replies:   append([]snapshotDomain.Tweet{{ID: "201", Text: "re2", CreatedAt: baseTime.Add(time.Minute), IsReply: true}}, full.Replies...),
		Retweets:  full.Retweets,
	}
	result := Diff(state, next, DefaultOptions())

	require.Len(t, result.Events, 1)
	assert.Equal(t, accountDomain.CategoryReply, result.Events[0].Category)
	assert.Equal(t, "201", result.Events[0].Tweet.ID)
}

func TestReorderedFeedDoesNotRenotify(t *testing.T) {
	s1 := snap("alice", nil, tweet("100", 0), tweet("101", time.Minute), tweet("102", 2*time.Minute))
	baseline := Diff(nil, s1, DefaultOptions())
	state := stateFrom(baseline, "alice")

	// Same tweets, shuffled order, one dropped off the feed tail.
	s2 := snap("alice", nil, tweet("102", 2*time.Minute), tweet("100", 0))
	result := Diff(state, s2, DefaultOptions())
	assert.Empty(t, result.Events)
}
