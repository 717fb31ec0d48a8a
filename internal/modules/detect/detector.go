// Package detect implements the change detector: a pure diff of one fetched
// snapshot against the account's last-seen fingerprints.
package detect

import (
	"sort"

	"github.com/samber/lo"

	accountDomain "tweetwatch/internal/modules/account/domain"
	snapshotDomain "tweetwatch/internal/modules/snapshot/domain"
)

const (
	DefaultStormCap = 5
	DefaultWindow   = 50
)

// Options tune the detector. Both values are policy knobs, not invariants:
// the storm cap bounds notification floods after an outage, the window bounds
// fingerprint memory while tolerating out-of-order feeds.
type Options struct {
	// StormCap is the maximum number of events emitted per list category per
	// cycle. Skipped candidates are still fingerprinted so they are never
	// re-flagged.
	StormCap int
	// Window is the maximum number of recent tweet ids kept per list category.
	Window int
}

// DefaultOptions returns the default detector tuning
func DefaultOptions() Options {
	return Options{StormCap: DefaultStormCap, Window: DefaultWindow}
}

// Result is the outcome of one diff: the events to dispatch, in delivery
// order, and the fingerprints to advance to once delivery is terminal.
type Result struct {
	Events []Event
	Next   map[accountDomain.Category]accountDomain.Fingerprint
}

// Diff computes the new events and updated fingerprints for one poll cycle.
// A nil state means this is the first poll for the account: fingerprints are
// seeded from the snapshot and no events are emitted, so adding an account
// never replays its existing timeline.
func Diff(state *accountDomain.AccountState, snap *snapshotDomain.Snapshot, opts Options) Result {
	if opts.StormCap <= 0 {
		opts.StormCap = DefaultStormCap
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}

	result := Result{
		Next: make(map[accountDomain.Category]accountDomain.Fingerprint),
	}

	baseline := state == nil

	result.Next[accountDomain.CategoryPinned] = accountDomain.Fingerprint{Pinned: snap.PinnedID}
	if !baseline {
		if ev, changed := diffPinned(state.Fingerprint(accountDomain.CategoryPinned), snap); changed {
			result.Events = append(result.Events, ev)
		}
	}

	for _, cat := range accountDomain.ListCategories {
		var fp accountDomain.Fingerprint
		if !baseline {
			fp = state.Fingerprint(cat)
		}

		candidates := newCandidates(fp, snap.Tweets(cat))
		result.Next[cat] = fp.Merge(tweetIDs(candidates), opts.Window)

		if baseline {
			continue
		}

		// A freshly pinned old tweet reappears in the list feeds; the pinned
		// diff already covers it.
		notify := candidates
		if snap.PinnedID != nil {
			notify = lo.Filter(notify, func(t snapshotDomain.Tweet, _ int) bool {
				return t.ID != *snap.PinnedID
			})
		}
		if len(notify) > opts.StormCap {
			notify = notify[len(notify)-opts.StormCap:]
		}

		for i := range notify {
			result.Events = append(result.Events, Event{
				Handle:      snap.Handle,
				DisplayName: snap.DisplayName,
				Type:        EventNewTweet,
				Category:    cat,
				Tweet:       &notify[i],
			})
		}
	}

	return result
}

func diffPinned(fp accountDomain.Fingerprint, snap *snapshotDomain.Snapshot) (Event, bool) {
	current := snap.PinnedID

	switch {
	case fp.Pinned == nil && current == nil:
		return Event{}, false
	case fp.Pinned != nil && current != nil && *fp.Pinned == *current:
		return Event{}, false
	case current == nil:
		return Event{
			Handle:      snap.Handle,
			DisplayName: snap.DisplayName,
			Type:        EventPinnedRemoved,
			Category:    accountDomain.CategoryPinned,
		}, true
	default:
		return Event{
			Handle:      snap.Handle,
			DisplayName: snap.DisplayName,
			Type:        EventPinnedChanged,
			Category:    accountDomain.CategoryPinned,
			Tweet:       pinnedTweet(snap, *current),
		}, true
	}
}

// pinnedTweet looks the pinned id up in the snapshot lists for a full
// payload; the user-info endpoint only reports the id.
func pinnedTweet(snap *snapshotDomain.Snapshot, id string) *snapshotDomain.Tweet {
	lists := [][]snapshotDomain.Tweet{snap.Originals, snap.Replies, snap.Retweets}
	for _, list := range lists {
		for i := range list {
			if list[i].ID == id {
				return &list[i]
			}
		}
	}
	return &snapshotDomain.Tweet{ID: id}
}

// newCandidates returns the snapshot tweets absent from the fingerprint
// window, sorted oldest first so events go out in chronological order
// regardless of the order the API returned them in.
func newCandidates(fp accountDomain.Fingerprint, tweets []snapshotDomain.Tweet) []snapshotDomain.Tweet {
	candidates := lo.Filter(tweets, func(t snapshotDomain.Tweet, _ int) bool {
		return t.ID != "" && !fp.Contains(t.ID)
	})
	candidates = lo.UniqBy(candidates, func(t snapshotDomain.Tweet) string {
		return t.ID
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	return candidates
}

func tweetIDs(tweets []snapshotDomain.Tweet) []string {
	return lo.Map(tweets, func(t snapshotDomain.Tweet, _ int) string {
		return t.ID
	})
}
