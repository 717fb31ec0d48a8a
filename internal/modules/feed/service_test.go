package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetwatch/internal/modules/dispatch"
)

type fakeLog struct {
	deliveries []dispatch.Delivery
}

func (f *fakeLog) Recent() []dispatch.Delivery {
	return f.deliveries
}

func TestGenerateEmptyFeed(t *testing.T) {
	svc := New(&fakeLog{})

	feed := svc.Generate("http://localhost:8080")

	assert.Equal(t, "http://localhost:8080/rss/notifications", feed.Link.Href)
	assert.Empty(t, feed.Items)
}

func TestGenerateSkipsFailedDeliveries(t *testing.T) {
	base := time.Date(2024, 12, 10, 7, 0, 0, 0, time.UTC)
	svc := New(&fakeLog{deliveries: []dispatch.Delivery{
		{
			Handle:   "alice",
			Category: "original",
			Text:     "first",
			Link:     "https://x.com/alice/status/100",
			At:       base,
			Outcome:  dispatch.Delivered,
		},
		{
			Handle:   "alice",
			Category: "reply",
			Text:     "never made it",
			At:       base.Add(time.Minute),
			Outcome:  dispatch.Failed,
		},
		{
			Handle:   "bob",
			Category: "retweet",
			Text:     "second",
			Link:     "https://x.com/bob/status/200",
			At:       base.Add(2 * time.Minute),
			Outcome:  dispatch.Delivered,
		},
	}})

	feed := svc.Generate("http://localhost:8080")

	require.Len(t, feed.Items, 2)
	// newest first
	assert.Equal(t, "second", feed.Items[0].Description)
	assert.Equal(t, "https://x.com/bob/status/200", feed.Items[0].Link.Href)
	assert.Equal(t, "first", feed.Items[1].Description)
	assert.Contains(t, feed.Items[0].Title, "@bob")
}

func TestGenerateItemIdsUnique(t *testing.T) {
	base := time.Date(2024, 12, 10, 7, 0, 0, 0, time.UTC)
	svc := New(&fakeLog{deliveries: []dispatch.Delivery{
		{Handle: "alice", Category: "original", At: base, Outcome: dispatch.Delivered},
		{Handle: "alice", Category: "original", At: base.Add(time.Second), Outcome: dispatch.Delivered},
	}})

	feed := svc.Generate("http://localhost:8080")

	require.Len(t, feed.Items, 2)
	assert.NotEqual(t, feed.Items[0].Id, feed.Items[1].Id)
}
