package twitterapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedErrors "tweetwatch/internal/shared/errors"
)

const (
	userInfoBody = `{
		"status": "success",
		"data": {
			"name": "Alice",
			"userName": "alice",
			"followers": 42,
			"profilePicture": "https://example.com/alice.jpg",
			"pinnedTweetIds": ["900"]
		}
	}`
	lastTweetsBody = `{
		"status": "success",
		"data": {
			"tweets": [
				{"id": "100", "text": "plain tweet", "url": "https://x.com/alice/status/100",
				 "createdAt": "Tue Dec 10 07:00:30 +0000 2024",
				 "author": {"name": "Alice", "userName": "alice"}},
				{"id": "101", "text": "a reply", "isReply": true,
				 "createdAt": "Tue Dec 10 08:00:30 +0000 2024"},
				{"id": "102", "text": "RT something",
				 "createdAt": "Tue Dec 10 09:00:30 +0000 2024",
				 "retweeted_tweet": {"id": "777"}}
			]
		}
	}`
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/twitter/user/info", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "alice", r.URL.Query().Get("userName"))
		fmt.Fprint(w, userInfoBody)
	})
	mux.HandleFunc("/twitter/user/last_tweets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("includeReplies"))
		fmt.Fprint(w, lastTweetsBody)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLookupUser(t *testing.T) {
	server := newTestServer(t)
	client := New(server.URL, "secret")

	info, err := client.LookupUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Handle)
	assert.Equal(t, "Alice", info.DisplayName)
	assert.Equal(t, 42, info.Followers)
	assert.Equal(t, []string{"900"}, info.PinnedIDs)
}

func TestFetchSnapshotClassifiesTweets(t *testing.T) {
	server := newTestServer(t)
	client := New(server.URL, "secret")

	snap, err := client.FetchSnapshot(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, snap.Originals, 1)
	assert.Equal(t, "100", snap.Originals[0].ID)
	assert.Equal(t, "Alice", snap.Originals[0].Author)
	assert.Equal(t, 2024, snap.Originals[0].CreatedAt.Year())

	require.Len(t, snap.Replies, 1)
	assert.Equal(t, "101", snap.Replies[0].ID)

	require.Len(t, snap.Retweets, 1)
	assert.Equal(t, "102", snap.Retweets[0].ID)

	require.NotNil(t, snap.PinnedID)
	assert.Equal(t, "900", *snap.PinnedID)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, sharedErrors.ErrFetchUnauthorized},
		{"forbidden", http.StatusForbidden, sharedErrors.ErrFetchUnauthorized},
		{"not found", http.StatusNotFound, sharedErrors.ErrFetchNotFound},
		{"rate limited", http.StatusTooManyRequests, sharedErrors.ErrFetchRateLimited},
		{"server error", http.StatusInternalServerError, sharedErrors.ErrFetchTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := New(server.URL, "secret")
			_, err := client.LookupUser(context.Background(), "alice")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpstreamErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "error", "msg": "user suspended"}`)
	}))
	defer server.Close()

	client := New(server.URL, "secret")
	_, err := client.LookupUser(context.Background(), "alice")
	assert.ErrorIs(t, err, sharedErrors.ErrFetchTransient)
}

func TestUnreachableHostIsTransient(t *testing.T) {
	client := New("http://127.0.0.1:1", "secret")

	_, err := client.LookupUser(context.Background(), "alice")
	assert.ErrorIs(t, err, sharedErrors.ErrFetchTransient)
}
