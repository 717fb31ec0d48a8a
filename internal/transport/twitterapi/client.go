// Package twitterapi implements the tweet-fetch collaborator against the
// twitterapi.io HTTP API.
package twitterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"
	"github.com/samber/oops"

	snapshotDomain "tweetwatch/internal/modules/snapshot/domain"
	sharedErrors "tweetwatch/internal/shared/errors"
)

const (
	DefaultBaseURL = "https://api.twitterapi.io"
	defaultTimeout = 30 * time.Second

	// twitterapi.io returns tweet timestamps in Twitter's classic format,
	// e.g. "Tue Dec 10 07:00:30 +0000 2024".
	createdAtLayout = time.RubyDate
)

// Client talks to twitterapi.io
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client. An empty baseURL selects the public endpoint.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

type envelope struct {
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

type userInfoData struct {
	Name           string   `json:"name"`
	UserName       string   `json:"userName"`
	Followers      int      `json:"followers"`
	ProfilePicture string   `json:"profilePicture"`
	PinnedTweetIDs []string `json:"pinnedTweetIds"`
}

type tweetData struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt"`
	IsReply   bool   `json:"isReply"`
	Retweeted *struct {
		ID string `json:"id"`
	} `json:"retweeted_tweet"`
	Author *struct {
		Name     string `json:"name"`
		UserName string `json:"userName"`
	} `json:"author"`
}

type lastTweetsData struct {
	Tweets []tweetData `json:"tweets"`
}

// LookupUser fetches the account profile, including the pinned tweet ids.
func (c *Client) LookupUser(ctx context.Context, handle string) (*snapshotDomain.UserInfo, error) {
	endpoint := fmt.Sprintf("%s/twitter/user/info?userName=%s", c.baseURL, url.QueryEscape(handle))

	var data userInfoData
	if err := c.get(ctx, endpoint, &data); err != nil {
		return nil, oops.With("handle", handle).Wrap(err)
	}

	return &snapshotDomain.UserInfo{
		Handle:      lo.CoalesceOrEmpty(data.UserName, handle),
		DisplayName: data.Name,
		Followers:   data.Followers,
		Avatar:      data.ProfilePicture,
		PinnedIDs:   data.PinnedTweetIDs,
	}, nil
}

// FetchSnapshot fetches the profile and recent timeline for one account and
// classifies the tweets into the tracked categories. Two remote calls.
func (c *Client) FetchSnapshot(ctx context.Context, handle string) (*snapshotDomain.Snapshot, error) {
	info, err := c.LookupUser(ctx, handle)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/twitter/user/last_tweets?userName=%s&includeReplies=true",
		c.baseURL, url.QueryEscape(handle))

	var data lastTweetsData
	if err := c.get(ctx, endpoint, &data); err != nil {
		return nil, oops.With("handle", handle).Wrap(err)
	}

	tweets := lo.Map(data.Tweets, func(t tweetData, _ int) snapshotDomain.Tweet {
		return snapshotDomain.Tweet{
			ID:        t.ID,
			Text:      t.Text,
			URL:       t.URL,
			Author:    authorName(t, handle),
			CreatedAt: parseCreatedAt(t.CreatedAt),
			IsReply:   t.IsReply,
			IsRetweet: t.Retweeted != nil,
		}
	})

	var pinned *string
	if len(info.PinnedIDs) > 0 {
		pinned = &info.PinnedIDs[0]
	}

	c.logger.Debug("Timeline fetched", "handle", handle, "tweets", len(tweets))
	return snapshotDomain.New(handle, info.DisplayName, pinned, tweets), nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return oops.With("endpoint", endpoint).Wrap(err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return oops.With("cause", err.Error()).Wrap(sharedErrors.ErrFetchTransient)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return oops.With("status_code", resp.StatusCode).Wrap(err)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return oops.With("cause", err.Error()).Wrap(sharedErrors.ErrFetchTransient)
	}

	if env.Status != "success" {
		return oops.With("upstream_msg", env.Msg).Wrap(sharedErrors.ErrFetchTransient)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return oops.With("cause", err.Error()).Wrap(sharedErrors.ErrFetchTransient)
	}
	return nil
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return sharedErrors.ErrFetchUnauthorized
	case code == http.StatusNotFound:
		return sharedErrors.ErrFetchNotFound
	case code == http.StatusTooManyRequests:
		return sharedErrors.ErrFetchRateLimited
	default:
		return sharedErrors.ErrFetchTransient
	}
}

func authorName(t tweetData, fallback string) string {
	if t.Author != nil && t.Author.Name != "" {
		return t.Author.Name
	}
	return fallback
}

func parseCreatedAt(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(createdAtLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
