// Package feed exposes the recently delivered notifications as an RSS feed,
// a pull mirror of the Telegram push channel.
package feed

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"
	"github.com/samber/lo"

	"tweetwatch/internal/modules/dispatch"
)

// DeliveryLog is the dispatcher surface the feed reads from
type DeliveryLog interface {
	Recent() []dispatch.Delivery
}

// Service generates the notification feed
type Service struct {
	log DeliveryLog
}

// New creates the feed service
func New(log DeliveryLog) *Service {
	return &Service{log: log}
}

// Generate builds the RSS feed of recent deliveries, newest first.
func (s *Service) Generate(baseURL string) *feeds.Feed {
	deliveries := s.log.Recent()

	feed := &feeds.Feed{
		Title:       "tweetwatch notifications",
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/rss/notifications", baseURL)},
		Description: "Recently delivered tweet change notifications",
		Created:     time.Now(),
	}
	if len(deliveries) > 0 {
		feed.Updated = deliveries[len(deliveries)-1].At
	}

	items := lo.FilterMap(deliveries, func(d dispatch.Delivery, _ int) (*feeds.Item, bool) {
		if d.Outcome != dispatch.Delivered {
			return nil, false
		}
		return &feeds.Item{
			Title:       fmt.Sprintf("@%s: %s", d.Handle, d.Category),
			Link:        &feeds.Link{Href: d.Link},
			Description: d.Text,
			Created:     d.At,
			Id:          fmt.Sprintf("%s-%s-%d", d.Handle, d.Category, d.At.UnixNano()),
		}, true
	})

	// newest first
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	feed.Items = items

	return feed
}
