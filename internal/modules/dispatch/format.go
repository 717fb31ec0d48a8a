package dispatch

import (
	"fmt"
	"html"
	"time"

	accountDomain "tweetwatch/internal/modules/account/domain"
	"tweetwatch/internal/modules/detect"
	snapshotDomain "tweetwatch/internal/modules/snapshot/domain"
)

const excerptLimit = 200

var categoryLabels = map[accountDomain.Category]string{
	accountDomain.CategoryOriginal: "original tweet",
	accountDomain.CategoryReply:    "reply",
	accountDomain.CategoryRetweet:  "retweet",
}

// FormatMessage renders one event as a Telegram HTML message.
func FormatMessage(event detect.Event) string {
	user := fmt.Sprintf("%s (@%s)", html.EscapeString(displayName(event)), event.Handle)

	switch event.Type {
	case detect.EventPinnedRemoved:
		return fmt.Sprintf("📌 <b>Pinned tweet removed</b>\n\n<b>User:</b> %s", user)

	case detect.EventPinnedChanged:
		return fmt.Sprintf("📌 <b>Pinned tweet changed</b>\n\n<b>User:</b> %s\n<b>New pin:</b> %s",
			user, tweetLink(event.Handle, event.Tweet))

	default:
		label := categoryLabels[event.Category]
		if label == "" {
			label = string(event.Category)
		}

		msg := fmt.Sprintf("🐦 <b>New %s</b>\n\n<b>User:</b> %s", label, user)
		if event.Tweet != nil {
			if event.Tweet.Text != "" {
				msg += fmt.Sprintf("\n<b>Content:</b> %s", html.EscapeString(excerpt(event.Tweet.Text)))
			}
			msg += fmt.Sprintf("\n<b>Link:</b> %s", tweetLink(event.Handle, event.Tweet))
			if !event.Tweet.CreatedAt.IsZero() {
				msg += fmt.Sprintf("\n<b>Time:</b> %s", event.Tweet.CreatedAt.Format(time.RFC1123))
			}
		}
		return msg
	}
}

func displayName(event detect.Event) string {
	if event.DisplayName != "" {
		return event.DisplayName
	}
	return event.Handle
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "..."
}

func tweetLink(handle string, tweet *snapshotDomain.Tweet) string {
	if tweet == nil {
		return ""
	}
	if tweet.URL != "" {
		return tweet.URL
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", handle, tweet.ID)
}
