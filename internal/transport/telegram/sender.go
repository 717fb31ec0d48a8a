// Package telegram implements the messaging collaborator on top of the
// Telegram Bot API.
package telegram

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"

	sharedErrors "tweetwatch/internal/shared/errors"
)

// Sender pushes notification messages to one configured chat
type Sender struct {
	bot    *bot.Bot
	chatID string
}

// New creates a sender bound to the chat
func New(b *bot.Bot, chatID string) *Sender {
	return &Sender{bot: b, chatID: chatID}
}

// Send delivers one HTML message. Errors are mapped onto the delivery error
// taxonomy so the dispatcher can decide what is worth retrying.
func (s *Sender) Send(ctx context.Context, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    s.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: bot.True(),
		},
	})
	if err != nil {
		return oops.With("chat_id", s.chatID, "cause", err.Error()).Wrap(classify(err))
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, bot.ErrorUnauthorized) || errors.Is(err, bot.ErrorForbidden):
		return sharedErrors.ErrDeliveryUnauthorized
	case bot.IsTooManyRequestsError(err) || errors.Is(err, bot.ErrorTooManyRequests):
		return sharedErrors.ErrDeliveryRateLimited
	default:
		return sharedErrors.ErrDeliveryTransient
	}
}
