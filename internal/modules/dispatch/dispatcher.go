// Package dispatch delivers one notification per detected event through the
// messaging collaborator, with bounded exponential-backoff retries.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"tweetwatch/internal/modules/detect"
	sharedErrors "tweetwatch/internal/shared/errors"
)

const historyLimit = 50

// Sender is the messaging collaborator contract
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Outcome is the terminal result of dispatching one event
type Outcome int

const (
	Delivered Outcome = iota
	Failed
)

// Delivery records one terminally dispatched notification for the status and
// feed surfaces.
type Delivery struct {
	Handle   string
	Category string
	Text     string
	Link     string
	At       time.Time
	Outcome  Outcome
}

// Config tunes the retry policy
type Config struct {
	Attempts uint
	BaseWait time.Duration
	MaxWait  time.Duration
}

// DefaultConfig returns the default retry policy: 5 attempts with
// exponential backoff from 2s capped at 5 minutes.
func DefaultConfig() Config {
	return Config{
		Attempts: 5,
		BaseWait: 2 * time.Second,
		MaxWait:  5 * time.Minute,
	}
}

// Dispatcher formats and delivers notifications. Dispatch always returns a
// terminal outcome; it never re-raises delivery errors to the caller, so an
// unreachable messaging endpoint degrades to logged failures instead of
// wedging the poll schedule.
type Dispatcher struct {
	sender Sender
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	history []Delivery
}

// New creates a dispatcher with the given retry policy
func New(sender Sender, cfg Config) *Dispatcher {
	if cfg.Attempts == 0 {
		cfg = DefaultConfig()
	}
	return &Dispatcher{
		sender: sender,
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// SetLogger sets the logger
func (d *Dispatcher) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Dispatch formats the event and sends it, retrying transient and
// rate-limited failures. Unauthorized failures are not retried: a bad bot
// token will not heal inside one retry budget and needs operator attention.
func (d *Dispatcher) Dispatch(ctx context.Context, event detect.Event) Outcome {
	text := FormatMessage(event)

	err := retry.Do(
		func() error {
			return d.sender.Send(ctx, text)
		},
		retry.Attempts(d.cfg.Attempts),
		retry.Delay(d.cfg.BaseWait),
		retry.MaxDelay(d.cfg.MaxWait),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, sharedErrors.ErrDeliveryUnauthorized)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			d.logger.Warn("Notification delivery failed, retrying",
				"handle", event.Handle,
				"category", string(event.Category),
				"attempt", attempt+1,
				"error", err)
		}),
	)

	outcome := Delivered
	if err != nil {
		outcome = Failed
		if errors.Is(err, sharedErrors.ErrDeliveryUnauthorized) {
			d.logger.Error("Notification delivery unauthorized, check bot credentials",
				"handle", event.Handle,
				"category", string(event.Category),
				"error", err)
		} else {
			d.logger.Error("Notification delivery failed after all retries",
				"handle", event.Handle,
				"category", string(event.Category),
				"attempts", d.cfg.Attempts,
				"error", err)
		}
	}

	d.record(event, text, outcome)
	return outcome
}

func (d *Dispatcher) record(event detect.Event, text string, outcome Outcome) {
	link := ""
	if event.Tweet != nil {
		link = tweetLink(event.Handle, event.Tweet)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.history = append(d.history, Delivery{
		Handle:   event.Handle,
		Category: string(event.Category),
		Text:     text,
		Link:     link,
		At:       time.Now(),
		Outcome:  outcome,
	})
	if len(d.history) > historyLimit {
		d.history = d.history[len(d.history)-historyLimit:]
	}
}

// Recent returns the most recent terminal deliveries, newest last.
func (d *Dispatcher) Recent() []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]Delivery(nil), d.history...)
}
