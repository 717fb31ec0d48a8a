package monitor

import (
	"context"
	"errors"
	"time"

	accountDomain "tweetwatch/internal/modules/account/domain"
	"tweetwatch/internal/modules/detect"
	sharedErrors "tweetwatch/internal/shared/errors"
)

// runCycle performs one poll: fetch, diff, dispatch, advance. Every failure
// path leaves stored state untouched and only affects this account's cycle;
// the next tick is the retry.
func (s *Service) runCycle(ctx context.Context, handle string) {
	if err := s.governor.AcquireN(ctx, s.cfg.CallsPerPoll); err != nil {
		s.logger.Debug("Cycle abandoned while waiting for rate budget", "handle", handle, "error", err)
		return
	}

	snap, err := s.fetcher.FetchSnapshot(ctx, handle)
	if err != nil {
		s.noteFetchError(handle, err)
		return
	}
	s.clearDegraded(handle)

	state, err := s.states.Get(handle)
	if err != nil && !errors.Is(err, sharedErrors.ErrStateNotFound) {
		s.logger.Error("State store unavailable, skipping cycle", "handle", handle, "error", err)
		return
	}
	if errors.Is(err, sharedErrors.ErrStateNotFound) {
		state = nil
	}

	result := detect.Diff(state, snap, s.cfg.Detector)

	if state == nil {
		seed := &accountDomain.AccountState{
			Handle:       handle,
			Fingerprints: result.Next,
			LastPoll:     time.Now(),
		}
		if err := s.states.Seed(seed); err != nil {
			s.logger.Error("Failed to seed baseline state", "handle", handle, "error", err)
			return
		}
		s.logger.Info("Baseline established", "handle", handle,
			"originals", len(snap.Originals), "replies", len(snap.Replies), "retweets", len(snap.Retweets))
		return
	}

	if len(result.Events) > 0 {
		s.logger.Info("Changes detected", "handle", handle, "events", len(result.Events))
	}

	byCategory := make(map[accountDomain.Category][]detect.Event)
	for _, ev := range result.Events {
		byCategory[ev.Category] = append(byCategory[ev.Category], ev)
	}

	// Per category: deliver to a terminal outcome first, then advance the
	// fingerprint. A crash in between means a duplicate notification after
	// restart, never a silently lost one.
	for cat, next := range result.Next {
		expected := state.Fingerprint(cat)
		if next.Equal(expected) {
			continue
		}

		for _, ev := range byCategory[cat] {
			s.dispatcher.Dispatch(ctx, ev)
		}

		if err := s.states.CompareAndAdvance(handle, cat, next, expected); err != nil {
			if errors.Is(err, sharedErrors.ErrStateConflict) {
				// A concurrent cycle advanced first. The notification may
				// already be out, so do not retry the advance or resend.
				s.logger.Warn("State advanced by a concurrent cycle", "handle", handle, "category", string(cat))
				continue
			}
			s.logger.Error("Failed to advance state", "handle", handle, "category", string(cat), "error", err)
		}
	}

	if err := s.states.Touch(handle); err != nil {
		s.logger.Debug("Failed to record poll time", "handle", handle, "error", err)
	}
}

func (s *Service) noteFetchError(handle string, err error) {
	switch {
	case errors.Is(err, sharedErrors.ErrFetchUnauthorized):
		s.markDegraded(handle)
		s.logger.Error("Fetch unauthorized, check Twitter API credentials", "handle", handle, "error", err)
	case errors.Is(err, sharedErrors.ErrFetchNotFound):
		s.logger.Warn("Account not found upstream", "handle", handle, "error", err)
	case errors.Is(err, sharedErrors.ErrFetchRateLimited):
		s.logger.Warn("Fetch rate limited upstream", "handle", handle, "error", err)
	default:
		s.logger.Warn("Fetch failed", "handle", handle, "error", err)
	}
}
