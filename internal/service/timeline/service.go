// Package timeline assembles the per-event live feed (announcements, DJ set
// times, check-in notices) with reaction tallies, and owns the admin write
// path for announcement and set-time entries.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shotme/tonight/internal/domain"
	"github.com/shotme/tonight/internal/queue"
	"github.com/shotme/tonight/internal/repository"
	postgresrepo "github.com/shotme/tonight/internal/repository/postgres"
	redisrepo "github.com/shotme/tonight/internal/repository/redis"
	"github.com/shotme/tonight/internal/uow"
)

type Config struct {
	FeedTTL time.Duration
}

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.FeedPubSub
	broker *queue.Publisher
	uow    *uow.UoW
	logger *slog.Logger
	cfg    Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.FeedPubSub,
	broker *queue.Publisher,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.FeedTTL <= 0 {
		cfg.FeedTTL = 5 * time.Second
	}

	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		broker: broker,
		uow:    uow.NewUoW(store),
		logger: logger,
		cfg:    cfg,
	}
}

// Feed returns a point-in-time snapshot of the event's timeline, newest
// first, each entry carrying a reaction tally. Liveness comes from callers
// re-invoking this on invalidation signals, not from this method.
//
// A tally fetch failure does not abort the feed: the entries are returned
// with empty tallies and the failure is logged.
func (s *Service) Feed(ctx context.Context, eventID int64) ([]domain.FeedItem, error) {
	const op = "service.timeline.Feed"

	feed, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventFeed(eventID),
		s.cfg.FeedTTL,
		func(ctx context.Context) ([]domain.FeedItem, error) {
			items, err := s.store.Timeline().ListForFeed(ctx, eventID)
			if err != nil {
				return nil, err
			}

			tallies, err := s.store.Reactions().TalliesByEvent(ctx, eventID)
			if err != nil {
				s.logger.Warn("reaction tally fetch failed, serving feed with empty tallies",
					"event_id", eventID, "error", err)
				tallies = nil
			}

			return attachTallies(items, tallies), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return feed, nil
}

// PostEntry appends an admin entry (announcement or set_time). Check-in
// notices are written by the check-in path only.
//
// Returns:
//   - uuid.UUID: the new entry's ID.
//   - error: timeline.ErrBadKind for any other kind.
func (s *Service) PostEntry(
	ctx context.Context,
	eventID int64,
	kind domain.EntryKind,
	description string,
	scheduledFor *time.Time,
) (uuid.UUID, error) {
	const op = "service.timeline.PostEntry"

	if kind != domain.EntryAnnouncement && kind != domain.EntrySetTime {
		return uuid.Nil, fmt.Errorf("%s:%w", op, ErrBadKind)
	}

	entry := domain.TimelineEntry{
		ID:           uuid.New(),
		EventID:      eventID,
		Kind:         kind,
		Description:  description,
		ScheduledFor: scheduledFor,
		CreatedAt:    time.Now().UTC(),
	}

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Timeline().With(tx).Insert(ctx, entry); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.notifyChanged(ctx, eventID)
		})

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return entry.ID, nil
}

// EditEntry updates an entry's description and/or scheduled time. Nil
// arguments leave the field alone; kind and authorship are immutable.
func (s *Service) EditEntry(
	ctx context.Context,
	entryID uuid.UUID,
	description *string,
	scheduledFor *time.Time,
) error {
	const op = "service.timeline.EditEntry"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		eventID, err := s.store.Timeline().With(tx).Update(ctx, entryID, description, scheduledFor)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrEntryNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.notifyChanged(ctx, eventID)
		})

		return nil
	})
}

// DeleteEntry removes an entry and, via FK cascade, its reactions.
func (s *Service) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	const op = "service.timeline.DeleteEntry"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		eventID, err := s.store.Timeline().With(tx).Delete(ctx, entryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrEntryNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.notifyChanged(ctx, eventID)
		})

		return nil
	})
}

func (s *Service) notifyChanged(ctx context.Context, eventID int64) {
	_ = s.cache.InvalidateFeed(ctx, eventID)

	if err := s.pubsub.PublishFeedChanged(ctx, eventID, "timeline_events"); err != nil {
		s.logger.Warn("feed change publish failed", "event_id", eventID, "error", err)
	}

	if err := s.broker.PublishFeedChanged(ctx, eventID, "timeline_events"); err != nil {
		s.logger.Warn("broker publish failed", "event_id", eventID, "error", err)
	}
}
