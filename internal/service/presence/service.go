// Package presence is the check-in store: it decides whether a user counts
// as checked in right now, records new check-ins, and serves the roster of
// people at an event.
package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shotme/tonight/internal/domain"
	"github.com/shotme/tonight/internal/queue"
	"github.com/shotme/tonight/internal/repository"
	postgresrepo "github.com/shotme/tonight/internal/repository/postgres"
	redisrepo "github.com/shotme/tonight/internal/repository/redis"
	"github.com/shotme/tonight/internal/uow"
	"github.com/shotme/tonight/internal/window"
)

type Config struct {
	Window    window.Policy
	PeopleTTL time.Duration
}

type Service struct {
	store   *postgresrepo.Store
	cache   *redisrepo.Cache
	pubsub  *redisrepo.FeedPubSub
	limiter *redisrepo.SlidingWindowLimiter
	broker  *queue.Publisher
	uow     *uow.UoW
	logger  *slog.Logger
	cfg     Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.FeedPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	broker *queue.Publisher,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Window.Pre <= 0 && cfg.Window.Post <= 0 {
		cfg.Window = window.Default()
	}

	if cfg.PeopleTTL <= 0 {
		cfg.PeopleTTL = 10 * time.Second
	}

	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		broker:  broker,
		uow:     uow.NewUoW(store),
		logger:  logger,
		cfg:     cfg,
	}
}

// Status is a user's standing for tonight: the active event, if any, and
// whether the user is checked into it.
type Status struct {
	Event     *domain.Event
	CheckedIn bool
}

// ActiveEvent resolves the event whose check-in window contains now, or nil.
// Absence is a normal outcome, not an error.
func (s *Service) ActiveEvent(ctx context.Context, now time.Time) (*domain.Event, error) {
	const op = "service.presence.ActiveEvent"

	// An event is active iff its start falls inside [now-post, now+pre].
	candidates, err := s.store.Events().ListStartingBetween(
		ctx,
		now.Add(-s.cfg.Window.Post),
		now.Add(s.cfg.Window.Pre),
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return window.ResolveActive(now, candidates, s.cfg.Window), nil
}

// Status reports the active event and the caller's check-in state. The
// window is recomputed from now on every call; a check-in lookup failure
// degrades to "not checked in" rather than failing the caller.
func (s *Service) Status(ctx context.Context, userID int64, now time.Time) (Status, error) {
	const op = "service.presence.Status"

	event, err := s.ActiveEvent(ctx, now)
	if err != nil {
		return Status{}, fmt.Errorf("%s:%w", op, err)
	}

	if event == nil {
		return Status{}, nil
	}

	from, _ := s.cfg.Window.Bounds(event.StartsAt)

	checkedIn, err := s.store.CheckIns().ExistsSince(ctx, event.ID, userID, from)
	if err != nil {
		// Fail closed: ambiguous state reads as not checked in.
		s.logger.Warn("check-in lookup failed", "event_id", event.ID, "user_id", userID, "error", err)
		return Status{Event: event, CheckedIn: false}, nil
	}

	return Status{Event: event, CheckedIn: checkedIn}, nil
}

// CheckIn records the user's check-in to the event and appends the
// "has arrived" notice to the event's timeline in the same transaction.
// A repeat check-in returns the existing row with created=false and writes
// no second notice.
//
// Returns:
//   - *domain.CheckIn: the new or existing check-in.
//   - bool: true when a new row was created.
//   - error: presence.ErrEventNotFound, presence.ErrOutsideWindow,
//     presence.ErrRateLimited.
func (s *Service) CheckIn(
	ctx context.Context,
	userID, eventID int64,
	now time.Time,
	rlKey string,
) (*domain.CheckIn, bool, error) {
	const op = "service.presence.CheckIn"

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, false, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, false, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	event, err := s.store.Events().GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}

		return nil, false, fmt.Errorf("%s:%w", op, err)
	}

	if !s.cfg.Window.Contains(now, event.StartsAt) {
		return nil, false, fmt.Errorf("%s:%w", op, ErrOutsideWindow)
	}

	var (
		checkIn *domain.CheckIn
		created bool
	)

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		user, err := s.store.Users().With(tx).Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		ci, isNew, err := s.store.CheckIns().With(tx).Insert(ctx, eventID, userID, now)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		checkIn = ci
		created = isNew

		if isNew {
			uid := userID
			notice := domain.TimelineEntry{
				ID:          uuid.New(),
				EventID:     eventID,
				UserID:      &uid,
				Kind:        domain.EntryCheckIn,
				Description: fmt.Sprintf("%s has arrived!", displayName(user)),
				CreatedAt:   ci.CheckedInAt,
			}

			if err := s.store.Timeline().With(tx).Insert(ctx, notice); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}

			after(func(ctx context.Context) {
				s.notifyChanged(ctx, eventID, "checkins")
			})
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return checkIn, created, nil
}

// People lists who is checked in at the event within its current window,
// newest arrival first. Briefly cached; writers invalidate on check-in.
func (s *Service) People(ctx context.Context, eventID int64) ([]domain.CheckInWithUser, error) {
	const op = "service.presence.People"

	event, err := s.store.Events().GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	from, _ := s.cfg.Window.Bounds(event.StartsAt)

	people, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventPeople(eventID),
		s.cfg.PeopleTTL,
		func(ctx context.Context) ([]domain.CheckInWithUser, error) {
			return s.store.CheckIns().ListWithUsersSince(ctx, eventID, from)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return people, nil
}

func (s *Service) notifyChanged(ctx context.Context, eventID int64, table string) {
	_ = s.cache.InvalidateFeed(ctx, eventID)

	if err := s.pubsub.PublishFeedChanged(ctx, eventID, table); err != nil {
		s.logger.Warn("feed change publish failed", "event_id", eventID, "error", err)
	}

	if err := s.broker.PublishFeedChanged(ctx, eventID, table); err != nil {
		s.logger.Warn("broker publish failed", "event_id", eventID, "error", err)
	}
}

func displayName(u *domain.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "Someone"
	}
	return name
}
