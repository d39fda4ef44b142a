// Package query serves the read-only catalog (venues, events, menus) and
// resolves identity-provider subjects to internal users. The catalog is
// owned by an external admin process; everything here is cached reads.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shotme/tonight/internal/domain"
	"github.com/shotme/tonight/internal/repository"
	postgresrepo "github.com/shotme/tonight/internal/repository/postgres"
	redisrepo "github.com/shotme/tonight/internal/repository/redis"
)

type Config struct {
	EventListTTL    time.Duration
	EventSummaryTTL time.Duration
	MenuTTL         time.Duration
	UserTTL         time.Duration
	DefaultPage     int
	MaxPage         int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	// The mobile client served stale event lists for up to five minutes;
	// the server-side cache mirrors that policy.
	if cfg.EventListTTL <= 0 {
		cfg.EventListTTL = 5 * time.Minute
	}

	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.MenuTTL <= 0 {
		cfg.MenuTTL = 60 * time.Second
	}

	if cfg.UserTTL <= 0 {
		cfg.UserTTL = 10 * time.Minute
	}

	if cfg.DefaultPage <= 0 {
		cfg.DefaultPage = 50
	}

	if cfg.MaxPage <= 0 {
		cfg.MaxPage = 200
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetEvent retrieves an event by ID through the cache.
//
// Returns:
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.query.GetEvent"

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventSummary(id),
		s.cfg.EventSummaryTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Events().GetEvent(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Event{}, ErrEventNotFound
				}

				return domain.Event{}, err
			}

			return *e, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// ListUpcoming lists upcoming events, optionally narrowed to one venue.
func (s *Service) ListUpcoming(ctx context.Context, venueID int64, limit, offset int) ([]domain.Event, error) {
	const op = "service.query.ListUpcoming"

	if limit <= 0 {
		limit = s.cfg.DefaultPage
	}

	if limit > s.cfg.MaxPage {
		limit = s.cfg.MaxPage
	}

	// Only the first page goes through the cache; deep pages are rare.
	if offset == 0 && limit == s.cfg.DefaultPage {
		events, err := redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisrepo.KeyEventList(venueID),
			s.cfg.EventListTTL,
			func(ctx context.Context) ([]domain.Event, error) {
				return s.store.Events().ListUpcoming(ctx, time.Now().UTC(), venueID, limit, offset)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return events, nil
	}

	events, err := s.store.Events().ListUpcoming(ctx, time.Now().UTC(), venueID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// GetVenue retrieves a venue by ID.
//
// Returns:
//   - error: query.ErrVenueNotFound if the venue is not found.
func (s *Service) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "service.query.GetVenue"

	v, err := s.store.Events().GetVenue(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrVenueNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

// ListVenues lists all venues.
func (s *Service) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	const op = "service.query.ListVenues"

	venues, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyVenues(),
		s.cfg.EventListTTL,
		func(ctx context.Context) ([]domain.Venue, error) {
			return s.store.Events().ListVenues(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return venues, nil
}

// Menu lists the available menu items for an event.
func (s *Service) Menu(ctx context.Context, eventID int64) ([]domain.MenuItem, error) {
	const op = "service.query.Menu"

	items, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventMenu(eventID),
		s.cfg.MenuTTL,
		func(ctx context.Context) ([]domain.MenuItem, error) {
			return s.store.Events().ListMenu(ctx, eventID)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// ResolveUser maps an identity-provider subject to the internal user row,
// creating one on first sight. Cached: the mapping is immutable once made.
func (s *Service) ResolveUser(ctx context.Context, externalID string) (*domain.User, error) {
	const op = "service.query.ResolveUser"

	user, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyUserByExternal(externalID),
		s.cfg.UserTTL,
		func(ctx context.Context) (domain.User, error) {
			u, err := s.store.Users().GetOrCreateByExternalID(ctx, externalID)
			if err != nil {
				return domain.User{}, err
			}

			return *u, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}
