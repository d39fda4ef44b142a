// Package reaction is the reaction ledger: at most one reaction per
// (user, entry), with toggle semantics. Picking a new symbol replaces the
// old one, picking the same symbol again removes it.
package reaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shotme/tonight/internal/domain"
	"github.com/shotme/tonight/internal/queue"
	"github.com/shotme/tonight/internal/repository"
	postgresrepo "github.com/shotme/tonight/internal/repository/postgres"
	redisrepo "github.com/shotme/tonight/internal/repository/redis"
	"github.com/shotme/tonight/internal/uow"
)

// Outcome says what a toggle did.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRemoved  Outcome = "removed"
	OutcomeReplaced Outcome = "replaced"
)

type Service struct {
	store   *postgresrepo.Store
	cache   *redisrepo.Cache
	pubsub  *redisrepo.FeedPubSub
	limiter *redisrepo.SlidingWindowLimiter
	broker  *queue.Publisher
	uow     *uow.UoW
	logger  *slog.Logger

	allowed map[string]struct{}
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.FeedPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	broker *queue.Publisher,
	logger *slog.Logger,
) *Service {
	allowed := make(map[string]struct{}, len(domain.ReactionSymbols))
	for _, sym := range domain.ReactionSymbols {
		allowed[sym] = struct{}{}
	}

	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		broker:  broker,
		uow:     uow.NewUoW(store),
		logger:  logger,
		allowed: allowed,
	}
}

// decide maps the ledger's current state to the toggle outcome.
func decide(existing *domain.Reaction, symbol string) Outcome {
	switch {
	case existing == nil:
		return OutcomeApplied
	case existing.Symbol == symbol:
		return OutcomeRemoved
	default:
		return OutcomeReplaced
	}
}

// Toggle applies the toggle contract for (user, entry, symbol) atomically:
// the read and write run in one serializable transaction over the
// FOR UPDATE row, backed by the unique (entry, user) index. A serialization
// failure or unique violation gets exactly one retry with a fresh read.
//
// Returns:
//   - Outcome: applied, removed, or replaced.
//   - error: reaction.ErrUnknownSymbol, reaction.ErrEntryNotFound,
//     reaction.ErrToggleConflict, reaction.ErrRateLimited.
func (s *Service) Toggle(
	ctx context.Context,
	userID int64,
	entryID uuid.UUID,
	symbol string,
	rlKey string,
) (Outcome, error) {
	const op = "service.reaction.Toggle"

	if _, ok := s.allowed[symbol]; !ok {
		return "", fmt.Errorf("%s:%w", op, ErrUnknownSymbol)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return "", fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return "", fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	outcome, err := s.toggleOnce(ctx, userID, entryID, symbol)
	if err != nil && isToggleRace(err) {
		s.logger.Debug("reaction toggle raced, retrying once",
			"entry_id", entryID, "user_id", userID)
		outcome, err = s.toggleOnce(ctx, userID, entryID, symbol)
	}
	if err != nil {
		if isToggleRace(err) {
			return "", fmt.Errorf("%s:%w", op, ErrToggleConflict)
		}

		return "", err
	}

	return outcome, nil
}

func (s *Service) toggleOnce(
	ctx context.Context,
	userID int64,
	entryID uuid.UUID,
	symbol string,
) (Outcome, error) {
	const op = "service.reaction.toggleOnce"

	var outcome Outcome

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		eventID, err := s.store.Timeline().With(tx).EventIDByEntry(ctx, entryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrEntryNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		reactions := s.store.Reactions().With(tx)

		existing, err := reactions.GetForUpdate(ctx, entryID, userID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		outcome = decide(existing, symbol)

		switch outcome {
		case OutcomeApplied:
			err = reactions.Insert(ctx, domain.Reaction{
				ID:      uuid.New(),
				EntryID: entryID,
				UserID:  userID,
				Symbol:  symbol,
			})
		case OutcomeRemoved:
			err = reactions.Delete(ctx, existing.ID)
		case OutcomeReplaced:
			err = reactions.UpdateSymbol(ctx, existing.ID, symbol)
		}
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.notifyChanged(ctx, eventID)
		})

		return nil
	})

	return outcome, err
}

func isToggleRace(err error) bool {
	return postgresrepo.IsRetryable(err) || errors.Is(err, repository.ErrConflict)
}

func (s *Service) notifyChanged(ctx context.Context, eventID int64) {
	_ = s.cache.InvalidateFeed(ctx, eventID)

	if err := s.pubsub.PublishFeedChanged(ctx, eventID, "timeline_event_reactions"); err != nil {
		s.logger.Warn("feed change publish failed", "event_id", eventID, "error", err)
	}

	if err := s.broker.PublishFeedChanged(ctx, eventID, "timeline_event_reactions"); err != nil {
		s.logger.Warn("broker publish failed", "event_id", eventID, "error", err)
	}
}
