// Package live hands a caller a stream of content-free invalidation signals
// for one event: "something about this event's feed changed, refetch".
package live

import (
	"context"
	"log/slog"

	redisrepo "github.com/shotme/tonight/internal/repository/redis"
)

type Service struct {
	pubsub *redisrepo.FeedPubSub
	logger *slog.Logger
}

func New(pubsub *redisrepo.FeedPubSub, logger *slog.Logger) *Service {
	return &Service{pubsub: pubsub, logger: logger}
}

// Subscribe attaches to the event's change channel and returns a signal
// channel plus a cancel function. Signals are at-least-once and coalesce: a
// burst of changes may surface as a single receive, which is fine because
// every receive triggers a full refetch. The channel is closed after cancel
// (or ctx done) once the underlying subscription winds down.
func (s *Service) Subscribe(ctx context.Context, eventID int64) (<-chan struct{}, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	// Depth 1: a pending signal already promises a refetch, further ones
	// add nothing.
	signals := make(chan struct{}, 1)

	go func() {
		defer close(signals)

		err := s.pubsub.Subscribe(ctx, eventID, func(ctx context.Context) {
			select {
			case signals <- struct{}{}:
			default:
			}
		})
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("live subscription ended", "event_id", eventID, "error", err)
		}
	}()

	return signals, cancel
}
