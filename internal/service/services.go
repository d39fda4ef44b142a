package service

import (
	"log/slog"

	"github.com/shotme/tonight/internal/queue"
	postgres "github.com/shotme/tonight/internal/repository/postgres"
	redis "github.com/shotme/tonight/internal/repository/redis"
	"github.com/shotme/tonight/internal/service/live"
	"github.com/shotme/tonight/internal/service/presence"
	"github.com/shotme/tonight/internal/service/query"
	"github.com/shotme/tonight/internal/service/reaction"
	"github.com/shotme/tonight/internal/service/timeline"
)

type Services struct {
	Presence *presence.Service
	Timeline *timeline.Service
	Reaction *reaction.Service
	Query    *query.Service
	Live     *live.Service
}

type Config struct {
	Presence presence.Config
	Timeline timeline.Config
	Query    query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.FeedPubSub,
	limiter *redis.SlidingWindowLimiter,
	broker *queue.Publisher,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Presence: presence.New(store, cache, pubsub, limiter, broker, logger, cfg.Presence),
		Timeline: timeline.New(store, cache, pubsub, broker, logger, cfg.Timeline),
		Reaction: reaction.New(store, cache, pubsub, limiter, broker, logger),
		Query:    query.New(store, cache, cfg.Query),
		Live:     live.New(pubsub, logger),
	}
}
