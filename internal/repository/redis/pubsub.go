package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// FeedPubSub carries content-free invalidation signals, one logical channel
// per event. Subscribers are expected to refetch, not to apply deltas.
type FeedPubSub struct {
	rdb *redis.Client
}

func NewFeedPubSub(rdb *redis.Client) *FeedPubSub {
	return &FeedPubSub{rdb: rdb}
}

type feedChangedMsg struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
	Table   string `json:"table"`
	TsUnix  int64  `json:"ts_unix"`
}

// PublishFeedChanged announces that rows affecting the event's feed changed.
// The table name is informational; subscribers must not branch on it.
func (p *FeedPubSub) PublishFeedChanged(ctx context.Context, eventID int64, table string) error {
	msg := feedChangedMsg{
		Type:    "feed_changed",
		EventID: eventID,
		Table:   table,
		TsUnix:  time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, ChannelFeedChanged(eventID), b).Err()
}

// Subscribe blocks, invoking handler for every change signal on the event's
// channel until ctx is done. go-redis reconnects the underlying PubSub on
// transport failure; signals published during a gap are lost, which is why
// consumers force a refresh when they (re)attach.
func (p *FeedPubSub) Subscribe(ctx context.Context, eventID int64, handler func(ctx context.Context)) error {
	sub := p.rdb.Subscribe(ctx, ChannelFeedChanged(eventID))
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg feedChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil &&
				msg.EventID == eventID {
				handler(ctx)
			}
		}
	}
}
