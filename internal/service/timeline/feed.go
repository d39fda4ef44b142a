package timeline

import (
	"github.com/google/uuid"

	"github.com/shotme/tonight/internal/domain"
)

// attachTallies folds per-entry reaction counts into the feed items. Every
// returned item carries a non-nil tally; entries absent from tallies get an
// empty one. A nil tallies map (tally fetch failed upstream) degrades every
// entry to an empty tally.
func attachTallies(items []domain.FeedItem, tallies map[uuid.UUID]domain.ReactionTally) []domain.FeedItem {
	for i := range items {
		if t, ok := tallies[items[i].ID]; ok && t != nil {
			items[i].Reactions = t
			continue
		}
		items[i].Reactions = domain.ReactionTally{}
	}

	return items
}
