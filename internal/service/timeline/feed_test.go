package timeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shotme/tonight/internal/domain"
)

func item(id uuid.UUID, created time.Time) domain.FeedItem {
	return domain.FeedItem{
		TimelineEntry: domain.TimelineEntry{
			ID:        id,
			EventID:   1,
			Kind:      domain.EntryAnnouncement,
			CreatedAt: created,
		},
	}
}

func TestAttachTalliesCounts(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	items := []domain.FeedItem{item(a, now), item(b, now.Add(-time.Minute))}
	tallies := map[uuid.UUID]domain.ReactionTally{
		a: {"🍻": 2, "🙌": 1},
	}

	out := attachTallies(items, tallies)
	require.Len(t, out, 2)

	assert.Equal(t, domain.ReactionTally{"🍻": 2, "🙌": 1}, out[0].Reactions)
	assert.NotNil(t, out[1].Reactions, "entries without reactions carry an empty tally, not nil")
	assert.Empty(t, out[1].Reactions)
}

func TestAttachTalliesNilMapDegradesToEmpty(t *testing.T) {
	a := uuid.New()
	out := attachTallies([]domain.FeedItem{item(a, time.Now())}, nil)

	require.Len(t, out, 1)
	assert.NotNil(t, out[0].Reactions)
	assert.Empty(t, out[0].Reactions)
}

func TestAttachTalliesEmptyFeed(t *testing.T) {
	assert.Empty(t, attachTallies(nil, nil))
}
