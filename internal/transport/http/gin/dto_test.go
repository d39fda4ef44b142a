package httpgin

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shotme/tonight/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestToFeedEntryResponse(t *testing.T) {
	userID := int64(7)
	when := time.Date(2024, 6, 7, 22, 0, 0, 0, time.UTC)

	item := domain.FeedItem{
		TimelineEntry: domain.TimelineEntry{
			ID:          uuid.New(),
			EventID:     1,
			UserID:      &userID,
			Kind:        domain.EntryCheckIn,
			Description: "Ada Lovelace has arrived!",
			CreatedAt:   when,
		},
		User:      &domain.User{ID: userID, FirstName: "Ada", LastName: "Lovelace"},
		Reactions: domain.ReactionTally{"🍻": 2},
	}

	out := toFeedEntryResponse(item)

	assert.Equal(t, item.ID.String(), out.ID)
	assert.Equal(t, "checkin", out.Kind)
	assert.Equal(t, "Ada Lovelace has arrived!", out.Description)
	assert.Equal(t, when, out.CreatedAt)
	assert.Equal(t, 2, out.Reactions["🍻"])
	if assert.NotNil(t, out.User) {
		assert.Equal(t, "Ada", out.User.FirstName)
	}
}

func TestToFeedEntryResponse_NilTallyBecomesEmpty(t *testing.T) {
	item := domain.FeedItem{
		TimelineEntry: domain.TimelineEntry{
			ID:          uuid.New(),
			Kind:        domain.EntryAnnouncement,
			Description: "Doors at 9",
		},
	}

	out := toFeedEntryResponse(item)

	assert.NotNil(t, out.Reactions)
	assert.Empty(t, out.Reactions)
	assert.Nil(t, out.User)
}
