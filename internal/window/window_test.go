package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shotme/tonight/internal/domain"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestContainsBounds(t *testing.T) {
	p := Default()
	start := ts("2024-06-07T20:00:00Z")

	assert.True(t, p.Contains(ts("2024-06-07T18:00:00Z"), start), "lower bound is inclusive")
	assert.True(t, p.Contains(ts("2024-06-09T08:00:00Z"), start), "upper bound is inclusive")
	assert.False(t, p.Contains(ts("2024-06-07T17:59:59Z"), start))
	assert.False(t, p.Contains(ts("2024-06-09T08:00:01Z"), start))
}

func TestResolveActiveFridayNight(t *testing.T) {
	events := []domain.Event{
		{ID: 1, Name: "Friday Night", StartsAt: ts("2024-06-07T20:00:00Z")},
	}
	p := Default()

	got := ResolveActive(ts("2024-06-07T19:00:00Z"), events, p)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)

	assert.Nil(t, ResolveActive(ts("2024-06-09T09:01:00Z"), events, p))
}

func TestResolveActiveNoEvents(t *testing.T) {
	assert.Nil(t, ResolveActive(ts("2024-06-07T20:00:00Z"), nil, Default()))
}

func TestResolveActiveOverlapPicksEarliest(t *testing.T) {
	// Saturday's pre-window overlaps Friday's long post-window; the earlier
	// scheduled event still wins.
	events := []domain.Event{
		{ID: 2, Name: "Saturday Night", StartsAt: ts("2024-06-08T20:00:00Z")},
		{ID: 1, Name: "Friday Night", StartsAt: ts("2024-06-07T20:00:00Z")},
	}

	got := ResolveActive(ts("2024-06-08T19:00:00Z"), events, Default())
	require.NotNil(t, got)
	assert.Equal(t, "Friday Night", got.Name)
}

func TestResolveActiveEqualStartsStable(t *testing.T) {
	events := []domain.Event{
		{ID: 7, StartsAt: ts("2024-06-07T20:00:00Z")},
		{ID: 3, StartsAt: ts("2024-06-07T20:00:00Z")},
	}

	got := ResolveActive(ts("2024-06-07T20:30:00Z"), events, Default())
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.ID)
}

func TestResolveActiveDoesNotMutateInput(t *testing.T) {
	events := []domain.Event{
		{ID: 2, StartsAt: ts("2024-06-08T20:00:00Z")},
		{ID: 1, StartsAt: ts("2024-06-07T20:00:00Z")},
	}

	_ = ResolveActive(ts("2024-06-07T21:00:00Z"), events, Default())
	assert.Equal(t, int64(2), events[0].ID, "caller's slice order is preserved")
}

func TestResolveActiveCustomPolicy(t *testing.T) {
	p := Policy{Pre: 36 * time.Hour, Post: 36 * time.Hour}
	events := []domain.Event{
		{ID: 1, StartsAt: ts("2024-06-07T20:00:00Z")},
	}

	require.NotNil(t, ResolveActive(ts("2024-06-06T10:00:00Z"), events, p))
	assert.Nil(t, ResolveActive(ts("2024-06-06T07:59:00Z"), events, p))
}
