package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntryKind string

const (
	EntryAnnouncement EntryKind = "announcement"
	EntrySetTime      EntryKind = "set_time"
	EntryCheckIn      EntryKind = "checkin"
)

// ReactionSymbols is the closed set of reactions a feed entry accepts.
var ReactionSymbols = []string{"❤️‍🔥", "🙌", "🍻", "👀", "🫡"}

type Venue struct {
	ID               int64
	Name             string
	Address          string
	Description      string
	ImageURL         string
	HoursOfOperation []byte // jsonb raw
}

type Event struct {
	ID         int64
	VenueID    int64
	Name       string
	StartsAt   time.Time
	Lineup     []string
	PriceTiers []byte // jsonb raw, tier name -> price in cents
	ImageURL   string
}

type User struct {
	ID         int64
	ExternalID string
	FirstName  string
	LastName   string
	AvatarURL  string
}

type MenuItem struct {
	ID         int64
	EventID    int64
	Name       string
	PriceCents int
	ImageURL   string
	Available  bool
}

type CheckIn struct {
	ID          uuid.UUID
	EventID     int64
	UserID      int64
	CheckedInAt time.Time
}

type CheckInWithUser struct {
	CheckIn
	User User
}

type TimelineEntry struct {
	ID           uuid.UUID
	EventID      int64
	UserID       *int64 // nil for admin/system entries
	Kind         EntryKind
	Description  string
	ScheduledFor *time.Time // only meaningful for set_time entries
	CreatedAt    time.Time
}

type Reaction struct {
	ID      uuid.UUID
	EntryID uuid.UUID
	UserID  int64
	Symbol  string
}

// ReactionTally maps a reaction symbol to the number of users holding it.
type ReactionTally map[string]int

// FeedItem is a timeline entry enriched for display: the posting user (when
// any) and the per-symbol reaction counts. Reactions is never nil.
type FeedItem struct {
	TimelineEntry
	User      *User
	Reactions ReactionTally
}
