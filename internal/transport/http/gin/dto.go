package httpgin

import (
	"encoding/json"
	"time"

	"github.com/shotme/tonight/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type VenueResponse struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Address          string          `json:"address"`
	Description      string          `json:"description,omitempty"`
	ImageURL         string          `json:"image_url,omitempty"`
	HoursOfOperation json.RawMessage `json:"hours_of_operation,omitempty"`
}

type EventResponse struct {
	ID         int64           `json:"id"`
	VenueID    int64           `json:"venue_id"`
	Name       string          `json:"name"`
	StartsAt   time.Time       `json:"starts_at"`
	Lineup     []string        `json:"lineup,omitempty"`
	PriceTiers json.RawMessage `json:"price_tiers,omitempty"`
	ImageURL   string          `json:"image_url,omitempty"`
}

type MenuItemResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	ImageURL   string `json:"image_url,omitempty"`
}

type FeedUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type FeedEntryResponse struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	Description  string         `json:"description"`
	ScheduledFor *time.Time     `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	User         *FeedUser      `json:"user,omitempty"`
	Reactions    map[string]int `json:"reactions"`
}

type PersonResponse struct {
	UserID      int64     `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

type TonightResponse struct {
	Event     *EventResponse `json:"event"`
	CheckedIn bool           `json:"checked_in"`
}

type CheckInResponse struct {
	CheckInID        string    `json:"check_in_id"`
	EventID          int64     `json:"event_id"`
	CheckedInAt      time.Time `json:"checked_in_at"`
	AlreadyCheckedIn bool      `json:"already_checked_in"`
}

type ToggleReactionRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

type ToggleReactionResponse struct {
	Outcome string `json:"outcome"`
}

type PostEntryRequest struct {
	Kind         string `json:"kind" binding:"required,oneof=announcement set_time"`
	Description  string `json:"description" binding:"required"`
	ScheduledFor string `json:"scheduled_for"`
}

type PostEntryResponse struct {
	EntryID string `json:"entry_id"`
}

type EditEntryRequest struct {
	Description  *string `json:"description"`
	ScheduledFor *string `json:"scheduled_for"`
}

func toVenueResponse(v domain.Venue) VenueResponse {
	return VenueResponse{
		ID:               v.ID,
		Name:             v.Name,
		Address:          v.Address,
		Description:      v.Description,
		ImageURL:         v.ImageURL,
		HoursOfOperation: json.RawMessage(v.HoursOfOperation),
	}
}

func toEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		VenueID:    e.VenueID,
		Name:       e.Name,
		StartsAt:   e.StartsAt,
		Lineup:     e.Lineup,
		PriceTiers: json.RawMessage(e.PriceTiers),
		ImageURL:   e.ImageURL,
	}
}

func toMenuItemResponse(m domain.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:         m.ID,
		Name:       m.Name,
		PriceCents: m.PriceCents,
		ImageURL:   m.ImageURL,
	}
}

func toFeedEntryResponse(item domain.FeedItem) FeedEntryResponse {
	out := FeedEntryResponse{
		ID:           item.ID.String(),
		Kind:         string(item.Kind),
		Description:  item.Description,
		ScheduledFor: item.ScheduledFor,
		CreatedAt:    item.CreatedAt,
		Reactions:    item.Reactions,
	}
	if item.User != nil {
		out.User = &FeedUser{
			ID:        item.User.ID,
			FirstName: item.User.FirstName,
			LastName:  item.User.LastName,
			AvatarURL: item.User.AvatarURL,
		}
	}
	if out.Reactions == nil {
		out.Reactions = map[string]int{}
	}
	return out
}

func toPersonResponse(ci domain.CheckInWithUser) PersonResponse {
	return PersonResponse{
		UserID:      ci.User.ID,
		FirstName:   ci.User.FirstName,
		LastName:    ci.User.LastName,
		AvatarURL:   ci.User.AvatarURL,
		CheckedInAt: ci.CheckedInAt,
	}
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
