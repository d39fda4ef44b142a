package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shotme/tonight/internal/domain"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetVenue retrieves a venue by its ID.
//
// Returns:
//   - *domain.Venue: the venue when found.
//   - error: repository.ErrNotFound if the venue is not found.
func (r *EventRepo) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "postgres.EventRepo.GetVenue"

	db := r.handle()

	var v domain.Venue
	err := db.QueryRow(ctx,
		`SELECT id, name, address, description, image_url, hours_of_operation
		 FROM venues WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.Name, &v.Address, &v.Description, &v.ImageURL, &v.HoursOfOperation)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &v, nil
}

// ListVenues lists all venues ordered by name.
func (r *EventRepo) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	const op = "postgres.EventRepo.ListVenues"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, name, address, description, image_url, hours_of_operation
		 FROM venues
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Venue
	for rows.Next() {
		var v domain.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.Description, &v.ImageURL, &v.HoursOfOperation); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// GetEvent retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetEvent"

	db := r.handle()

	var e domain.Event
	err := db.QueryRow(ctx,
		`SELECT id, venue_id, event_name, event_date, lineup, price_tiers, image_url
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.VenueID, &e.Name, &e.StartsAt, &e.Lineup, &e.PriceTiers, &e.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}

// ListUpcoming lists events starting at or after the given instant, soonest
// first. venueID of 0 means any venue.
func (r *EventRepo) ListUpcoming(ctx context.Context, from time.Time, venueID int64, limit, offset int) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListUpcoming"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, venue_id, event_name, event_date, lineup, price_tiers, image_url
		 FROM events
		 WHERE event_date >= $1 AND ($2 = 0 OR venue_id = $2)
		 ORDER BY event_date
		 LIMIT $3 OFFSET $4`,
		from, venueID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	return scanEvents(op, rows)
}

// ListStartingBetween lists events whose scheduled start falls inside
// [from, to], ordered by start ascending. The window resolver relies on the
// ordering for its earliest-event tie-break.
func (r *EventRepo) ListStartingBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListStartingBetween"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, venue_id, event_name, event_date, lineup, price_tiers, image_url
		 FROM events
		 WHERE event_date BETWEEN $1 AND $2
		 ORDER BY event_date`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	return scanEvents(op, rows)
}

// ListMenu lists the available menu items for an event.
func (r *EventRepo) ListMenu(ctx context.Context, eventID int64) ([]domain.MenuItem, error) {
	const op = "postgres.EventRepo.ListMenu"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, event_id, name, price_cents, image_url, available
		 FROM items
		 WHERE event_id = $1 AND available
		 ORDER BY name`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.MenuItem
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.EventID, &m.Name, &m.PriceCents, &m.ImageURL, &m.Available); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func scanEvents(op string, rows pgx.Rows) ([]domain.Event, error) {
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.VenueID, &e.Name, &e.StartsAt, &e.Lineup, &e.PriceTiers, &e.ImageURL); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
