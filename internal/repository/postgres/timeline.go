package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shotme/tonight/internal/domain"
)

type TimelineRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TimelineRepo) With(db DB) *TimelineRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TimelineRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert appends a timeline entry.
func (r *TimelineRepo) Insert(ctx context.Context, e domain.TimelineEntry) error {
	const op = "postgres.TimelineRepo.Insert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO timeline_events (id, event_id, user_id, event_type, description, scheduled_for, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.EventID, e.UserID, e.Kind, e.Description, e.ScheduledFor, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// ListForFeed lists an event's timeline entries newest first, each joined
// with its posting user when one exists. Reaction tallies are filled in by
// the aggregator, not here.
func (r *TimelineRepo) ListForFeed(ctx context.Context, eventID int64) ([]domain.FeedItem, error) {
	const op = "postgres.TimelineRepo.ListForFeed"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT t.id, t.event_id, t.user_id, t.event_type, t.description, t.scheduled_for, t.created_at,
		        u.id, u.external_id, u.first_name, u.last_name, u.avatar_url
		 FROM timeline_events t
		 LEFT JOIN users u ON u.id = t.user_id
		 WHERE t.event_id = $1
		 ORDER BY t.created_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.FeedItem
	for rows.Next() {
		var item domain.FeedItem
		var (
			uID        *int64
			uExternal  *string
			uFirst     *string
			uLast      *string
			uAvatarURL *string
		)

		if err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.UserID,
			&item.Kind,
			&item.Description,
			&item.ScheduledFor,
			&item.CreatedAt,
			&uID,
			&uExternal,
			&uFirst,
			&uLast,
			&uAvatarURL,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		if uID != nil {
			item.User = &domain.User{
				ID:         *uID,
				ExternalID: deref(uExternal),
				FirstName:  deref(uFirst),
				LastName:   deref(uLast),
				AvatarURL:  deref(uAvatarURL),
			}
		}

		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// EventIDByEntry resolves the event a timeline entry belongs to.
//
// Returns:
//   - error: repository.ErrNotFound if the entry is not found.
func (r *TimelineRepo) EventIDByEntry(ctx context.Context, entryID uuid.UUID) (int64, error) {
	const op = "postgres.TimelineRepo.EventIDByEntry"

	db := r.handle()

	var eventID int64
	err := db.QueryRow(ctx,
		`SELECT event_id FROM timeline_events WHERE id = $1`,
		entryID,
	).Scan(&eventID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return eventID, nil
}

// Update edits an entry's description and/or scheduled_for. Nil arguments
// leave the field untouched; the admin edit path may change nothing else.
//
// Returns:
//   - int64: the event the entry belongs to, for cache invalidation.
//   - error: repository.ErrNotFound if the entry is not found.
func (r *TimelineRepo) Update(ctx context.Context, entryID uuid.UUID, description *string, scheduledFor *time.Time) (int64, error) {
	const op = "postgres.TimelineRepo.Update"

	db := r.handle()

	var eventID int64
	err := db.QueryRow(ctx,
		`UPDATE timeline_events
		 SET description = COALESCE($2, description),
		     scheduled_for = COALESCE($3, scheduled_for)
		 WHERE id = $1
		 RETURNING event_id`,
		entryID, description, scheduledFor,
	).Scan(&eventID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return eventID, nil
}

// Delete removes an entry; its reactions go with it (FK cascade).
//
// Returns:
//   - int64: the event the entry belonged to.
//   - error: repository.ErrNotFound if the entry is not found.
func (r *TimelineRepo) Delete(ctx context.Context, entryID uuid.UUID) (int64, error) {
	const op = "postgres.TimelineRepo.Delete"

	db := r.handle()

	var eventID int64
	err := db.QueryRow(ctx,
		`DELETE FROM timeline_events WHERE id = $1 RETURNING event_id`,
		entryID,
	).Scan(&eventID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return eventID, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
