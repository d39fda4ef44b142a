package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shotme/tonight/internal/domain"
)

type CheckInRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CheckInRepo) With(db DB) *CheckInRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CheckInRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert records a check-in for (user, event). A repeat check-in for the
// same pair hits the unique constraint and returns the existing row with
// created=false instead of a second row.
//
// Returns:
//   - *domain.CheckIn: the new or existing check-in row.
//   - bool: true when a new row was created.
func (r *CheckInRepo) Insert(ctx context.Context, eventID, userID int64, at time.Time) (*domain.CheckIn, bool, error) {
	const op = "postgres.CheckInRepo.Insert"

	db := r.handle()

	ci := domain.CheckIn{
		ID:          uuid.New(),
		EventID:     eventID,
		UserID:      userID,
		CheckedInAt: at,
	}

	tag, err := db.Exec(ctx,
		`INSERT INTO checkins (id, event_id, user_id, checked_in_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (event_id, user_id) DO NOTHING`,
		ci.ID, ci.EventID, ci.UserID, ci.CheckedInAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 1 {
		return &ci, true, nil
	}

	var existing domain.CheckIn
	err = db.QueryRow(ctx,
		`SELECT id, event_id, user_id, checked_in_at
		 FROM checkins
		 WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&existing.ID, &existing.EventID, &existing.UserID, &existing.CheckedInAt)
	if err != nil {
		return nil, false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &existing, false, nil
}

// ExistsSince reports whether a check-in row for (user, event) exists with
// checked_in_at at or after the given instant. Callers pass the lower bound
// of the active window so stale rows from past nights do not count.
func (r *CheckInRepo) ExistsSince(ctx context.Context, eventID, userID int64, since time.Time) (bool, error) {
	const op = "postgres.CheckInRepo.ExistsSince"

	db := r.handle()

	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM checkins
		   WHERE event_id = $1 AND user_id = $2 AND checked_in_at >= $3
		 )`,
		eventID, userID, since,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return exists, nil
}

// ListWithUsersSince lists check-ins for an event created at or after the
// given instant, newest first, each joined with its user.
func (r *CheckInRepo) ListWithUsersSince(ctx context.Context, eventID int64, since time.Time) ([]domain.CheckInWithUser, error) {
	const op = "postgres.CheckInRepo.ListWithUsersSince"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT c.id, c.event_id, c.user_id, c.checked_in_at,
		        u.id, u.external_id, u.first_name, u.last_name, u.avatar_url
		 FROM checkins c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.event_id = $1 AND c.checked_in_at >= $2
		 ORDER BY c.checked_in_at DESC`,
		eventID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.CheckInWithUser
	for rows.Next() {
		var cw domain.CheckInWithUser
		if err := rows.Scan(
			&cw.ID,
			&cw.EventID,
			&cw.UserID,
			&cw.CheckedInAt,
			&cw.User.ID,
			&cw.User.ExternalID,
			&cw.User.FirstName,
			&cw.User.LastName,
			&cw.User.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
