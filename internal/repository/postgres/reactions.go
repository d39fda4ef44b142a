package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shotme/tonight/internal/domain"
	"github.com/shotme/tonight/internal/repository"
)

type ReactionRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ReactionRepo) With(db DB) *ReactionRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ReactionRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetForUpdate reads the caller's reaction on an entry, locking the row when
// one exists. Run inside a transaction; the lock plus the unique index on
// (timeline_event_id, user_id) is what makes the toggle atomic.
//
// Returns:
//   - *domain.Reaction: nil when the user has no reaction on the entry.
func (r *ReactionRepo) GetForUpdate(ctx context.Context, entryID uuid.UUID, userID int64) (*domain.Reaction, error) {
	const op = "postgres.ReactionRepo.GetForUpdate"

	db := r.handle()

	var rx domain.Reaction
	err := db.QueryRow(ctx,
		`SELECT id, timeline_event_id, user_id, reaction
		 FROM timeline_event_reactions
		 WHERE timeline_event_id = $1 AND user_id = $2
		 FOR UPDATE`,
		entryID, userID,
	).Scan(&rx.ID, &rx.EntryID, &rx.UserID, &rx.Symbol)
	if err != nil {
		if errors.Is(translateDBErr(err), repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &rx, nil
}

// Insert adds a new reaction row.
//
// Returns:
//   - error: repository.ErrConflict if the user already reacted to the entry.
func (r *ReactionRepo) Insert(ctx context.Context, rx domain.Reaction) error {
	const op = "postgres.ReactionRepo.Insert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO timeline_event_reactions (id, timeline_event_id, user_id, reaction)
		 VALUES ($1, $2, $3, $4)`,
		rx.ID, rx.EntryID, rx.UserID, rx.Symbol,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// UpdateSymbol changes an existing reaction's symbol in place.
func (r *ReactionRepo) UpdateSymbol(ctx context.Context, id uuid.UUID, symbol string) error {
	const op = "postgres.ReactionRepo.UpdateSymbol"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE timeline_event_reactions SET reaction = $2 WHERE id = $1`,
		id, symbol,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes a reaction row (toggle-off).
func (r *ReactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.ReactionRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`DELETE FROM timeline_event_reactions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// TalliesByEvent returns symbol counts grouped per timeline entry for every
// entry of the event, in one round trip. Entries with no reactions are
// simply absent from the map.
func (r *ReactionRepo) TalliesByEvent(ctx context.Context, eventID int64) (map[uuid.UUID]domain.ReactionTally, error) {
	const op = "postgres.ReactionRepo.TalliesByEvent"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT r.timeline_event_id, r.reaction, COUNT(*)
		 FROM timeline_event_reactions r
		 JOIN timeline_events t ON t.id = r.timeline_event_id
		 WHERE t.event_id = $1
		 GROUP BY r.timeline_event_id, r.reaction`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := make(map[uuid.UUID]domain.ReactionTally)
	for rows.Next() {
		var (
			entryID uuid.UUID
			symbol  string
			count   int
		)
		if err := rows.Scan(&entryID, &symbol, &count); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		tally, ok := out[entryID]
		if !ok {
			tally = make(domain.ReactionTally)
			out[entryID] = tally
		}
		tally[symbol] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
