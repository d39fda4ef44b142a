package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shotme/tonight/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *UserRepo) With(db DB) *UserRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *UserRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Get retrieves a user by internal ID.
//
// Returns:
//   - *domain.User: the user when found.
//   - error: repository.ErrNotFound if the user is not found.
func (r *UserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	const op = "postgres.UserRepo.Get"

	db := r.handle()

	var u domain.User
	err := db.QueryRow(ctx,
		`SELECT id, external_id, first_name, last_name, avatar_url
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.ExternalID, &u.FirstName, &u.LastName, &u.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}

// GetOrCreateByExternalID maps an identity-provider subject to the internal
// user row, creating a skeleton row on first sight. Profile fields are filled
// in by the account flow, which is outside this service.
func (r *UserRepo) GetOrCreateByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	const op = "postgres.UserRepo.GetOrCreateByExternalID"

	db := r.handle()

	var u domain.User
	err := db.QueryRow(ctx,
		`INSERT INTO users (external_id)
		 VALUES ($1)
		 ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		 RETURNING id, external_id, first_name, last_name, avatar_url`,
		externalID,
	).Scan(&u.ID, &u.ExternalID, &u.FirstName, &u.LastName, &u.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}
