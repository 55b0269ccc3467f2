package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meli/auth-server/internal/domain"
)

// ErrNotFound is returned when no identity exists for the requested username.
var ErrNotFound = errors.New("identity not found")

// IdentityRepository defines read access to authenticated subjects.
type IdentityRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns a Postgres-backed implementation.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

func (r *identityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	if r.pool == nil {
		return nil, errors.New("postgres pool not configured")
	}

	const query = `
        SELECT id, username, password, first_name, last_name, email, phone, address,
               role, position, external_id, status, registered_at
        FROM user_info WHERE username=$1`

	var identity domain.Identity
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&identity.ID,
		&identity.Username,
		&identity.PasswordHash,
		&identity.FirstName,
		&identity.LastName,
		&identity.Email,
		&identity.Phone,
		&identity.Address,
		&identity.Role,
		&identity.Position,
		&identity.ExternalID,
		&identity.Status,
		&identity.RegisteredAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &identity, nil
}
