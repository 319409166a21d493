package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripkoro/wallet_ledger_svc/internal/apperrors"
	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
)

type PgxServiceTokenRepository struct {
	BaseRepository
}

// newPgxServiceTokenRepository creates a new instance of PgxServiceTokenRepository
func newPgxServiceTokenRepository(db *pgxpool.Pool) portsrepo.ServiceTokenRepository {
	return &PgxServiceTokenRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.ServiceTokenRepository = (*PgxServiceTokenRepository)(nil)

const (
	serviceTokensTable = "service_tokens"

	selectServiceTokenFields = `
		token_id, service_id, name, token_hash,
		last_used_at, expires_at, created_at, updated_at
	`

	insertServiceTokenQuery = `
		INSERT INTO ` + serviceTokensTable + ` (
			token_id, service_id, name, token_hash, expires_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + selectServiceTokenFields

	findServiceTokenByIDQuery = `
		SELECT ` + selectServiceTokenFields + `
		FROM ` + serviceTokensTable + `
		WHERE token_id = $1
	`

	findServiceTokensByServiceIDQuery = `
		SELECT ` + selectServiceTokenFields + `
		FROM ` + serviceTokensTable + `
		WHERE service_id = $1
		ORDER BY created_at DESC
	`

	updateServiceTokenQuery = `
		UPDATE ` + serviceTokensTable + `
		SET
			last_used_at = COALESCE($2, last_used_at),
			updated_at = NOW()
		WHERE token_id = $1
	`

	deleteServiceTokenQuery = `
		DELETE FROM ` + serviceTokensTable + `
		WHERE token_id = $1
	`

	deleteExpiredServiceTokensQuery = `
		DELETE FROM ` + serviceTokensTable + `
		WHERE expires_at < $1
	`
)

// Create persists a new service token
func (r *PgxServiceTokenRepository) Create(ctx context.Context, token *domain.ServiceToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	row := r.Pool.QueryRow(
		ctx,
		insertServiceTokenQuery,
		token.ID,
		token.ServiceID,
		token.Name,
		token.TokenHash,
		token.ExpiresAt,
	)

	created, err := scanServiceToken(row)
	if err != nil {
		return fmt.Errorf("failed to create service token: %w", err)
	}

	token.CreatedAt = created.CreatedAt
	token.UpdatedAt = created.UpdatedAt
	return nil
}

// FindByID retrieves a service token by its ID
func (r *PgxServiceTokenRepository) FindByID(ctx context.Context, id string) (*domain.ServiceToken, error) {
	if id == "" {
		return nil, errors.New("id cannot be empty")
	}

	row := r.Pool.QueryRow(ctx, findServiceTokenByIDQuery, id)
	token, err := scanServiceToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return token, nil
}

// FindByServiceID retrieves all tokens for a specific caller service
func (r *PgxServiceTokenRepository) FindByServiceID(ctx context.Context, serviceID string) ([]domain.ServiceToken, error) {
	if serviceID == "" {
		return nil, errors.New("service ID cannot be empty")
	}

	rows, err := r.Pool.Query(ctx, findServiceTokensByServiceIDQuery, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.ServiceToken
	for rows.Next() {
		token, err := scanServiceToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *token)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// FindByTokenID looks a token up by the public id embedded in the credential.
// The public id is the token_id primary key.
func (r *PgxServiceTokenRepository) FindByTokenID(ctx context.Context, tokenID string) (*domain.ServiceToken, error) {
	return r.FindByID(ctx, tokenID)
}

// Update updates an existing token (e.g., to record last_used_at)
func (r *PgxServiceTokenRepository) Update(ctx context.Context, token *domain.ServiceToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	result, err := r.Pool.Exec(ctx, updateServiceTokenQuery, token.ID, token.LastUsedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a token by ID
func (r *PgxServiceTokenRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	result, err := r.Pool.Exec(ctx, deleteServiceTokenQuery, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteExpired removes all tokens that expired before the given time
func (r *PgxServiceTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, errors.New("invalid time provided")
	}

	result, err := r.Pool.Exec(ctx, deleteExpiredServiceTokensQuery, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// scanServiceToken scans a service token from a row
func scanServiceToken(row pgx.Row) (*domain.ServiceToken, error) {
	var token domain.ServiceToken
	err := row.Scan(
		&token.ID,
		&token.ServiceID,
		&token.Name,
		&token.TokenHash,
		&token.LastUsedAt,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}
