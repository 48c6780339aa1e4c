package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/store"
)

// AuthTokenRepository is the Postgres implementation of
// domain.AuthTokenRepository.
type AuthTokenRepository struct{}

func NewAuthTokenRepository() domain.AuthTokenRepository {
	return &AuthTokenRepository{}
}

const authTokenColumns = `auth_tokens.id, auth_tokens.value, auth_tokens.expiration`

func scanAuthToken(row pgx.Row) (*domain.AuthToken, error) {
	var t domain.AuthToken
	if err := row.Scan(&t.ID, &t.Value, &t.Expiration); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *AuthTokenRepository) SelectByID(ctx context.Context, q store.Querier, id int) (*domain.AuthToken, error) {
	row := q.QueryRow(ctx, "SELECT "+authTokenColumns+" FROM auth_tokens WHERE auth_tokens.id = $1;", id)
	return scanAuthToken(row)
}

// SelectByValue looks a token up by its SHA-256 digest, never by
// cleartext (invariant I2).
func (r *AuthTokenRepository) SelectByValue(ctx context.Context, q store.Querier, value []byte) (*domain.AuthToken, error) {
	row := q.QueryRow(ctx, "SELECT "+authTokenColumns+" FROM auth_tokens WHERE auth_tokens.value = $1;", value)
	return scanAuthToken(row)
}

func (r *AuthTokenRepository) Exists(ctx context.Context, q store.Querier, value []byte) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM auth_tokens WHERE auth_tokens.value = $1);", value).Scan(&exists)
	return exists, err
}

func (r *AuthTokenRepository) Insert(ctx context.Context, q store.Querier, t *domain.AuthToken) (*domain.AuthToken, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO auth_tokens (value, expiration)
		VALUES ($1, $2)
		RETURNING `+authTokenColumns+`;
	`, t.Value, t.Expiration)
	return scanAuthToken(row)
}

func (r *AuthTokenRepository) Update(ctx context.Context, q store.Querier, t *domain.AuthToken) (*domain.AuthToken, error) {
	row := q.QueryRow(ctx, `
		UPDATE auth_tokens
		SET expiration = $1
		WHERE auth_tokens.value = $2
		RETURNING `+authTokenColumns+`;
	`, t.Expiration, t.Value)
	return scanAuthToken(row)
}

func (r *AuthTokenRepository) Delete(ctx context.Context, q store.Querier, value []byte) error {
	_, err := q.Exec(ctx, "DELETE FROM auth_tokens WHERE auth_tokens.value = $1;", value)
	return err
}

func (r *AuthTokenRepository) InsertOrUpdate(ctx context.Context, q store.Querier, t *domain.AuthToken) (*domain.AuthToken, error) {
	exists, err := r.Exists(ctx, q, t.Value)
	if err != nil {
		return nil, err
	}
	if exists {
		return r.Update(ctx, q, t)
	}
	return r.Insert(ctx, q, t)
}

func (r *AuthTokenRepository) LinkDestinations(ctx context.Context, q store.Querier, tokenID int, destinationCodes []string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO destinations__auth_tokens (destination_id, auth_token_id)
		SELECT destinations.id, $1 FROM destinations WHERE destinations.code = ANY($2);
	`, tokenID, destinationCodes)
	return err
}

func (r *AuthTokenRepository) UnlinkDestinations(ctx context.Context, q store.Querier, tokenID int) error {
	_, err := q.Exec(ctx, "DELETE FROM destinations__auth_tokens WHERE destinations__auth_tokens.auth_token_id = $1;", tokenID)
	return err
}
