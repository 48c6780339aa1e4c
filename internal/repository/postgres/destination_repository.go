package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/store"
)

// DestinationRepository is the Postgres implementation of
// domain.DestinationRepository.
type DestinationRepository struct {
	sources domain.SourceRepository
}

func NewDestinationRepository() domain.DestinationRepository {
	return &DestinationRepository{sources: NewSourceRepository()}
}

const destinationColumns = `
	destinations.id, destinations.code, destinations.path, destinations.headers,
	destinations.is_active, destinations.is_auth, destinations.filter
`

func scanDestination(row pgx.Row) (*domain.Destination, error) {
	var (
		d       domain.Destination
		headers []byte
	)
	if err := row.Scan(&d.ID, &d.Code, &d.Path, &headers, &d.IsActive, &d.IsAuth, &d.Filter); err != nil {
		return nil, err
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &d.Headers); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func (r *DestinationRepository) SelectByID(ctx context.Context, q store.Querier, id int) (*domain.Destination, error) {
	row := q.QueryRow(ctx, "SELECT "+destinationColumns+" FROM destinations WHERE destinations.id = $1;", id)
	return scanDestination(row)
}

func (r *DestinationRepository) SelectByCode(ctx context.Context, q store.Querier, code string) (*domain.Destination, error) {
	row := q.QueryRow(ctx, "SELECT "+destinationColumns+" FROM destinations WHERE destinations.code = $1;", code)
	return scanDestination(row)
}

// SelectByPath is the dispatcher's sole lookup path (invariant I3).
func (r *DestinationRepository) SelectByPath(ctx context.Context, q store.Querier, path string) (*domain.Destination, error) {
	row := q.QueryRow(ctx, "SELECT "+destinationColumns+" FROM destinations WHERE destinations.path = $1 LIMIT 1;", path)
	return scanDestination(row)
}

func (r *DestinationRepository) Exists(ctx context.Context, q store.Querier, code string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM destinations WHERE destinations.code = $1);", code).Scan(&exists)
	return exists, err
}

func (r *DestinationRepository) Insert(ctx context.Context, q store.Querier, d *domain.Destination) (*domain.Destination, error) {
	headers, _ := json.Marshal(d.Headers)
	row := q.QueryRow(ctx, `
		INSERT INTO destinations (code, path, headers, is_active, is_auth, filter)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+destinationColumns+`;
	`, d.Code, d.Path, headers, d.IsActive, d.IsAuth, d.Filter)
	return scanDestination(row)
}

func (r *DestinationRepository) Update(ctx context.Context, q store.Querier, d *domain.Destination) (*domain.Destination, error) {
	headers, _ := json.Marshal(d.Headers)
	row := q.QueryRow(ctx, `
		UPDATE destinations
		SET path = $1, headers = $2, is_active = $3, is_auth = $4, filter = $5
		WHERE destinations.code = $6
		RETURNING `+destinationColumns+`;
	`, d.Path, headers, d.IsActive, d.IsAuth, d.Filter, d.Code)
	return scanDestination(row)
}

func (r *DestinationRepository) Delete(ctx context.Context, q store.Querier, code string) error {
	_, err := q.Exec(ctx, "DELETE FROM destinations WHERE destinations.code = $1;", code)
	return err
}

func (r *DestinationRepository) InsertOrUpdate(ctx context.Context, q store.Querier, d *domain.Destination) (*domain.Destination, error) {
	exists, err := r.Exists(ctx, q, d.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return r.Update(ctx, q, d)
	}
	return r.Insert(ctx, q, d)
}

// GetSources returns the Sources linked to destinationID ordered by
// ascending source id, satisfying invariant I5.
func (r *DestinationRepository) GetSources(ctx context.Context, q store.Querier, destinationID int) ([]*domain.Source, error) {
	rows, err := q.Query(ctx, `
		SELECT `+sourceColumns+`
		FROM destinations__sources
		INNER JOIN sources ON sources.id = destinations__sources.source_id
		WHERE destinations__sources.destination_id = $1
		ORDER BY sources.id ASC;
	`, destinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*domain.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// IsTokenFor reports only whether a link row exists; expiration is the
// Authorizer's concern (invariant I4 splits across both layers).
func (r *DestinationRepository) IsTokenFor(ctx context.Context, q store.Querier, destinationID, tokenID int) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM destinations__auth_tokens
			WHERE destinations__auth_tokens.destination_id = $1
			  AND destinations__auth_tokens.auth_token_id = $2
		);
	`, destinationID, tokenID).Scan(&exists)
	return exists, err
}

// LinkSources inserts one row per code that resolves to a Source;
// unmatched codes are silently ignored per SPEC_FULL.md §4.4.
func (r *DestinationRepository) LinkSources(ctx context.Context, q store.Querier, destinationID int, sourceCodes []string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO destinations__sources (destination_id, source_id)
		SELECT $1, sources.id FROM sources WHERE sources.code = ANY($2);
	`, destinationID, sourceCodes)
	return err
}

func (r *DestinationRepository) UnlinkSources(ctx context.Context, q store.Querier, destinationID int) error {
	_, err := q.Exec(ctx, "DELETE FROM destinations__sources WHERE destinations__sources.destination_id = $1;", destinationID)
	return err
}
