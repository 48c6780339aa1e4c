package postgres

import (
	"context"
	"errors"

	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/store"
)

// ConfigVersionRepository is the Postgres implementation of
// domain.ConfigVersionRepository.
type ConfigVersionRepository struct{}

func NewConfigVersionRepository() domain.ConfigVersionRepository {
	return &ConfigVersionRepository{}
}

// Latest returns the most recently appended row, or (nil, nil) when the
// log is empty (first-ever reconcile).
func (r *ConfigVersionRepository) Latest(ctx context.Context, q store.Querier) (*domain.ConfigVersion, error) {
	row := q.QueryRow(ctx, `
		SELECT config_versions.updated_on, config_versions.hash
		FROM config_versions
		ORDER BY config_versions.updated_on DESC
		LIMIT 1;
	`)

	var v domain.ConfigVersion
	if err := row.Scan(&v.UpdatedOn, &v.Hash); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *ConfigVersionRepository) Append(ctx context.Context, q store.Querier, v *domain.ConfigVersion) error {
	if len(v.Hash) == 0 {
		return errors.New("postgres: config version hash must not be empty")
	}
	_, err := q.Exec(ctx, `
		INSERT INTO config_versions (updated_on, hash)
		VALUES ($1, $2);
	`, v.UpdatedOn, v.Hash)
	return err
}
