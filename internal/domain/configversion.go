package domain

import (
	"context"
	"time"

	"github.com/fusion-gw/fusion/internal/store"
)

// ConfigVersion is the append-only content-addressed log described by
// invariant I6: the newest row's Hash equals the SHA-256 digest of the
// canonical YAML serialization of the last successfully applied
// configuration.
type ConfigVersion struct {
	UpdatedOn time.Time
	Hash      []byte
}

// ConfigVersionRepository exposes the two operations the reconcile loop
// needs: read the latest digest to diff against, and append the new one
// inside the same transaction as the entity upserts.
type ConfigVersionRepository interface {
	Latest(ctx context.Context, q store.Querier) (*ConfigVersion, error)
	Append(ctx context.Context, q store.Querier, version *ConfigVersion) error
}
