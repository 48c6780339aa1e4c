package domain

import (
	"context"

	"github.com/fusion-gw/fusion/internal/store"
)

// Destination is a virtual endpoint exposed to clients, mapped to N
// upstream Sources. Path is the sole lookup key for request dispatch
// (invariant I3).
type Destination struct {
	ID       int
	Code     string `validate:"required"`
	Path     string `validate:"required"`
	Headers  map[string]string
	IsActive bool
	IsAuth   bool
	Filter   *string
}

// DestinationRepository is the Store's typed CRUD surface for
// Destination, plus the relation operations SPEC_FULL.md §4.4 calls for.
type DestinationRepository interface {
	SelectByID(ctx context.Context, q store.Querier, id int) (*Destination, error)
	SelectByCode(ctx context.Context, q store.Querier, code string) (*Destination, error)
	SelectByPath(ctx context.Context, q store.Querier, path string) (*Destination, error)
	Exists(ctx context.Context, q store.Querier, code string) (bool, error)
	Insert(ctx context.Context, q store.Querier, dest *Destination) (*Destination, error)
	Update(ctx context.Context, q store.Querier, dest *Destination) (*Destination, error)
	Delete(ctx context.Context, q store.Querier, code string) error
	InsertOrUpdate(ctx context.Context, q store.Querier, dest *Destination) (*Destination, error)

	// GetSources returns the Sources linked to destinationID in
	// ascending Source.id order (invariant I5).
	GetSources(ctx context.Context, q store.Querier, destinationID int) ([]*Source, error)
	// IsTokenFor reports whether a link row exists between
	// destinationID and tokenID. Expiration is checked by the caller
	// (Authorizer), not here, per invariant I4.
	IsTokenFor(ctx context.Context, q store.Querier, destinationID, tokenID int) (bool, error)
	LinkSources(ctx context.Context, q store.Querier, destinationID int, sourceCodes []string) error
	UnlinkSources(ctx context.Context, q store.Querier, destinationID int) error
}
