package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fusion-gw/fusion/internal/store"
)

// Source identifies one upstream endpoint participating in one or more
// Destinations. Source.ID is database-assigned; Code is the upsert key
// (invariant I1 in SPEC_FULL.md).
type Source struct {
	ID       int
	Code     string `validate:"required"`
	URL      string `validate:"required,url"`
	Params   map[string]string
	Headers  map[string]string
	Timeout  *time.Duration
	Auth     Auth
	Body     Body
	Fallback json.RawMessage
}

// SourceRepository is the Store's typed CRUD surface for Source, per
// SPEC_FULL.md §4.4. Every method takes the Querier it should run
// against, so callers can run the same code in a reconcile transaction
// or against the shared pool during request handling.
type SourceRepository interface {
	SelectByID(ctx context.Context, q store.Querier, id int) (*Source, error)
	SelectByCode(ctx context.Context, q store.Querier, code string) (*Source, error)
	Exists(ctx context.Context, q store.Querier, code string) (bool, error)
	Insert(ctx context.Context, q store.Querier, source *Source) (*Source, error)
	Update(ctx context.Context, q store.Querier, source *Source) (*Source, error)
	Delete(ctx context.Context, q store.Querier, code string) error
	InsertOrUpdate(ctx context.Context, q store.Querier, source *Source) (*Source, error)
}
