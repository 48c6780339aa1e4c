// Package dispatch implements the end-to-end request handling path:
// resolve destination, authorize, fan out to sources, aggregate, filter,
// respond. See SPEC_FULL.md §4.1.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/itchyny/gojq"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fusion-gw/fusion/internal/compose"
	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/store"
)

// Upstream issues the outbound call for a single Source. Satisfied by
// *compose.Composer; an interface here keeps the Dispatcher testable
// without a live HTTP server.
type Upstream interface {
	Do(ctx context.Context, source *domain.Source) ([]byte, error)
}

var _ Upstream = (*compose.Composer)(nil)

// Dispatcher is the gateway's core. It holds no per-request state; all
// of it is threaded through Handle's parameters and return value.
type Dispatcher struct {
	destinations domain.DestinationRepository
	authorizer   *Authorizer
	upstream     Upstream
	logger       *zap.Logger
}

func New(destinations domain.DestinationRepository, authorizer *Authorizer, upstream Upstream, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		destinations: destinations,
		authorizer:   authorizer,
		upstream:     upstream,
		logger:       logger,
	}
}

// Handle implements SPEC_FULL.md §4.1 steps 2-8. path must already be
// normalized to leading-slash, prefix-stripped form — the HTTP Front's
// job, not the Dispatcher's (step 1).
func (d *Dispatcher) Handle(ctx context.Context, q store.Querier, path string, headers http.Header) ([]byte, error) {
	destination, err := d.destinations.SelectByPath(ctx, q, path)
	if err != nil {
		return nil, FromStoreError(err, errors.Is(err, pgx.ErrNoRows))
	}

	if destination.IsAuth {
		if err := d.authorizer.Authorize(ctx, q, headers, destination); err != nil {
			return nil, err
		}
	}

	sources, err := d.destinations.GetSources(ctx, q, destination.ID)
	if err != nil {
		return nil, InternalServerError(err.Error())
	}

	start := time.Now()
	aggregated, err := d.fanOut(ctx, sources)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(aggregated)
	if err != nil {
		return nil, InternalServerError(err.Error())
	}

	if destination.Filter != nil && *destination.Filter != "" {
		filtered, err := runFilter(*destination.Filter, body)
		if err != nil {
			return nil, InternalServerError(err.Error())
		}
		body = filtered
	}

	if d.logger != nil {
		d.logger.Info("dispatched request",
			zap.String("destination", destination.Code),
			zap.Int("sources", len(sources)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Bool("filtered", destination.Filter != nil))
	}

	return body, nil
}

// fanOut dispatches one goroutine per Source and collects results into
// a position-indexed slice, so the aggregated order matches ascending
// Source.id (invariant I5) regardless of completion order.
func (d *Dispatcher) fanOut(ctx context.Context, sources []*domain.Source) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(sources))
	errs := make([]*Error, len(sources))

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source *domain.Source) {
			defer wg.Done()
			results[i], errs[i] = d.dispatchOne(ctx, source)
		}(i, source)
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return results, nil
}

// dispatchOne runs one source's upstream call, substituting its
// fallback on failure when configured. A non-nil *Error here is a hard
// failure that aborts the whole request.
func (d *Dispatcher) dispatchOne(ctx context.Context, source *domain.Source) (json.RawMessage, *Error) {
	callCtx := ctx
	var cancel context.CancelFunc
	if source.Timeout != nil {
		callCtx, cancel = context.WithTimeout(ctx, *source.Timeout)
		defer cancel()
	}

	body, err := d.upstream.Do(callCtx, source)
	if err == nil {
		if json.Valid(body) {
			return json.RawMessage(body), nil
		}
		return fallbackOrError(source, InternalServerError("upstream response is not valid JSON"))
	}

	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fallbackOrError(source, BadRequest(err.Error()))
	}
	return fallbackOrError(source, InternalServerError(err.Error()))
}

// fallbackOrError substitutes source's fallback JSON for a failed call
// when one is configured; otherwise it surfaces dispatchErr, aborting
// the whole request per SPEC_FULL.md §4.1 step 5.
func fallbackOrError(source *domain.Source, dispatchErr *Error) (json.RawMessage, *Error) {
	if len(source.Fallback) > 0 {
		return json.RawMessage(source.Fallback), nil
	}
	return nil, dispatchErr
}

// runFilter runs a gojq filter expression over body and returns its
// output, trimmed, verbatim — it is not re-parsed or re-validated, per
// SPEC_FULL.md §9.
func runFilter(expr string, body []byte) ([]byte, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, err
	}

	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, err
	}

	iter := query.Run(input)
	var out bytes.Buffer
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if jqErr, ok := v.(error); ok {
			return nil, jqErr
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out.Write(encoded)
	}

	return []byte(strings.TrimSpace(out.String())), nil
}
