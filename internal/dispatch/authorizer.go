package dispatch

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/hasher"
	"github.com/fusion-gw/fusion/internal/store"
)

// bearerPattern matches exactly "Bearer <32 word chars>"; compiled once
// at package init since it is reused on every authorized request.
var bearerPattern = regexp.MustCompile(`^Bearer\s\w{32}$`)

// Authorizer implements SPEC_FULL.md §4.2: extract the bearer token,
// hash it, and confirm it is linked to the destination and unexpired.
type Authorizer struct {
	tokens       domain.AuthTokenRepository
	destinations domain.DestinationRepository
}

func NewAuthorizer(tokens domain.AuthTokenRepository, destinations domain.DestinationRepository) *Authorizer {
	return &Authorizer{tokens: tokens, destinations: destinations}
}

// Authorize returns nil when headers carry a valid, unexpired token
// linked to destination; otherwise it returns an Unauthorized Error.
// Any deviation from the exact "Bearer <32 word chars>" shape is
// rejected before the store is ever consulted.
func (a *Authorizer) Authorize(ctx context.Context, q store.Querier, headers http.Header, destination *domain.Destination) error {
	header := headers.Get("Authorization")
	if header == "" || !bearerPattern.MatchString(header) {
		return Unauthorized()
	}
	cleartext := header[len("Bearer "):]

	digest := hasher.HashString(cleartext)

	token, err := a.tokens.SelectByValue(ctx, q, digest)
	if err != nil {
		return Unauthorized()
	}

	linked, err := a.destinations.IsTokenFor(ctx, q, destination.ID, token.ID)
	if err != nil || !linked {
		return Unauthorized()
	}
	if !token.IsValid(time.Now()) {
		return Unauthorized()
	}

	return nil
}
