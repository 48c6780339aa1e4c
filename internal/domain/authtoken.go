package domain

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/fusion-gw/fusion/internal/store"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// AuthToken is a bearer credential. Value holds the SHA-256 digest of
// the cleartext token (invariant I2); the cleartext itself is never
// persisted.
type AuthToken struct {
	ID         int
	Value      []byte `validate:"required,len=32"`
	Expiration *time.Time
}

// IsValid reports whether the token has not expired, per invariant I4:
// absent expiration means the token never expires, and expiration must
// be strictly in the future.
func (t *AuthToken) IsValid(now time.Time) bool {
	if t.Expiration == nil {
		return true
	}
	return t.Expiration.After(now)
}

// NewTokenCleartext mints 32 random alphanumeric characters, the
// cleartext a caller hashes before storing as an AuthToken.Value. This
// mirrors the reference implementation's token constructor; it is
// exposed for cmd/tokengen, not through the gateway's HTTP surface.
func NewTokenCleartext() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, 32)
	for i, b := range buf {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(out), nil
}

// AuthTokenRepository is the Store's typed CRUD surface for AuthToken,
// plus the destination-link operations SPEC_FULL.md §4.4 calls for.
type AuthTokenRepository interface {
	SelectByID(ctx context.Context, q store.Querier, id int) (*AuthToken, error)
	SelectByValue(ctx context.Context, q store.Querier, value []byte) (*AuthToken, error)
	Exists(ctx context.Context, q store.Querier, value []byte) (bool, error)
	Insert(ctx context.Context, q store.Querier, token *AuthToken) (*AuthToken, error)
	Update(ctx context.Context, q store.Querier, token *AuthToken) (*AuthToken, error)
	Delete(ctx context.Context, q store.Querier, value []byte) error
	InsertOrUpdate(ctx context.Context, q store.Querier, token *AuthToken) (*AuthToken, error)

	LinkDestinations(ctx context.Context, q store.Querier, tokenID int, destinationCodes []string) error
	UnlinkDestinations(ctx context.Context, q store.Querier, tokenID int) error
}
