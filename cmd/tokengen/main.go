// Command tokengen mints a bearer token for a Destination's auth_tokens
// YAML entry. The cleartext goes in the config document's `value` field
// (the reconcile loader hashes it before storage, invariant I2) and is
// also the literal value a client sends as "Bearer <cleartext>"; the
// digest is printed alongside for operators cross-checking the stored
// database row.
package main

import (
	"encoding/hex"
	"fmt"
	"log"

	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/hasher"
)

func main() {
	cleartext, err := domain.NewTokenCleartext()
	if err != nil {
		log.Fatalf("failed to mint token: %v", err)
	}
	digest := hasher.HashString(cleartext)

	fmt.Printf("cleartext: %s\n", cleartext)
	fmt.Printf("digest:    %s\n", hex.EncodeToString(digest))
}
