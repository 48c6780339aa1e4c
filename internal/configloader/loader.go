// Package configloader reads the YAML configuration document that
// declares Sources, Destinations and AuthTokens, and reconciles it into
// Postgres. Reconcile is idempotent: re-running it against an unchanged
// document is a no-op, detected by content-addressing the canonical
// document (invariant I6 in SPEC_FULL.md).
package configloader

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/hasher"
	"github.com/fusion-gw/fusion/internal/store"
)

var validate = validator.New()

// Repositories bundles the four Store surfaces Reconcile writes
// through, inside a single transaction.
type Repositories struct {
	Sources      domain.SourceRepository
	Destinations domain.DestinationRepository
	Tokens       domain.AuthTokenRepository
	Versions     domain.ConfigVersionRepository
}

// Reconcile reads the YAML document at path and, if its canonical
// content hash differs from the latest recorded domain.ConfigVersion,
// upserts every source, destination and auth token it describes (plus
// their relink tables) through q, then appends the new version. It
// reports (false, nil) when the document is unchanged and nothing was
// written. Callers run it inside a transaction (q is normally a pgx.Tx
// obtained from store.BeginTx) so a failure midway leaves the store
// untouched.
func Reconcile(ctx context.Context, q store.Querier, repos Repositories, path string) (bool, error) {
	raw, err := ReadFile(path, FileTypeConfig)
	if err != nil {
		return false, err
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(raw), &parsed); err != nil {
		return false, errf("config file `%s` is not valid YAML: %v", path, err)
	}

	canonical, err := yaml.Marshal(parsed)
	if err != nil {
		return false, errf("config file `%s` could not be canonicalized: %v", path, err)
	}
	digest := hasher.HashBytes(canonical)

	root, ok := asMap(parsed)
	if !ok {
		return false, errf("config file `%s` root must be a mapping", path)
	}

	latest, err := repos.Versions.Latest(ctx, q)
	if err != nil {
		return false, err
	}
	if latest != nil && bytesEqual(latest.Hash, digest) {
		return false, nil
	}

	if err := applySources(ctx, q, repos.Sources, root); err != nil {
		return false, err
	}
	if err := applyDestinations(ctx, q, repos.Destinations, root); err != nil {
		return false, err
	}
	if err := applyAuthTokens(ctx, q, repos.Tokens, root); err != nil {
		return false, err
	}

	if err := repos.Versions.Append(ctx, q, &domain.ConfigVersion{UpdatedOn: time.Now(), Hash: digest}); err != nil {
		return false, err
	}

	return true, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sequence(root yamlMap, key string) ([]yamlMap, error) {
	raw, ok := root[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errf("`%s` must be a sequence", key)
	}
	out := make([]yamlMap, 0, len(items))
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			return nil, errf("`%s` entries must be mappings", key)
		}
		out = append(out, m)
	}
	return out, nil
}

// codeEntries reads a top-level `<key>: { <code>: {...}, ... }` mapping,
// per SPEC_FULL.md §6's YAML schema (sources and destinations are keyed
// by code, unlike the auth_tokens sequence).
func codeEntries(root yamlMap, key string) (map[string]yamlMap, error) {
	raw, ok := root[key]
	if !ok || raw == nil {
		return nil, nil
	}
	parent, ok := asMap(raw)
	if !ok {
		return nil, errf("`%s` must be a mapping of code to entry", key)
	}
	out := make(map[string]yamlMap, len(parent))
	for code, v := range parent {
		entry, ok := asMap(v)
		if !ok {
			return nil, errf("`%s.%s` must be a mapping", key, code)
		}
		out[code] = entry
	}
	return out, nil
}

func applySources(ctx context.Context, q store.Querier, repo domain.SourceRepository, root yamlMap) error {
	entries, err := codeEntries(root, "sources")
	if err != nil {
		return err
	}
	for code, entry := range entries {
		url, err := requiredString(entry, "url")
		if err != nil {
			return err
		}
		timeout, err := optionalDuration(entry, "timeout")
		if err != nil {
			return err
		}
		auth, err := parseAuth(entry["auth"])
		if err != nil {
			return err
		}
		body, err := parseBody(entry["body"])
		if err != nil {
			return err
		}
		fallback, err := parseFallback(entry)
		if err != nil {
			return err
		}

		source := &domain.Source{
			Code:     code,
			URL:      url,
			Params:   optionalStringMap(entry, "params"),
			Headers:  optionalStringMap(entry, "headers"),
			Timeout:  timeout,
			Auth:     auth,
			Body:     body,
			Fallback: fallback,
		}
		if err := validate.Struct(source); err != nil {
			return errf("source `%s`: %v", code, err)
		}
		if _, err := repo.InsertOrUpdate(ctx, q, source); err != nil {
			return errf("source `%s`: %v", code, err)
		}
	}
	return nil
}

func applyDestinations(ctx context.Context, q store.Querier, repo domain.DestinationRepository, root yamlMap) error {
	entries, err := codeEntries(root, "destinations")
	if err != nil {
		return err
	}
	for code, entry := range entries {
		path, err := requiredString(entry, "path")
		if err != nil {
			return err
		}
		filter, err := parseFilter(entry)
		if err != nil {
			return err
		}
		sourceCodes, err := destinationSources(entry)
		if err != nil {
			return err
		}

		dest := &domain.Destination{
			Code:     code,
			Path:     path,
			Headers:  optionalStringMap(entry, "headers"),
			IsActive: optionalBoolDefault(entry, "is_active", false),
			IsAuth:   optionalBoolDefault(entry, "is_auth", false),
			Filter:   filter,
		}
		if err := validate.Struct(dest); err != nil {
			return errf("destination `%s`: %v", code, err)
		}
		saved, err := repo.InsertOrUpdate(ctx, q, dest)
		if err != nil {
			return errf("destination `%s`: %v", code, err)
		}

		if err := repo.UnlinkSources(ctx, q, saved.ID); err != nil {
			return errf("destination `%s`: %v", code, err)
		}
		if len(sourceCodes) > 0 {
			if err := repo.LinkSources(ctx, q, saved.ID, sourceCodes); err != nil {
				return errf("destination `%s`: %v", code, err)
			}
		}
	}
	return nil
}

func destinationSources(entry yamlMap) ([]string, error) {
	raw, ok := entry["sources"]
	if !ok || raw == nil {
		return nil, nil
	}
	return stringSlice(raw)
}

func applyAuthTokens(ctx context.Context, q store.Querier, repo domain.AuthTokenRepository, root yamlMap) error {
	entries, err := sequence(root, "auth_tokens")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		cleartext, err := requiredString(entry, "value")
		if err != nil {
			return err
		}
		expiration, err := optionalDateTime(entry, "expiration")
		if err != nil {
			return err
		}
		destCodes, err := tokenDestinations(entry)
		if err != nil {
			return err
		}

		token := &domain.AuthToken{
			Value:      hasher.HashString(cleartext),
			Expiration: expiration,
		}
		if err := validate.Struct(token); err != nil {
			return errf("auth token: %v", err)
		}
		saved, err := repo.InsertOrUpdate(ctx, q, token)
		if err != nil {
			return errf("auth token: %v", err)
		}

		if err := repo.UnlinkDestinations(ctx, q, saved.ID); err != nil {
			return errf("auth token: %v", err)
		}
		if len(destCodes) > 0 {
			if err := repo.LinkDestinations(ctx, q, saved.ID, destCodes); err != nil {
				return errf("auth token: %v", err)
			}
		}
	}
	return nil
}

func tokenDestinations(entry yamlMap) ([]string, error) {
	raw, ok := entry["destinations"]
	if !ok || raw == nil {
		return nil, nil
	}
	return stringSlice(raw)
}
