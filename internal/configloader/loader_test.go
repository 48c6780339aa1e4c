package configloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fusion-gw/fusion/internal/domain"
	"github.com/fusion-gw/fusion/internal/hasher"
	"github.com/fusion-gw/fusion/internal/store"
)

type fakeSources struct {
	byCode map[string]*domain.Source
	nextID int
}

func newFakeSources() *fakeSources { return &fakeSources{byCode: map[string]*domain.Source{}} }

func (f *fakeSources) SelectByID(ctx context.Context, q store.Querier, id int) (*domain.Source, error) {
	for _, s := range f.byCode {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errf("not found")
}
func (f *fakeSources) SelectByCode(ctx context.Context, q store.Querier, code string) (*domain.Source, error) {
	s, ok := f.byCode[code]
	if !ok {
		return nil, errf("not found")
	}
	return s, nil
}
func (f *fakeSources) Exists(ctx context.Context, q store.Querier, code string) (bool, error) {
	_, ok := f.byCode[code]
	return ok, nil
}
func (f *fakeSources) Insert(ctx context.Context, q store.Querier, s *domain.Source) (*domain.Source, error) {
	f.nextID++
	s.ID = f.nextID
	f.byCode[s.Code] = s
	return s, nil
}
func (f *fakeSources) Update(ctx context.Context, q store.Querier, s *domain.Source) (*domain.Source, error) {
	f.byCode[s.Code] = s
	return s, nil
}
func (f *fakeSources) Delete(ctx context.Context, q store.Querier, code string) error {
	delete(f.byCode, code)
	return nil
}
func (f *fakeSources) InsertOrUpdate(ctx context.Context, q store.Querier, s *domain.Source) (*domain.Source, error) {
	if existing, ok := f.byCode[s.Code]; ok {
		s.ID = existing.ID
		return f.Update(ctx, q, s)
	}
	return f.Insert(ctx, q, s)
}

type fakeDestRepo struct {
	byCode  map[string]*domain.Destination
	sources map[int][]string
	nextID  int
}

func newFakeDestRepo() *fakeDestRepo {
	return &fakeDestRepo{byCode: map[string]*domain.Destination{}, sources: map[int][]string{}}
}

func (f *fakeDestRepo) SelectByID(ctx context.Context, q store.Querier, id int) (*domain.Destination, error) {
	for _, d := range f.byCode {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, errf("not found")
}
func (f *fakeDestRepo) SelectByCode(ctx context.Context, q store.Querier, code string) (*domain.Destination, error) {
	d, ok := f.byCode[code]
	if !ok {
		return nil, errf("not found")
	}
	return d, nil
}
func (f *fakeDestRepo) SelectByPath(ctx context.Context, q store.Querier, path string) (*domain.Destination, error) {
	for _, d := range f.byCode {
		if d.Path == path {
			return d, nil
		}
	}
	return nil, errf("not found")
}
func (f *fakeDestRepo) Exists(ctx context.Context, q store.Querier, code string) (bool, error) {
	_, ok := f.byCode[code]
	return ok, nil
}
func (f *fakeDestRepo) Insert(ctx context.Context, q store.Querier, d *domain.Destination) (*domain.Destination, error) {
	f.nextID++
	d.ID = f.nextID
	f.byCode[d.Code] = d
	return d, nil
}
func (f *fakeDestRepo) Update(ctx context.Context, q store.Querier, d *domain.Destination) (*domain.Destination, error) {
	f.byCode[d.Code] = d
	return d, nil
}
func (f *fakeDestRepo) Delete(ctx context.Context, q store.Querier, code string) error {
	delete(f.byCode, code)
	return nil
}
func (f *fakeDestRepo) InsertOrUpdate(ctx context.Context, q store.Querier, d *domain.Destination) (*domain.Destination, error) {
	if existing, ok := f.byCode[d.Code]; ok {
		d.ID = existing.ID
		return f.Update(ctx, q, d)
	}
	return f.Insert(ctx, q, d)
}
func (f *fakeDestRepo) GetSources(ctx context.Context, q store.Querier, destinationID int) ([]*domain.Source, error) {
	return nil, nil
}
func (f *fakeDestRepo) IsTokenFor(ctx context.Context, q store.Querier, destinationID, tokenID int) (bool, error) {
	return false, nil
}
func (f *fakeDestRepo) LinkSources(ctx context.Context, q store.Querier, destinationID int, sourceCodes []string) error {
	f.sources[destinationID] = sourceCodes
	return nil
}
func (f *fakeDestRepo) UnlinkSources(ctx context.Context, q store.Querier, destinationID int) error {
	delete(f.sources, destinationID)
	return nil
}

type fakeTokenRepo struct {
	byValue map[string]*domain.AuthToken
	linked  map[int][]string
	nextID  int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byValue: map[string]*domain.AuthToken{}, linked: map[int][]string{}}
}

func (f *fakeTokenRepo) SelectByID(ctx context.Context, q store.Querier, id int) (*domain.AuthToken, error) {
	for _, t := range f.byValue {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errf("not found")
}
func (f *fakeTokenRepo) SelectByValue(ctx context.Context, q store.Querier, value []byte) (*domain.AuthToken, error) {
	t, ok := f.byValue[string(value)]
	if !ok {
		return nil, errf("not found")
	}
	return t, nil
}
func (f *fakeTokenRepo) Exists(ctx context.Context, q store.Querier, value []byte) (bool, error) {
	_, ok := f.byValue[string(value)]
	return ok, nil
}
func (f *fakeTokenRepo) Insert(ctx context.Context, q store.Querier, t *domain.AuthToken) (*domain.AuthToken, error) {
	f.nextID++
	t.ID = f.nextID
	f.byValue[string(t.Value)] = t
	return t, nil
}
func (f *fakeTokenRepo) Update(ctx context.Context, q store.Querier, t *domain.AuthToken) (*domain.AuthToken, error) {
	f.byValue[string(t.Value)] = t
	return t, nil
}
func (f *fakeTokenRepo) Delete(ctx context.Context, q store.Querier, value []byte) error {
	delete(f.byValue, string(value))
	return nil
}
func (f *fakeTokenRepo) InsertOrUpdate(ctx context.Context, q store.Querier, t *domain.AuthToken) (*domain.AuthToken, error) {
	if existing, ok := f.byValue[string(t.Value)]; ok {
		t.ID = existing.ID
		return f.Update(ctx, q, t)
	}
	return f.Insert(ctx, q, t)
}
func (f *fakeTokenRepo) LinkDestinations(ctx context.Context, q store.Querier, tokenID int, destinationCodes []string) error {
	f.linked[tokenID] = destinationCodes
	return nil
}
func (f *fakeTokenRepo) UnlinkDestinations(ctx context.Context, q store.Querier, tokenID int) error {
	delete(f.linked, tokenID)
	return nil
}

type fakeVersions struct {
	latest *domain.ConfigVersion
}

func (f *fakeVersions) Latest(ctx context.Context, q store.Querier) (*domain.ConfigVersion, error) {
	return f.latest, nil
}
func (f *fakeVersions) Append(ctx context.Context, q store.Querier, v *domain.ConfigVersion) error {
	f.latest = v
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fusion.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

const sampleConfig = `
sources:
  weather:
    url: https://weather.example.com/now
    auth:
      type: bearer
      token: secret
destinations:
  home:
    path: /home
    sources: [weather]
auth_tokens:
  - value: abcdefghijklmnopqrstuvwxyz012345
    destinations: [home]
`

func newRepos() (Repositories, *fakeSources, *fakeDestRepo, *fakeTokenRepo, *fakeVersions) {
	sources := newFakeSources()
	dests := newFakeDestRepo()
	tokens := newFakeTokenRepo()
	versions := &fakeVersions{}
	return Repositories{Sources: sources, Destinations: dests, Tokens: tokens, Versions: versions}, sources, dests, tokens, versions
}

func TestReconcileAppliesAllEntities(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	repos, sources, dests, tokens, versions := newRepos()

	changed, err := Reconcile(context.Background(), nil, repos, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected first reconcile to report a change")
	}

	if _, ok := sources.byCode["weather"]; !ok {
		t.Fatal("expected source to be upserted")
	}
	dest, ok := dests.byCode["home"]
	if !ok {
		t.Fatal("expected destination to be upserted")
	}
	if got := dests.sources[dest.ID]; len(got) != 1 || got[0] != "weather" {
		t.Fatalf("expected destination linked to weather, got %v", got)
	}

	digest := hasher.HashString("abcdefghijklmnopqrstuvwxyz012345")
	token, ok := tokens.byValue[string(digest)]
	if !ok {
		t.Fatal("expected auth token stored as a hash, not cleartext")
	}
	if got := tokens.linked[token.ID]; len(got) != 1 || got[0] != "home" {
		t.Fatalf("expected token linked to home, got %v", got)
	}
	if versions.latest == nil {
		t.Fatal("expected a new config version to be appended")
	}
}

func TestReconcileIsNoOpWhenUnchanged(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	repos, _, _, _, versions := newRepos()

	if _, err := Reconcile(context.Background(), nil, repos, path); err != nil {
		t.Fatalf("unexpected error on first reconcile: %v", err)
	}
	firstDigest := versions.latest.Hash

	changed, err := Reconcile(context.Background(), nil, repos, path)
	if err != nil {
		t.Fatalf("unexpected error on second reconcile: %v", err)
	}
	if changed {
		t.Fatal("expected second reconcile against the same document to be a no-op")
	}
	if string(versions.latest.Hash) != string(firstDigest) {
		t.Fatal("expected latest version hash to remain unchanged")
	}
}

func TestReconcileRejectsUnknownAuthType(t *testing.T) {
	path := writeConfig(t, `
sources:
  weather:
    url: https://weather.example.com/now
    auth:
      type: oauth2
`)
	repos, _, _, _, _ := newRepos()

	if _, err := Reconcile(context.Background(), nil, repos, path); err == nil {
		t.Fatal("expected error for unrecognized auth discriminator")
	}
}
