package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/cms/cmstest"
	"upfitter/showroom/internal/db"
	"upfitter/showroom/internal/db/repositories"
	"upfitter/showroom/internal/metrics"
)

func fixtureDocs() []cms.Document {
	return []cms.Document{
		{"_id": "vehicle-transit", "_type": "vehicle", "title": "Transit Cargo", "slug": map[string]any{"_type": "slug", "current": "transit-cargo"}, "sortOrder": float64(1)},
		{"_id": "drafts.vehicle-transit", "_type": "vehicle", "title": "Transit Cargo (draft)", "slug": map[string]any{"current": "transit-cargo"}},
		{"_id": "manufacturer-ford", "_type": "manufacturer", "name": "Ford", "slug": map[string]any{"current": "ford"}, "tags": []any{"domestic", "fleet"}},
	}
}

type fakeUploader struct {
	dir, prefix string
	err         error
}

func (f *fakeUploader) UploadDir(_ context.Context, dir, prefix string) ([]string, error) {
	f.dir, f.prefix = dir, prefix
	if f.err != nil {
		return nil, f.err
	}
	return []string{prefix + "/" + CompleteBackupFile}, nil
}

func TestBackupDirName(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)
	assert.Equal(t, "backup-2024-05-06T07-08-09-123Z", BackupDirName(ts))
}

func TestBackupJob_WritesPerTypeAndCombinedFiles(t *testing.T) {
	docs := append(fixtureDocs(), cms.Document{"_id": "unrelated", "_type": "internalNote"})
	store := cmstest.NewStore(docs...)
	up := &fakeUploader{}

	job := NewBackupJob(store, "proj1", "production", t.TempDir(), up, metrics.NewNopRegistry())
	job.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "backup-2024-01-02T03-04-05-000Z", filepath.Base(res.Dir))
	assert.Equal(t, map[string]int{"vehicle": 2, "manufacturer": 1}, res.Metadata.DocumentCounts)
	assert.Equal(t, 3, res.Metadata.TotalDocuments)
	assert.Equal(t, "proj1", res.Metadata.ProjectID)
	assert.Equal(t, res.Dir, up.dir)
	assert.Equal(t, []string{filepath.Base(res.Dir) + "/" + CompleteBackupFile}, res.UploadedKeys)

	var vehicles []cms.Document
	b, err := os.ReadFile(filepath.Join(res.Dir, "vehicle.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &vehicles))
	assert.Len(t, vehicles, 2)

	_, err = os.Stat(filepath.Join(res.Dir, "internalNote.json"))
	assert.True(t, os.IsNotExist(err), "types outside the allow-list must not be backed up")

	backup, err := LoadBackup(res.Dir)
	require.NoError(t, err)
	assert.Len(t, backup.Documents, 3)
	assert.Equal(t, "production", backup.Metadata.Dataset)
}

func TestBackupJob_UploadFailureKeepsLocalSnapshot(t *testing.T) {
	store := cmstest.NewStore(fixtureDocs()...)
	job := NewBackupJob(store, "p", "d", t.TempDir(), &fakeUploader{err: errors.New("s3 down")}, nil)

	res, err := job.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, res)
	_, statErr := os.Stat(filepath.Join(res.Dir, CompleteBackupFile))
	assert.NoError(t, statErr)
}

func TestRestoreJob_MissingBackupMakesNoWrites(t *testing.T) {
	store := cmstest.NewStore()
	job := NewRestoreJob(store, nil)

	_, err := job.Run(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrBackupNotFound)

	_, err = job.Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrBackupNotFound)

	assert.Empty(t, store.Commits)
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	source := cmstest.NewStore(fixtureDocs()...)
	before := source.Documents()

	res, err := NewBackupJob(source, "p", "d", t.TempDir(), nil, nil).Run(context.Background())
	require.NoError(t, err)

	target := cmstest.NewStore()
	restored, err := NewRestoreJob(target, nil).Run(context.Background(), res.Dir)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Documents)
	assert.Equal(t, 1, restored.Batches)

	for _, tx := range target.Commits {
		for _, m := range tx {
			require.NotNil(t, m.CreateOrReplace, "restore must only create-or-replace")
			_, hasRev := m.CreateOrReplace["_rev"]
			assert.False(t, hasRev, "revision ids must be stripped")
		}
	}

	ignoreRev := cmpopts.IgnoreMapEntries(func(k string, _ any) bool { return k == "_rev" })
	if diff := cmp.Diff(before, target.Documents(), ignoreRev); diff != "" {
		t.Errorf("restored set differs (-before +after):\n%s", diff)
	}
}

func TestRestoreJob_BatchFailureAbortsWithoutRollback(t *testing.T) {
	var docs []cms.Document
	for i := 0; i < 25; i++ {
		docs = append(docs, cms.Document{"_id": "doc-" + string(rune('a'+i)), "_type": "page", "_rev": "old"})
	}
	dir := t.TempDir()
	require.NoError(t, writeJSON(filepath.Join(dir, CompleteBackupFile), BackupFile{Documents: docs}))

	store := cmstest.NewStore()
	store.FailCommit = func(n int, _ []cms.Mutation) error {
		if n == 1 {
			return errors.New("transaction too large")
		}
		return nil
	}

	res, err := NewRestoreJob(store, nil).Run(context.Background(), dir)

	var batchErr *BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 1, batchErr.Batch)
	assert.Equal(t, 10, batchErr.Committed)
	assert.Equal(t, 1, res.Batches)
	assert.Len(t, store.Documents(), 10, "first batch stays committed")
	assert.Len(t, store.Commits, 1, "later batches are not attempted")
}

func TestMigrateManufacturers_SecondRunIsNoop(t *testing.T) {
	store := cmstest.NewStore(
		cms.Document{"_id": "v1", "_type": "vehicle", "manufacturer": "Ford"},
		cms.Document{"_id": "v2", "_type": "vehicle", "manufacturer": "ford "},
		cms.Document{"_id": "v3", "_type": "vehicle", "manufacturer": "Ram"},
		cms.Document{"_id": "v4", "_type": "vehicle", "manufacturer": map[string]any{"_type": "reference", "_ref": "manufacturer-gmc"}},
		cms.Document{"_id": "m-existing", "_type": "manufacturer", "name": "Ram", "slug": map[string]any{"current": "ram"}},
	)
	job := NewMigrateManufacturersJob(store, nil, nil)

	first, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &MigrateResult{Scanned: 3, Created: 1, Existing: 1, Patched: 3}, first)

	assert.Equal(t, map[string]any{"_type": "reference", "_ref": "manufacturer-ford"}, store.Get("v1")["manufacturer"])
	assert.Equal(t, map[string]any{"_type": "reference", "_ref": "manufacturer-ford"}, store.Get("v2")["manufacturer"])
	assert.Equal(t, map[string]any{"_type": "reference", "_ref": "m-existing"}, store.Get("v3")["manufacturer"])
	assert.Equal(t, "Ford", store.Get("manufacturer-ford")["name"])

	creates := store.MutationCount("createIfNotExists")
	patches := store.MutationCount("patch")

	second, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &MigrateResult{}, second)
	assert.Equal(t, creates, store.MutationCount("createIfNotExists"), "second run must create nothing")
	assert.Equal(t, patches, store.MutationCount("patch"), "second run must rewrite nothing")
}

type failingClaimer struct{}

func (failingClaimer) Claim(context.Context, string, string, string, string) error {
	return errors.New("taken")
}

func (failingClaimer) Release(context.Context, string, string) error { return nil }

func (failingClaimer) Lookup(context.Context, string, string) (*repositories.Identity, error) {
	return nil, nil
}

func setupRegistry(t *testing.T) *repositories.IdentityRepository {
	t.Helper()
	orm, err := db.OpenORM(":memory:")
	require.NoError(t, err)
	sx, err := db.OpenSQLX(":memory:", orm)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sx.Close() })
	return repositories.NewIdentityRepository(orm, sx)
}

func TestMigrateManufacturers_RegistryClaimsNewManufacturers(t *testing.T) {
	ctx := context.Background()
	registry := setupRegistry(t)
	store := cmstest.NewStore(
		cms.Document{"_id": "v1", "_type": "vehicle", "manufacturer": "Ford"},
	)

	res, err := NewMigrateManufacturersJob(store, registry, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, &MigrateResult{Scanned: 1, Created: 1, Patched: 1}, res)

	claim, err := registry.Lookup(ctx, "manufacturer", "ford")
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, "manufacturer-ford", claim.DocumentID)
}

func TestMigrateManufacturers_ExistingClaimKeepsItsDocumentID(t *testing.T) {
	ctx := context.Background()
	registry := setupRegistry(t)
	require.NoError(t, registry.Claim(ctx, "manufacturer", "Ford", "ford", "manufacturer-legacy-ford"))

	store := cmstest.NewStore(
		cms.Document{"_id": "v1", "_type": "vehicle", "manufacturer": "Ford"},
	)

	res, err := NewMigrateManufacturersJob(store, registry, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, map[string]any{"_type": "reference", "_ref": "manufacturer-legacy-ford"}, store.Get("v1")["manufacturer"])
	assert.NotNil(t, store.Get("manufacturer-legacy-ford"))
	assert.Nil(t, store.Get("manufacturer-ford"))
}

func TestMigrateManufacturers_FailedCreateReleasesClaim(t *testing.T) {
	ctx := context.Background()
	registry := setupRegistry(t)
	store := cmstest.NewStore(
		cms.Document{"_id": "v1", "_type": "vehicle", "manufacturer": "Ford"},
	)
	store.FailCommit = func(_ int, mutations []cms.Mutation) error {
		if mutations[0].Kind() == "createIfNotExists" {
			return &cms.Error{Code: cms.ErrCodeMutationError, Message: "rejected"}
		}
		return nil
	}

	res, err := NewMigrateManufacturersJob(store, registry, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed, "create failure plus the vehicle left without a manufacturer")

	claim, err := registry.Lookup(ctx, "manufacturer", "ford")
	require.NoError(t, err)
	assert.Nil(t, claim, "a claim without a document must not survive")
	assert.Equal(t, "Ford", store.Get("v1")["manufacturer"])
}

func TestMigrateManufacturers_PerItemFailuresContinue(t *testing.T) {
	store := cmstest.NewStore(
		cms.Document{"_id": "v1", "_type": "vehicle", "manufacturer": "Ford"},
		cms.Document{"_id": "v2", "_type": "vehicle", "manufacturer": "Ram"},
		cms.Document{"_id": "m-ram", "_type": "manufacturer", "name": "Ram", "slug": map[string]any{"current": "ram"}},
	)

	res, err := NewMigrateManufacturersJob(store, failingClaimer{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Existing)
	assert.Equal(t, 1, res.Patched)
	assert.Equal(t, 2, res.Failed, "claim failure plus the vehicle left without a manufacturer")
	assert.Equal(t, "Ford", store.Get("v1")["manufacturer"])
}

func TestSeedOptions_IdempotentUpsert(t *testing.T) {
	store := cmstest.NewStore(
		cms.Document{"_id": "manufacturer-ford", "_type": "manufacturer", "name": "Ford", "slug": map[string]any{"current": "ford"}},
	)
	job := NewSeedOptionsJob(store, nil, nil)

	first, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, first.Upserted)
	assert.Zero(t, first.Failed)
	countAfterFirst := len(store.Documents())

	second, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, second.Upserted)
	assert.Equal(t, countAfterFirst, len(store.Documents()), "rerun must not add documents")

	rack := store.Get(OptionID("Ford", "Ladder Rack"))
	require.NotNil(t, rack)
	assert.Equal(t, "additionalOption-ford-ladder-rack", rack.ID())
	assert.Equal(t, "ford-ladder-rack", rack.Slug())
	assert.Equal(t, 1295.0, rack["price"])
	assert.Equal(t, map[string]any{"_type": "reference", "_ref": "manufacturer-ford"}, rack["manufacturer"])

	ram := store.Get(OptionID("Ram", "Ladder Rack"))
	require.NotNil(t, ram)
	_, hasMfr := ram["manufacturer"]
	assert.False(t, hasMfr, "missing manufacturer seeds without a reference")
}

func TestSeedOptions_InvalidFixtureIsSkipped(t *testing.T) {
	fixtures := []byte(`
- manufacturer: Ford
  options:
    - name: Good
      price: "10"
    - name: Bad
      price: "-5"
`)
	store := cmstest.NewStore()
	res, err := NewSeedOptionsJob(store, fixtures, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{Upserted: 1, Failed: 1}, res)
}

type queryFunc func(ctx context.Context, name, query string, params map[string]any, out any) error

func (f queryFunc) Query(ctx context.Context, name, query string, params map[string]any, out any) error {
	return f(ctx, name, query, params, out)
}

func TestSitemapJob(t *testing.T) {
	q := queryFunc(func(_ context.Context, _, _ string, _ map[string]any, out any) error {
		return json.Unmarshal([]byte(`{
			"vehicles": [{"slug": "transit-cargo", "_updatedAt": "2024-03-04T05:06:07Z"}, {"slug": ""}],
			"brands": [{"slug": "summit"}],
			"pages": [{"slug": "about"}]
		}`), out)
	})
	out := filepath.Join(t.TempDir(), "public", "sitemap.xml")

	n, err := NewSitemapJob(q, "https://example.com/", out, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(staticPaths)+3, n)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	xml := string(b)
	assert.True(t, strings.HasPrefix(xml, "<?xml"))
	assert.Contains(t, xml, "<loc>https://example.com/vehicles/transit-cargo</loc>")
	assert.Contains(t, xml, "<lastmod>2024-03-04</lastmod>")
	assert.Contains(t, xml, "<loc>https://example.com/brands/summit</loc>")
	assert.Contains(t, xml, "<loc>https://example.com/about</loc>")
}

func TestSitemapJob_QueryFailure(t *testing.T) {
	q := queryFunc(func(context.Context, string, string, map[string]any, any) error { return errors.New("down") })
	_, err := NewSitemapJob(q, "https://example.com", filepath.Join(t.TempDir(), "s.xml"), nil).Run(context.Background())
	assert.Error(t, err)
}
