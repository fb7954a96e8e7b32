package completion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.UpdateOrganizations([]CachedOrganization{{ID: 1, Name: "Acme"}}))
	require.NoError(t, store.UpdateProjects(1, []CachedProject{{ID: 10, Name: "Website", OrganizationID: 1}}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []CachedOrganization{{ID: 1, Name: "Acme"}}, loaded.Organizations)
	assert.Equal(t, []CachedProject{{ID: 10, Name: "Website", OrganizationID: 1}}, loaded.Projects)
	assert.Equal(t, CacheVersion, loaded.Version)
	assert.False(t, loaded.OrganizationsUpdatedAt.IsZero())
	assert.False(t, loaded.ProjectsUpdatedAt.IsZero())

	assert.NoFileExists(t, store.Path()+".tmp")
}

func TestStoreLoadMissingOrCorrupt(t *testing.T) {
	store := NewStore(t.TempDir())

	cache, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, &Cache{Version: CacheVersion}, cache)

	require.NoError(t, os.WriteFile(store.Path(), []byte("not valid json{"), 0600))
	cache, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, cache.Projects)

	// A corrupt document is replaced on the next write.
	require.NoError(t, store.UpdateOrganizations([]CachedOrganization{{ID: 3}}))
	assert.Len(t, store.Organizations(), 1)
}

func TestStoreUpdateProjectsIsPerOrganization(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.UpdateProjects(1, []CachedProject{{ID: 10, OrganizationID: 1}}))
	require.NoError(t, store.UpdateProjects(2, []CachedProject{{ID: 20, OrganizationID: 2}}))
	require.NoError(t, store.UpdateProjects(1, []CachedProject{{ID: 11, OrganizationID: 1}}))

	assert.Len(t, store.Projects(0), 2)
	assert.Equal(t, []CachedProject{{ID: 11, OrganizationID: 1}}, store.Projects(1))
	assert.Equal(t, []CachedProject{{ID: 20, OrganizationID: 2}}, store.Projects(2))
	assert.Empty(t, store.Projects(3))
}

func TestStoreConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	a, b := NewStore(dir), NewStore(dir)

	var wg sync.WaitGroup
	for i := int64(1); i <= 8; i++ {
		store := a
		if i%2 == 0 {
			store = b
		}
		wg.Add(1)
		go func(orgID int64) {
			defer wg.Done()
			assert.NoError(t, store.UpdateProjects(orgID, []CachedProject{{ID: orgID * 10, OrganizationID: orgID}}))
		}(i)
	}
	wg.Wait()

	assert.Len(t, a.Projects(0), 8)
}

func TestStoreIsStale(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.True(t, store.IsStale(time.Hour), "empty cache")

	require.NoError(t, store.UpdateOrganizations([]CachedOrganization{{ID: 1}}))
	assert.True(t, store.IsStale(time.Hour), "projects never written")

	require.NoError(t, store.UpdateProjects(1, nil))
	assert.False(t, store.IsStale(time.Hour))
	assert.True(t, store.IsStale(-time.Second))
}

func TestCacheRefreshedAt(t *testing.T) {
	now := time.Now()
	hourAgo := now.Add(-time.Hour)

	assert.Equal(t, hourAgo, (&Cache{OrganizationsUpdatedAt: now, ProjectsUpdatedAt: hourAgo}).refreshedAt())
	assert.Equal(t, hourAgo, (&Cache{OrganizationsUpdatedAt: hourAgo, ProjectsUpdatedAt: now}).refreshedAt())
	assert.True(t, (&Cache{ProjectsUpdatedAt: now}).refreshedAt().IsZero())
}

func TestStoreClear(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.UpdateOrganizations([]CachedOrganization{{ID: 1}}))

	require.NoError(t, store.Clear())
	assert.NoFileExists(t, store.Path())
	assert.NoError(t, store.Clear(), "clearing twice")
}

func TestStoreDirs(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	assert.Equal(t, dir, store.Dir())
	assert.Equal(t, filepath.Join(dir, CacheFileName), store.Path())

	t.Setenv("HUBSTAFF_CACHE_DIR", "")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	assert.Equal(t, filepath.Join("/tmp/xdg-cache", "hubstaff"), NewStore("").Dir())

	t.Setenv("HUBSTAFF_CACHE_DIR", "/tmp/explicit")
	assert.Equal(t, "/tmp/explicit", NewStore("").Dir())
}

func TestCacheDocumentKeys(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.UpdateProjects(5, []CachedProject{{ID: 50, Name: "Ops", OrganizationID: 5, Status: "archived"}}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var doc struct {
		Projects  []map[string]any `json:"projects"`
		UpdatedAt string           `json:"projects_updated_at"`
		Version   int              `json:"version"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, float64(5), doc.Projects[0]["organization_id"])
	assert.Equal(t, "archived", doc.Projects[0]["status"])
	assert.NotEmpty(t, doc.UpdatedAt)
	assert.Equal(t, CacheVersion, doc.Version)
}
