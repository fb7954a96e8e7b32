// Package completion provides tab completion support for the hubstaff CLI.
// It keeps a file-based cache of organizations and projects so shell
// completions never wait on the API.
package completion

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

type CachedOrganization struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CachedProject struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	OrganizationID int64  `json:"organization_id"`
	Status         string `json:"status,omitempty"`
}

// Cache is the on-disk document. Each section carries its own timestamp so
// a refresh of one does not hide staleness of the other.
type Cache struct {
	Organizations          []CachedOrganization `json:"organizations,omitempty"`
	Projects               []CachedProject      `json:"projects,omitempty"`
	OrganizationsUpdatedAt time.Time            `json:"organizations_updated_at,omitempty"`
	ProjectsUpdatedAt      time.Time            `json:"projects_updated_at,omitempty"`
	Version                int                  `json:"version"`
}

const (
	CacheVersion  = 1
	DefaultMaxAge = time.Hour
	CacheFileName = "completion.json"
)

// Store reads and writes the cache file. Writers serialize on an flock so a
// background refresh and a list command can both record results.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore uses dir, or DefaultCacheDir when dir is empty.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	return &Store{dir: dir}
}

// DefaultCacheDir is $HUBSTAFF_CACHE_DIR, else $XDG_CACHE_HOME/hubstaff,
// else ~/.cache/hubstaff.
func DefaultCacheDir() string {
	if dir := os.Getenv("HUBSTAFF_CACHE_DIR"); dir != "" {
		return dir
	}
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "hubstaff")
}

func (s *Store) Dir() string  { return s.dir }
func (s *Store) Path() string { return filepath.Join(s.dir, CacheFileName) }

func emptyCache() *Cache { return &Cache{Version: CacheVersion} }

// Load never fails on a missing or unreadable document; completion simply
// has nothing to offer until the next refresh rewrites it.
func (s *Store) Load() (*Cache, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return emptyCache(), nil
	}
	if err != nil {
		return nil, err
	}
	cache := emptyCache()
	if json.Unmarshal(data, cache) != nil {
		return emptyCache(), nil
	}
	return cache, nil
}

func (s *Store) update(fn func(*Cache)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(s.dir, "completion.lock"))
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	cache, err := s.Load()
	if err != nil {
		cache = emptyCache()
	}
	fn(cache)
	cache.Version = CacheVersion

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path())
}

func (s *Store) UpdateOrganizations(orgs []CachedOrganization) error {
	return s.update(func(c *Cache) {
		c.Organizations = orgs
		c.OrganizationsUpdatedAt = time.Now()
	})
}

// UpdateProjects replaces the projects of orgID and keeps those of every
// other organization.
func (s *Store) UpdateProjects(orgID int64, projects []CachedProject) error {
	return s.update(func(c *Cache) {
		c.Projects = slices.DeleteFunc(c.Projects, func(p CachedProject) bool {
			return p.OrganizationID == orgID
		})
		c.Projects = append(c.Projects, projects...)
		c.ProjectsUpdatedAt = time.Now()
	})
}

// refreshedAt is the older of the two section timestamps, or zero when
// either section was never written.
func (c *Cache) refreshedAt() time.Time {
	a, b := c.OrganizationsUpdatedAt, c.ProjectsUpdatedAt
	if a.IsZero() || b.IsZero() {
		return time.Time{}
	}
	if b.Before(a) {
		return b
	}
	return a
}

func (s *Store) IsStale(maxAge time.Duration) bool {
	cache, err := s.Load()
	if err != nil {
		return true
	}
	at := cache.refreshedAt()
	return at.IsZero() || time.Since(at) > maxAge
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Organizations() []CachedOrganization {
	cache, err := s.Load()
	if err != nil {
		return nil
	}
	return cache.Organizations
}

// Projects returns cached projects, restricted to orgID unless it is zero.
func (s *Store) Projects(orgID int64) []CachedProject {
	cache, err := s.Load()
	if err != nil {
		return nil
	}
	if orgID == 0 {
		return cache.Projects
	}
	var out []CachedProject
	for _, p := range cache.Projects {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out
}
