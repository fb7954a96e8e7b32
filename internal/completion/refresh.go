package completion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// projectFetchLimit bounds concurrent per-organization project listings.
const projectFetchLimit = 4

// Lister is the part of the SDK client the refresher needs.
type Lister interface {
	ListOrganizations(ctx context.Context, page *hubstaff.Pagination) ([]hubstaff.Organization, error)
	ListProjects(ctx context.Context, orgID int64, page *hubstaff.Pagination) ([]hubstaff.Project, error)
}

// RefreshResult contains the outcome of a refresh operation.
type RefreshResult struct {
	OrganizationsCount int
	ProjectsCount      int
	OrganizationsErr   error
	ProjectsErr        error
}

// HasError returns true if any refresh operation failed.
func (r RefreshResult) HasError() bool {
	return r.OrganizationsErr != nil || r.ProjectsErr != nil
}

// Error returns a combined error if any operation failed.
func (r RefreshResult) Error() error {
	var errs []error
	if r.OrganizationsErr != nil {
		errs = append(errs, fmt.Errorf("organizations: %w", r.OrganizationsErr))
	}
	if r.ProjectsErr != nil {
		errs = append(errs, fmt.Errorf("projects: %w", r.ProjectsErr))
	}
	return errors.Join(errs...)
}

// Refresher fills the cache from the API.
type Refresher struct {
	store *Store
	api   Lister
}

// NewRefresher creates a new cache refresher.
func NewRefresher(store *Store, api Lister) *Refresher {
	return &Refresher{store: store, api: api}
}

// RefreshAll lists organizations, then the first page of projects of each
// organization. Projects of organizations whose listing failed keep their
// cached entries.
func (r *Refresher) RefreshAll(ctx context.Context) RefreshResult {
	var result RefreshResult

	orgs, err := r.api.ListOrganizations(ctx, nil)
	if err != nil {
		result.OrganizationsErr = err
		return result
	}
	if err := r.store.UpdateOrganizations(ConvertOrganizations(orgs)); err != nil {
		result.OrganizationsErr = err
		return result
	}
	result.OrganizationsCount = len(orgs)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(projectFetchLimit)
	for _, org := range orgs {
		g.Go(func() error {
			projects, err := r.api.ListProjects(gctx, org.ID, nil)
			if err != nil {
				return fmt.Errorf("organization %d: %w", org.ID, err)
			}
			if err := r.store.UpdateProjects(org.ID, ConvertProjects(org.ID, projects)); err != nil {
				return err
			}
			mu.Lock()
			result.ProjectsCount += len(projects)
			mu.Unlock()
			return nil
		})
	}
	result.ProjectsErr = g.Wait()

	return result
}

// ConvertOrganizations converts SDK organizations to cached organizations.
func ConvertOrganizations(orgs []hubstaff.Organization) []CachedOrganization {
	result := make([]CachedOrganization, len(orgs))
	for i, o := range orgs {
		result[i] = CachedOrganization{ID: o.ID, Name: o.Name}
	}
	return result
}

// ConvertProjects converts SDK projects listed under orgID to cached
// projects.
func ConvertProjects(orgID int64, projects []hubstaff.Project) []CachedProject {
	result := make([]CachedProject, len(projects))
	for i, p := range projects {
		result[i] = CachedProject{
			ID:             p.ID,
			Name:           p.Name,
			OrganizationID: orgID,
			Status:         p.Status,
		}
	}
	return result
}
