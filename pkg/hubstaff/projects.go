package hubstaff

import "context"

// CreateProjectInput is the minimal body for creating a project.
type CreateProjectInput struct {
	OrganizationID int64  `json:"organization_id"`
	Name           string `json:"name"`
}

// ProjectsService wraps the project endpoints. Projects are created and
// listed under their organization.
type ProjectsService struct {
	http *HTTPClient
}

// Create creates a project in in.OrganizationID.
func (s *ProjectsService) Create(ctx context.Context, in CreateProjectInput) (*Project, error) {
	path := s.http.V("/organizations/" + id(in.OrganizationID) + "/projects")
	raw, err := s.http.Post(ctx, path, map[string]any{"name": in.Name})
	if err != nil {
		return nil, err
	}
	var out struct {
		Project Project `json:"project"`
	}
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

// List returns one page of the projects in orgID.
func (s *ProjectsService) List(ctx context.Context, orgID int64, page *Pagination) (*ProjectList, error) {
	raw, err := s.http.Get(ctx, s.http.V("/organizations/"+id(orgID)+"/projects"), page.apply(nil))
	if err != nil {
		return nil, err
	}
	var out ProjectList
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRaw posts an arbitrary project body to orgID.
func (s *ProjectsService) CreateRaw(ctx context.Context, orgID int64, body map[string]any, query Query) (map[string]any, error) {
	path := s.http.V("/organizations/"+id(orgID)+"/projects") + s.http.BuildQuery(query)
	return rawCall(ctx, s.http.Post, path, body)
}

// Update applies body to projectID and returns the decoded response.
func (s *ProjectsService) Update(ctx context.Context, projectID int64, body map[string]any, query Query) (map[string]any, error) {
	return rawCall(ctx, s.http.Put, s.http.V("/projects/"+id(projectID))+s.http.BuildQuery(query), body)
}
