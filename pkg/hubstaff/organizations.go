package hubstaff

import "context"

// CreateOrganizationInput is the minimal body for creating an organization.
type CreateOrganizationInput struct {
	Name string `json:"name"`
}

// OrganizationsService wraps the /organizations endpoints.
type OrganizationsService struct {
	http *HTTPClient
}

// Create creates an organization and returns it.
func (s *OrganizationsService) Create(ctx context.Context, in CreateOrganizationInput) (*Organization, error) {
	raw, err := s.http.Post(ctx, s.http.V("/organizations"), in)
	if err != nil {
		return nil, err
	}
	var out struct {
		Organization Organization `json:"organization"`
	}
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out.Organization, nil
}

// List returns one page of organizations.
func (s *OrganizationsService) List(ctx context.Context, page *Pagination) (*OrganizationList, error) {
	raw, err := s.http.Get(ctx, s.http.V("/organizations"), page.apply(nil))
	if err != nil {
		return nil, err
	}
	var out OrganizationList
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRaw posts an arbitrary body and returns the response untyped.
func (s *OrganizationsService) CreateRaw(ctx context.Context, body map[string]any, query Query) (map[string]any, error) {
	return rawCall(ctx, s.http.Post, s.http.V("/organizations")+s.http.BuildQuery(query), body)
}

// Update applies body to organization orgID and returns the response untyped.
func (s *OrganizationsService) Update(ctx context.Context, orgID int64, body map[string]any, query Query) (map[string]any, error) {
	return rawCall(ctx, s.http.Put, s.http.V("/organizations/"+id(orgID))+s.http.BuildQuery(query), body)
}
