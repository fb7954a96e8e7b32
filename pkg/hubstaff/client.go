// Package hubstaff is a client for the Hubstaff v2 REST API.
//
// Access tokens are obtained from a personal access token (PAT) through
// refresh-token rotation. The client refreshes proactively shortly before
// expiry and reactively on 401, sharing a single in-flight refresh across
// concurrent callers. Every rotation is reported through
// Config.OnTokenUpdate so the caller can persist it.
//
//	client, err := hubstaff.NewClient(hubstaff.Config{
//		PATRefreshToken: os.Getenv("HUBSTAFF_PAT_REFRESH_TOKEN"),
//		OnTokenUpdate:   save,
//	})
//	orgs, err := client.ListOrganizations(ctx, nil)
package hubstaff

import (
	"context"
	"net/url"
	"strings"
)

// Client composes the resource services over one HTTPClient.
type Client struct {
	http *HTTPClient

	Organizations *OrganizationsService
	Projects      *ProjectsService
	Tasks         *TasksService
	TimeEntries   *TimeEntriesService
	Activities    *ActivitiesService
	Timesheets    *TimesheetsService
}

// NewClient validates cfg, applies defaults and returns a ready client.
// No network call is made until the first request.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	if o.httpClientSet && o.httpClient == nil {
		return nil, ErrConfig("http client must not be nil")
	}

	h := newHTTPClient(cfg, o)
	return &Client{
		http:          h,
		Organizations: &OrganizationsService{http: h},
		Projects:      &ProjectsService{http: h},
		Tasks:         &TasksService{http: h},
		TimeEntries:   &TimeEntriesService{http: h},
		Activities:    &ActivitiesService{http: h},
		Timesheets:    &TimesheetsService{http: h},
	}, nil
}

func normalizeConfig(cfg Config) (Config, error) {
	if strings.TrimSpace(cfg.PATRefreshToken) == "" {
		return cfg, ErrConfig("PAT refresh token is required")
	}
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = DefaultAuthBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	for _, base := range []*string{&cfg.AuthBaseURL, &cfg.APIBaseURL} {
		u, err := url.Parse(*base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return cfg, ErrConfig("invalid base URL: " + *base)
		}
		*base = strings.TrimRight(*base, "/")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	cfg.APIVersion = strings.Trim(cfg.APIVersion, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	switch cfg.ArrayFormat {
	case "":
		cfg.ArrayFormat = ArrayComma
	case ArrayComma, ArrayRepeat:
	default:
		return cfg, ErrConfig("unknown array format: " + string(cfg.ArrayFormat))
	}
	return cfg, nil
}

// HTTP returns the underlying authenticated transport.
func (c *Client) HTTP() *HTTPClient {
	return c.http
}

// CreateOrganization creates an organization named name.
func (c *Client) CreateOrganization(ctx context.Context, name string) (*Organization, error) {
	return c.Organizations.Create(ctx, CreateOrganizationInput{Name: name})
}

// ListOrganizations returns one page of the organizations visible to the token.
func (c *Client) ListOrganizations(ctx context.Context, page *Pagination) ([]Organization, error) {
	l, err := c.Organizations.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return l.Organizations, nil
}

// CreateProject creates a project in in.OrganizationID.
func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	return c.Projects.Create(ctx, in)
}

// ListProjects returns one page of the projects in orgID.
func (c *Client) ListProjects(ctx context.Context, orgID int64, page *Pagination) ([]Project, error) {
	l, err := c.Projects.List(ctx, orgID, page)
	if err != nil {
		return nil, err
	}
	return l.Projects, nil
}

// CreateTask creates a task in in.ProjectID.
func (c *Client) CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error) {
	return c.Tasks.Create(ctx, in)
}

// ListTasks returns one page of the tasks in projectID.
func (c *Client) ListTasks(ctx context.Context, projectID int64, page *Pagination) ([]Task, error) {
	l, err := c.Tasks.List(ctx, projectID, page)
	if err != nil {
		return nil, err
	}
	return l.Tasks, nil
}

// ListTimeEntries returns one page of time entries matching params.
func (c *Client) ListTimeEntries(ctx context.Context, params TimeRangeParams) ([]TimeEntry, error) {
	l, err := c.TimeEntries.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return l.TimeEntries, nil
}

// ListActivities returns one page of activities matching params.
func (c *Client) ListActivities(ctx context.Context, params TimeRangeParams) ([]Activity, error) {
	l, err := c.Activities.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return l.Activities, nil
}

// ListTimesheets returns one page of the timesheets report.
func (c *Client) ListTimesheets(ctx context.Context, filters TimesheetFilters) ([]TimesheetRow, error) {
	l, err := c.Timesheets.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return l.Timesheets, nil
}
