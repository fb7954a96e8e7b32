package hubstaff

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceClient(t *testing.T, reply string) (*Client, *fakeAPI) {
	t.Helper()
	f := newFakeAPI(t)
	f.OnAPI(func(w http.ResponseWriter, r *http.Request, n int) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	})
	cfg := f.config()
	cfg.TokenSet = &TokenSet{AccessToken: "A", RefreshToken: "R", ExpiresAt: 9999}
	return newTestClient(t, cfg, newFakeClock(1000), &sleepRecorder{}), f
}

func TestOrganizationsService(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		c, f := newServiceClient(t, `{"organization":{"id":7,"name":"Acme"}}`)
		org, err := c.CreateOrganization(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, &Organization{ID: 7, Name: "Acme"}, org)

		req, body := f.LastRequest()
		assert.Equal(t, "POST /v2/organizations", req.Method+" "+req.URL.Path)
		assert.JSONEq(t, `{"name":"Acme"}`, string(body))
	})

	t.Run("list with pagination", func(t *testing.T) {
		c, f := newServiceClient(t, `{"organizations":[{"id":1,"name":"A"}],"pagination":{"next_page_start_id":42}}`)
		list, err := c.Organizations.List(ctx, &Pagination{PageStartID: "5", PageLimit: 10})
		require.NoError(t, err)

		req, _ := f.LastRequest()
		assert.Equal(t, "/v2/organizations", req.URL.Path)
		assert.Equal(t, "page_limit=10&page_start_id=5", req.URL.RawQuery)
		assert.Equal(t, []Organization{{ID: 1, Name: "A"}}, list.Organizations)
		assert.Equal(t, &Pagination{PageStartID: "42", PageLimit: 10}, list.Next(10))
	})

	t.Run("last page", func(t *testing.T) {
		c, f := newServiceClient(t, `{"organizations":[]}`)
		list, err := c.Organizations.List(ctx, nil)
		require.NoError(t, err)
		req, _ := f.LastRequest()
		assert.Empty(t, req.URL.RawQuery)
		assert.Nil(t, list.Next(10))
	})

	t.Run("update", func(t *testing.T) {
		c, f := newServiceClient(t, `{"organization":{"id":7,"name":"Renamed"}}`)
		out, err := c.Organizations.Update(ctx, 7, map[string]any{"name": "Renamed"}, Query{"notify": true})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": float64(7), "name": "Renamed"}, out["organization"])

		req, body := f.LastRequest()
		assert.Equal(t, "PUT /v2/organizations/7", req.Method+" "+req.URL.Path)
		assert.Equal(t, "notify=true", req.URL.RawQuery)
		assert.JSONEq(t, `{"name":"Renamed"}`, string(body))
	})
}

func TestProjectsService(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		c, f := newServiceClient(t, `{"project":{"id":3,"name":"Site","organization_id":7,"status":"active"}}`)
		p, err := c.CreateProject(ctx, CreateProjectInput{OrganizationID: 7, Name: "Site"})
		require.NoError(t, err)
		assert.Equal(t, &Project{ID: 3, Name: "Site", OrganizationID: 7, Status: "active"}, p)

		req, body := f.LastRequest()
		assert.Equal(t, "POST /v2/organizations/7/projects", req.Method+" "+req.URL.Path)
		assert.JSONEq(t, `{"name":"Site"}`, string(body))
	})

	t.Run("list", func(t *testing.T) {
		c, f := newServiceClient(t, `{"projects":[{"id":3,"name":"Site","organization_id":7}]}`)
		projects, err := c.ListProjects(ctx, 7, &Pagination{PageLimit: 50})
		require.NoError(t, err)
		assert.Len(t, projects, 1)

		req, _ := f.LastRequest()
		assert.Equal(t, "/v2/organizations/7/projects", req.URL.Path)
		assert.Equal(t, "page_limit=50", req.URL.RawQuery)
	})

	t.Run("create raw", func(t *testing.T) {
		c, f := newServiceClient(t, `{"project":{"id":4}}`)
		_, err := c.Projects.CreateRaw(ctx, 7, map[string]any{"name": "Raw", "billable": true}, nil)
		require.NoError(t, err)

		req, body := f.LastRequest()
		assert.Equal(t, "/v2/organizations/7/projects", req.URL.Path)
		assert.JSONEq(t, `{"name":"Raw","billable":true}`, string(body))
	})

	t.Run("update", func(t *testing.T) {
		c, f := newServiceClient(t, `{"project":{"id":3}}`)
		_, err := c.Projects.Update(ctx, 3, map[string]any{"status": "archived"}, nil)
		require.NoError(t, err)

		req, _ := f.LastRequest()
		assert.Equal(t, "PUT /v2/projects/3", req.Method+" "+req.URL.Path)
	})
}

func TestTasksService(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		c, f := newServiceClient(t, `{"task":{"id":9,"summary":"Write docs","project_id":3}}`)
		task, err := c.CreateTask(ctx, CreateTaskInput{ProjectID: 3, Summary: "Write docs"})
		require.NoError(t, err)
		assert.Equal(t, &Task{ID: 9, Summary: "Write docs", ProjectID: 3}, task)

		req, body := f.LastRequest()
		assert.Equal(t, "POST /v2/projects/3/tasks", req.Method+" "+req.URL.Path)
		assert.JSONEq(t, `{"summary":"Write docs"}`, string(body))
	})

	t.Run("list", func(t *testing.T) {
		c, f := newServiceClient(t, `{"tasks":[],"pagination":{"next_page_start_id":"abc"}}`)
		list, err := c.Tasks.List(ctx, 3, nil)
		require.NoError(t, err)
		req, _ := f.LastRequest()
		assert.Equal(t, "/v2/projects/3/tasks", req.URL.Path)
		assert.Equal(t, Cursor("abc"), list.Pagination.NextPageStartID)
	})

	t.Run("update with query", func(t *testing.T) {
		c, f := newServiceClient(t, `{}`)
		_, err := c.Tasks.Update(ctx, 9, map[string]any{"summary": "Done"}, Query{"assignee_ids": []int{1, 2}})
		require.NoError(t, err)
		req, _ := f.LastRequest()
		assert.Equal(t, "/v2/tasks/9", req.URL.Path)
		assert.Equal(t, "assignee_ids=1,2", req.URL.RawQuery)
	})
}

func TestTimeRangeServices(t *testing.T) {
	ctx := context.Background()
	params := TimeRangeParams{
		Start:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Stop:       time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		UserIDs:    []int64{1, 2},
		Pagination: &Pagination{PageLimit: 100},
	}

	t.Run("time entries", func(t *testing.T) {
		c, f := newServiceClient(t, `{"time_entries":[{"id":1,"user_id":2,"project_id":3,"starts_at":"2024-05-01T09:00:00Z","stops_at":"2024-05-01T10:00:00Z","duration":3600}]}`)
		entries, err := c.ListTimeEntries(ctx, params)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(3600), entries[0].Duration)
		require.NotNil(t, entries[0].ProjectID)
		assert.Equal(t, int64(3), *entries[0].ProjectID)
		assert.Nil(t, entries[0].TaskID)

		req, _ := f.LastRequest()
		assert.Equal(t, "/v2/time_entries", req.URL.Path)
		q := req.URL.Query()
		assert.Equal(t, "2024-05-01T00:00:00Z", q.Get("start_time"))
		assert.Equal(t, "2024-05-02T00:00:00Z", q.Get("stop_time"))
		assert.Equal(t, "1,2", q.Get("user_ids"))
		assert.Equal(t, "100", q.Get("page_limit"))
		assert.False(t, q.Has("project_ids"))
	})

	t.Run("activities", func(t *testing.T) {
		c, f := newServiceClient(t, `{"activities":[{"id":5,"type":"keyboard","recorded_at":"2024-05-01T09:10:00Z","user_id":2,"activity":73}]}`)
		acts, err := c.ListActivities(ctx, params)
		require.NoError(t, err)
		require.Len(t, acts, 1)
		assert.Equal(t, 73, acts[0].Activity)

		req, _ := f.LastRequest()
		assert.Equal(t, "/v2/activities", req.URL.Path)
	})
}

func TestTimesheetsServiceMapsDateRange(t *testing.T) {
	c, f := newServiceClient(t, `{"timesheets":[{"date":"2024-05-01","user_id":2,"duration":7200}]}`)
	rows, err := c.ListTimesheets(context.Background(), TimesheetFilters{
		Start:   "2024-05-01",
		Stop:    "2024-05-07",
		TeamIDs: []int64{4, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, []TimesheetRow{{Date: "2024-05-01", UserID: 2, Duration: 7200}}, rows)

	req, _ := f.LastRequest()
	assert.Equal(t, "/v2/timesheets", req.URL.Path)
	assert.Equal(t, "end_date=2024-05-07&start_date=2024-05-01&team_ids=4,5", req.URL.RawQuery)
}

func TestServicesRepeatArrayFormat(t *testing.T) {
	f := newFakeAPI(t)
	cfg := f.config()
	cfg.ArrayFormat = ArrayRepeat
	cfg.TokenSet = &TokenSet{AccessToken: "A", RefreshToken: "R", ExpiresAt: 9999}
	c := newTestClient(t, cfg, newFakeClock(1000), &sleepRecorder{})

	_, err := c.Timesheets.List(context.Background(), TimesheetFilters{UserIDs: []int64{1, 2}})
	require.NoError(t, err)
	req, _ := f.LastRequest()
	assert.Equal(t, "user_ids[]=1&user_ids[]=2", req.URL.RawQuery)
}

func TestServiceRejectsUndecodableBody(t *testing.T) {
	c, _ := newServiceClient(t, `plain text`)
	_, err := c.Organizations.List(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsAPI(err))
}

func TestCursorAcceptsStringNumberOrNull(t *testing.T) {
	var page OrganizationList
	require.NoError(t, json.Unmarshal([]byte(`{"pagination":{"next_page_start_id":42}}`), &page))
	assert.Equal(t, Cursor("42"), page.Pagination.NextPageStartID)
	assert.Equal(t, &Pagination{PageStartID: "42", PageLimit: 5}, page.Next(5))

	require.NoError(t, json.Unmarshal([]byte(`{"pagination":{"next_page_start_id":"abc"}}`), &page))
	assert.Equal(t, Cursor("abc"), page.Pagination.NextPageStartID)

	require.NoError(t, json.Unmarshal([]byte(`{"pagination":{"next_page_start_id":null}}`), &page))
	assert.Nil(t, page.Next(5))
}
