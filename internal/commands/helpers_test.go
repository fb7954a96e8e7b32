package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

func requireUsage(t *testing.T, err error) *output.Error {
	t.Helper()
	var e *output.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, output.CodeUsage, e.Code)
	return e
}

func TestParseID(t *testing.T) {
	id, err := parseID("project", " 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := parseID("project", bad)
		e := requireUsage(t, err)
		assert.Equal(t, "Invalid project ID", e.Message, "input %q", bad)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs("user", []string{"1,2", "3", " 4 , ,5"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)

	ids, err = parseIDs("user", nil)
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDs("user", []string{"1,x"})
	requireUsage(t, err)
}

func TestParseQueryPairs(t *testing.T) {
	q, err := parseQueryPairs([]string{"status=active", "id=1", "id=2", "id=3", "empty="})
	require.NoError(t, err)
	assert.Equal(t, hubstaff.Query{
		"status": "active",
		"id":     []string{"1", "2", "3"},
		"empty":  "",
	}, q)

	_, err = parseQueryPairs([]string{"novalue"})
	requireUsage(t, err)
	_, err = parseQueryPairs([]string{"=x"})
	requireUsage(t, err)
}

func TestParseJSONObject(t *testing.T) {
	body, err := parseJSONObject(`{"name":"Acme","billable":true}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Acme", "billable": true}, body)

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"summary":"From file"}`), 0600))
	body, err = parseJSONObject("@" + path)
	require.NoError(t, err)
	assert.Equal(t, "From file", body["summary"])

	for _, bad := range []string{`[1,2]`, `not json`, `"str"`} {
		_, err := parseJSONObject(bad)
		e := requireUsage(t, err)
		assert.Equal(t, "Invalid JSON data", e.Message)
	}

	_, err = parseJSONObject("@" + filepath.Join(t.TempDir(), "missing.json"))
	requireUsage(t, err)
}

func TestTimeRange(t *testing.T) {
	now := time.Date(2024, 1, 17, 15, 0, 0, 0, time.UTC)

	start, stop, err := timeRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), start)
	assert.Equal(t, now, stop)

	start, stop, err = timeRange("yesterday", "today", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), stop)

	_, _, err = timeRange("today", "yesterday", now)
	e := requireUsage(t, err)
	assert.Equal(t, "--start must be before --stop", e.Message)

	_, _, err = timeRange("now", "now", now)
	requireUsage(t, err)

	_, _, err = timeRange("someday", "", now)
	e = requireUsage(t, err)
	assert.Contains(t, e.Message, "--start")
}

func TestPagination(t *testing.T) {
	var p pageFlags
	assert.Nil(t, p.pagination())

	p = pageFlags{startID: "abc", limit: 50}
	assert.Equal(t, &hubstaff.Pagination{PageStartID: "abc", PageLimit: 50}, p.pagination())
}

func TestNextPageBreadcrumb(t *testing.T) {
	assert.Nil(t, nextPageBreadcrumb(nil, "hubstaff organizations list"))

	crumbs := nextPageBreadcrumb(&hubstaff.Pagination{PageStartID: "99"}, "hubstaff organizations list")
	require.Len(t, crumbs, 1)
	assert.Equal(t, "next", crumbs[0].Action)
	assert.Equal(t, "hubstaff organizations list --page-start-id 99", crumbs[0].Cmd)
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "0 tasks", pluralize(0, "task", "tasks"))
	assert.Equal(t, "1 task", pluralize(1, "task", "tasks"))
	assert.Equal(t, "2 time entries", pluralize(2, "time entry", "time entries"))
}

func TestUpdateBody(t *testing.T) {
	body, q, err := updateBody("New name", "name", `{"status":"archived"}`, []string{"notify=false"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "New name", "status": "archived"}, body)
	assert.Equal(t, hubstaff.Query{"notify": "false"}, q)

	body, _, err = updateBody("flag wins", "summary", `{"summary":"from data"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "flag wins", body["summary"])

	_, _, err = updateBody("", "name", "", nil)
	e := requireUsage(t, err)
	assert.Equal(t, "Nothing to update", e.Message)
	assert.Equal(t, "Use --name or --data", e.Hint)
}

func TestFilterFlagsCmdLine(t *testing.T) {
	f := filterFlags{
		start:    "-7d",
		users:    []string{"1", "2"},
		projects: []string{"3"},
	}
	assert.Equal(t, `hubstaff time-entries list --start "-7d" --user 1,2 --project 3`,
		f.cmdLine("hubstaff time-entries list"))
}

func TestFilterFlagsTimeRangeParams(t *testing.T) {
	now := time.Date(2024, 1, 17, 15, 0, 0, 0, time.UTC)
	f := filterFlags{
		start:    "2024-01-10",
		tasks:    []string{"5,6"},
		projects: []string{"3"},
		page:     pageFlags{limit: 10},
	}
	params, err := f.timeRangeParams(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), params.Start)
	assert.Equal(t, now, params.Stop)
	assert.Equal(t, []int64{5, 6}, params.TaskIDs)
	assert.Equal(t, []int64{3}, params.ProjectIDs)
	assert.Nil(t, params.UserIDs)
	assert.Equal(t, 10, params.Pagination.PageLimit)
}

func TestSumDuration(t *testing.T) {
	entries := []hubstaff.TimeEntry{{Duration: 3600}, {Duration: 900}}
	got := sumDuration(entries, func(e hubstaff.TimeEntry) int64 { return e.Duration })
	assert.Equal(t, 75*time.Minute, got)
}

func TestAPISummary(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want string
	}{
		{"list", `{"projects":[{"id":1},{"id":2}]}`, "2 projects"},
		{"list with pagination", `{"time_entries":[{"id":1}],"pagination":{"next_page_start_id":2}}`, "1 time entries"},
		{"object", `{"user":{"id":7}}`, "GET /v2/users/me"},
		{"array", `[1,2,3]`, "GET /v2/users/me"},
		{"string", `"ok"`, "GET /v2/users/me"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apiSummary("GET", "/v2/users/me", json.RawMessage(tt.resp)))
		})
	}
}

func TestAPIBreadcrumbs(t *testing.T) {
	assert.Nil(t, apiBreadcrumbs(json.RawMessage(`{"projects":[]}`)))
	assert.Nil(t, apiBreadcrumbs(json.RawMessage(`[1]`)))

	crumbs := apiBreadcrumbs(json.RawMessage(`{"projects":[],"pagination":{"next_page_start_id":"abc"}}`))
	require.Len(t, crumbs, 1)
	assert.Equal(t, "--query page_start_id=abc", crumbs[0].Cmd)
}
