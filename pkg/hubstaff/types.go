package hubstaff

import (
	"bytes"
	"encoding/json"
	"time"
)

// Organization is a Hubstaff organization.
type Organization struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Project belongs to one organization.
type Project struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status,omitempty"`
	OrganizationID int64  `json:"organization_id"`
}

// Task belongs to one project.
type Task struct {
	ID        int64  `json:"id"`
	Summary   string `json:"summary"`
	ProjectID int64  `json:"project_id"`
	Status    string `json:"status,omitempty"`
}

// TimeEntry is a tracked interval. Duration is in seconds.
type TimeEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProjectID *int64    `json:"project_id,omitempty"`
	TaskID    *int64    `json:"task_id,omitempty"`
	StartsAt  time.Time `json:"starts_at"`
	StopsAt   time.Time `json:"stops_at"`
	Duration  int64     `json:"duration"`
}

// Activity is a recorded activity sample. Activity is a 0-100 score.
type Activity struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	RecordedAt time.Time `json:"recorded_at"`
	ProjectID  *int64    `json:"project_id,omitempty"`
	TaskID     *int64    `json:"task_id,omitempty"`
	UserID     int64     `json:"user_id"`
	Activity   int       `json:"activity"`
}

// TimesheetRow is one summarized reporting row. Date is YYYY-MM-DD and
// Duration is in seconds.
type TimesheetRow struct {
	Date      string `json:"date"`
	UserID    int64  `json:"user_id"`
	ProjectID *int64 `json:"project_id,omitempty"`
	TaskID    *int64 `json:"task_id,omitempty"`
	Duration  int64  `json:"duration"`
}

// Cursor is a pagination position. The API returns it as either a number
// or a string.
type Cursor string

// UnmarshalJSON accepts a string, a number or null.
func (c *Cursor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Cursor(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Cursor(n.String())
	return nil
}

// Pagination selects a page of a list endpoint.
type Pagination struct {
	PageStartID Cursor
	PageLimit   int
}

func (p *Pagination) apply(q Query) Query {
	if q == nil {
		q = Query{}
	}
	if p == nil {
		return q
	}
	if p.PageStartID != "" {
		q["page_start_id"] = string(p.PageStartID)
	}
	if p.PageLimit > 0 {
		q["page_limit"] = p.PageLimit
	}
	return q
}

// PageInfo is the pagination block of a list response.
type PageInfo struct {
	NextPageStartID Cursor `json:"next_page_start_id,omitempty"`
}

// nextPage returns the Pagination for the following page, or nil on the
// last page.
func nextPage(info *PageInfo, limit int) *Pagination {
	if info == nil || info.NextPageStartID == "" {
		return nil
	}
	return &Pagination{PageStartID: info.NextPageStartID, PageLimit: limit}
}

// OrganizationList is one page of organizations.
type OrganizationList struct {
	Organizations []Organization `json:"organizations"`
	Pagination    *PageInfo      `json:"pagination,omitempty"`
}

// Next returns the Pagination for the following page, or nil on the last page.
func (l *OrganizationList) Next(limit int) *Pagination { return nextPage(l.Pagination, limit) }

// ProjectList is one page of projects.
type ProjectList struct {
	Projects   []Project `json:"projects"`
	Pagination *PageInfo `json:"pagination,omitempty"`
}

// Next returns the Pagination for the following page, or nil on the last page.
func (l *ProjectList) Next(limit int) *Pagination { return nextPage(l.Pagination, limit) }

// TaskList is one page of tasks.
type TaskList struct {
	Tasks      []Task    `json:"tasks"`
	Pagination *PageInfo `json:"pagination,omitempty"`
}

// Next returns the Pagination for the following page, or nil on the last page.
func (l *TaskList) Next(limit int) *Pagination { return nextPage(l.Pagination, limit) }

// TimeEntryList is one page of time entries.
type TimeEntryList struct {
	TimeEntries []TimeEntry `json:"time_entries"`
	Pagination  *PageInfo   `json:"pagination,omitempty"`
}

// Next returns the Pagination for the following page, or nil on the last page.
func (l *TimeEntryList) Next(limit int) *Pagination { return nextPage(l.Pagination, limit) }

// ActivityList is one page of activities.
type ActivityList struct {
	Activities []Activity `json:"activities"`
	Pagination *PageInfo  `json:"pagination,omitempty"`
}

// Next returns the Pagination for the following page, or nil on the last page.
func (l *ActivityList) Next(limit int) *Pagination { return nextPage(l.Pagination, limit) }

// TimesheetList is one page of timesheet rows.
type TimesheetList struct {
	Timesheets []TimesheetRow `json:"timesheets"`
	Pagination *PageInfo      `json:"pagination,omitempty"`
}

// Next returns the Pagination for the following page, or nil on the last page.
func (l *TimesheetList) Next(limit int) *Pagination { return nextPage(l.Pagination, limit) }

// TimeRangeParams filters time entries and activities.
type TimeRangeParams struct {
	Start      time.Time
	Stop       time.Time
	UserIDs    []int64
	ProjectIDs []int64
	TaskIDs    []int64
	Pagination *Pagination
}

func (p TimeRangeParams) query() Query {
	q := Query{
		"user_ids":    p.UserIDs,
		"project_ids": p.ProjectIDs,
		"task_ids":    p.TaskIDs,
	}
	if !p.Start.IsZero() {
		q["start_time"] = p.Start
	}
	if !p.Stop.IsZero() {
		q["stop_time"] = p.Stop
	}
	return p.Pagination.apply(q)
}

// TimesheetFilters filters the timesheets report. Start and Stop are
// dates in YYYY-MM-DD form.
type TimesheetFilters struct {
	Start      string
	Stop       string
	UserIDs    []int64
	ProjectIDs []int64
	TaskIDs    []int64
	TeamIDs    []int64
	Pagination *Pagination
}

func (f TimesheetFilters) query() Query {
	q := Query{
		"user_ids":    f.UserIDs,
		"project_ids": f.ProjectIDs,
		"task_ids":    f.TaskIDs,
		"team_ids":    f.TeamIDs,
	}
	if f.Start != "" {
		q["start_date"] = f.Start
	}
	if f.Stop != "" {
		q["end_date"] = f.Stop
	}
	return f.Pagination.apply(q)
}
