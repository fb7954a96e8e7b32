package hubstaff

import "context"

// TimeEntriesService lists tracked time.
type TimeEntriesService struct {
	http *HTTPClient
}

// List returns one page of time entries.
func (s *TimeEntriesService) List(ctx context.Context, params TimeRangeParams) (*TimeEntryList, error) {
	raw, err := s.http.Get(ctx, s.http.V("/time_entries"), params.query())
	if err != nil {
		return nil, err
	}
	var out TimeEntryList
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActivitiesService lists activity samples.
type ActivitiesService struct {
	http *HTTPClient
}

// List returns one page of activities.
func (s *ActivitiesService) List(ctx context.Context, params TimeRangeParams) (*ActivityList, error) {
	raw, err := s.http.Get(ctx, s.http.V("/activities"), params.query())
	if err != nil {
		return nil, err
	}
	var out ActivityList
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TimesheetsService reads the timesheets report.
type TimesheetsService struct {
	http *HTTPClient
}

// List returns one page of timesheet rows.
func (s *TimesheetsService) List(ctx context.Context, filters TimesheetFilters) (*TimesheetList, error) {
	raw, err := s.http.Get(ctx, s.http.V("/timesheets"), filters.query())
	if err != nil {
		return nil, err
	}
	var out TimesheetList
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
