package hubstaff

import "context"

// CreateTaskInput is the minimal body for creating a task.
type CreateTaskInput struct {
	ProjectID int64  `json:"project_id"`
	Summary   string `json:"summary"`
}

// TasksService wraps the task endpoints.
type TasksService struct {
	http *HTTPClient
}

// Create creates a task in in.ProjectID.
func (s *TasksService) Create(ctx context.Context, in CreateTaskInput) (*Task, error) {
	path := s.http.V("/projects/" + id(in.ProjectID) + "/tasks")
	raw, err := s.http.Post(ctx, path, map[string]any{"summary": in.Summary})
	if err != nil {
		return nil, err
	}
	var out struct {
		Task Task `json:"task"`
	}
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// List returns one page of the tasks in projectID.
func (s *TasksService) List(ctx context.Context, projectID int64, page *Pagination) (*TaskList, error) {
	raw, err := s.http.Get(ctx, s.http.V("/projects/"+id(projectID)+"/tasks"), page.apply(nil))
	if err != nil {
		return nil, err
	}
	var out TaskList
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRaw posts an arbitrary task body to projectID.
func (s *TasksService) CreateRaw(ctx context.Context, projectID int64, body map[string]any, query Query) (map[string]any, error) {
	path := s.http.V("/projects/"+id(projectID)+"/tasks") + s.http.BuildQuery(query)
	return rawCall(ctx, s.http.Post, path, body)
}

// Update applies body to taskID and returns the decoded response.
func (s *TasksService) Update(ctx context.Context, taskID int64, body map[string]any, query Query) (map[string]any, error) {
	return rawCall(ctx, s.http.Put, s.http.V("/tasks/"+id(taskID))+s.http.BuildQuery(query), body)
}
