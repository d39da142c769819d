package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/store"
)

// TodoInput creates a todo.
type TodoInput struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	AssignedTo       string           `json:"assigned_to"`
	Priority         string           `json:"priority"`
	Status           string           `json:"status"`
	DueDate          string           `json:"due_date"`
	EstimatedMinutes *int             `json:"estimated_minutes"`
	ProjectIDs       []string         `json:"project_ids"`
	Recurrence       *RecurrenceInput `json:"recurrence"`
}

// RecurrenceInput sets how a todo repeats.
type RecurrenceInput struct {
	Frequency string `json:"frequency"`
	Interval  int    `json:"interval"`
	EndsOn    string `json:"ends_on"`
}

// TodoPatch changes the fields that are set. An empty AssignedTo unassigns
// and an empty DueDate clears the date. A non-nil ProjectIDs replaces the
// whole link set.
type TodoPatch struct {
	Title            *string          `json:"title"`
	Description      *string          `json:"description"`
	AssignedTo       *string          `json:"assigned_to"`
	Priority         *string          `json:"priority"`
	Status           *string          `json:"status"`
	DueDate          *string          `json:"due_date"`
	EstimatedMinutes *int             `json:"estimated_minutes"`
	ProjectIDs       *[]string        `json:"project_ids"`
	Recurrence       *RecurrenceInput `json:"recurrence"`
	ClearRecurrence  bool             `json:"clear_recurrence"`
}

// TodoQuery filters ListTodos. Empty fields do not filter.
type TodoQuery struct {
	ProjectID string
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortDesc  bool
	Limit     int
	Offset    int
}

// TodoView is a todo as seen by one caller.
type TodoView struct {
	model.Todo
	Actions      authz.ActionSet `json:"actions"`
	TotalMinutes int             `json:"total_minutes"`
	Overdue      bool            `json:"overdue"`
}

var todoSorts = map[string]bool{
	"":           true,
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"priority":   true,
	"title":      true,
}

func parseRecurrence(todoID string, in RecurrenceInput) (model.RecurrencePattern, string) {
	freq := strings.ToLower(strings.TrimSpace(in.Frequency))
	switch freq {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
	default:
		return model.RecurrencePattern{}, "recurrence frequency must be one of daily, weekly, monthly"
	}
	if in.Interval < 1 {
		return model.RecurrencePattern{}, "recurrence interval must be at least 1"
	}
	pattern := model.RecurrencePattern{TodoID: todoID, Frequency: freq, Interval: in.Interval}
	if strings.TrimSpace(in.EndsOn) != "" {
		endsOn, prob := parseDate("recurrence ends_on", in.EndsOn)
		if prob != "" {
			return model.RecurrencePattern{}, prob
		}
		pattern.EndsOn = &endsOn
	}
	return pattern, ""
}

// applyTodoPatch validates patch against todo and applies it. The first
// violated constraint is reported.
func applyTodoPatch(todo *model.Todo, patch TodoPatch) error {
	if patch.Title != nil {
		if prob := checkLength("title", *patch.Title, 1, MaxTodoTitle); prob != "" {
			return invalid(prob)
		}
		todo.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		if prob := checkLength("description", *patch.Description, 0, MaxTodoDescription); prob != "" {
			return invalid(prob)
		}
		todo.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.AssignedTo != nil {
		if id := strings.TrimSpace(*patch.AssignedTo); id != "" {
			todo.AssignedTo = &id
		} else {
			todo.AssignedTo = nil
		}
	}
	if patch.Priority != nil {
		priority, prob := parsePriority(*patch.Priority)
		if prob != "" {
			return invalid(prob)
		}
		todo.Priority = priority
	}
	if patch.Status != nil {
		status, prob := parseStatus(*patch.Status)
		if prob != "" {
			return invalid(prob)
		}
		todo.Status = status
	}
	if patch.DueDate != nil {
		if strings.TrimSpace(*patch.DueDate) == "" {
			todo.DueDate = nil
		} else {
			due, prob := parseDate("due_date", *patch.DueDate)
			if prob != "" {
				return invalid(prob)
			}
			todo.DueDate = &due
		}
	}
	if patch.EstimatedMinutes != nil {
		if *patch.EstimatedMinutes < 0 {
			return invalid("estimated_minutes must not be negative")
		}
		est := *patch.EstimatedMinutes
		todo.EstimatedMinutes = &est
	}
	if patch.Recurrence != nil && patch.ClearRecurrence {
		return invalid("recurrence and clear_recurrence are mutually exclusive")
	}
	return nil
}

// checkAssignee rejects an assignee that is not a registered user.
func checkAssignee(ctx context.Context, q store.Queries, assignedTo *string) error {
	if assignedTo == nil {
		return nil
	}
	_, err := q.GetUserByID(ctx, *assignedTo)
	if errors.Is(err, store.ErrNotFound) {
		return invalid("assigned user does not exist")
	}
	return err
}

// checkLinks requires the caller to belong to every requested project.
// Missing projects fail the same way as foreign ones.
func checkLinks(ctx context.Context, c *projectCache, p identity.Principal, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	available, err := c.many(ctx, ids)
	if err != nil {
		return err
	}
	if !authz.CanLinkProjects(p, ids, available) {
		return ErrAccessDenied
	}
	return nil
}

func (s *Service) todoView(ctx context.Context, q store.Queries, p identity.Principal, snap authz.TodoSnapshot) (TodoView, error) {
	total, err := q.GetTotalMinutes(ctx, snap.Todo.ID)
	if err != nil {
		return TodoView{}, err
	}
	return TodoView{
		Todo:         snap.Todo,
		Actions:      authz.TodoActions(p, snap),
		TotalMinutes: total,
		Overdue:      snap.Todo.IsOverdue(s.sessions.Now()),
	}, nil
}

// CreateTodo creates a todo owned by the caller, linked to the requested
// projects. The caller must belong to every one of them or nothing is
// written.
func (s *Service) CreateTodo(ctx context.Context, in TodoInput) (TodoView, error) {
	p, err := caller(ctx)
	if err != nil {
		return TodoView{}, err
	}

	todo := model.Todo{
		ID:        uuid.NewString(),
		CreatedBy: p.UserID(),
		Priority:  model.PriorityMedium,
		Status:    model.TodoStatusPending,
	}
	patch := TodoPatch{
		Title:            &in.Title,
		Description:      &in.Description,
		AssignedTo:       &in.AssignedTo,
		EstimatedMinutes: in.EstimatedMinutes,
	}
	if in.Priority != "" {
		patch.Priority = &in.Priority
	}
	if in.Status != "" {
		patch.Status = &in.Status
	}
	if in.DueDate != "" {
		patch.DueDate = &in.DueDate
	}
	if err := applyTodoPatch(&todo, patch); err != nil {
		return TodoView{}, err
	}

	var pattern *model.RecurrencePattern
	if in.Recurrence != nil {
		rp, prob := parseRecurrence(todo.ID, *in.Recurrence)
		if prob != "" {
			return TodoView{}, invalid(prob)
		}
		pattern = &rp
	}
	links := uniqueIDs(in.ProjectIDs)

	var view TodoView
	err = s.inTx(ctx, "create todo", func(q store.Queries) error {
		cache := newProjectCache(q)
		if err := checkLinks(ctx, cache, p, links); err != nil {
			return err
		}
		if err := checkAssignee(ctx, q, todo.AssignedTo); err != nil {
			return err
		}
		if err := q.CreateTodo(ctx, todo); err != nil {
			return storeErr(err, "creating todo")
		}
		if len(links) > 0 {
			if err := q.SetTodoProjects(ctx, todo.ID, links); err != nil {
				return storeErr(err, "linking projects")
			}
		}
		if pattern != nil {
			if err := q.SetRecurrence(ctx, *pattern); err != nil {
				return storeErr(err, "setting recurrence")
			}
		}

		snap, err := loadTodo(ctx, cache, todo.ID)
		if err != nil {
			return err
		}
		view, err = s.todoView(ctx, q, p, snap)
		return err
	})
	if err != nil {
		return TodoView{}, err
	}

	s.logger.Debug("todo created", "todo", todo.ID, "projects", len(links))
	return view, nil
}

// GetTodo returns a todo the caller can view.
func (s *Service) GetTodo(ctx context.Context, id string) (TodoView, error) {
	p, err := caller(ctx)
	if err != nil {
		return TodoView{}, err
	}
	snap, err := loadTodo(ctx, newProjectCache(s.store), id)
	if err != nil {
		return TodoView{}, s.fail("get todo", err)
	}
	if !authz.CanViewTodo(p, snap) {
		return TodoView{}, ErrNotFound
	}
	view, err := s.todoView(ctx, s.store, p, snap)
	if err != nil {
		return TodoView{}, s.fail("get todo", err)
	}
	return view, nil
}

// ListTodos returns the todos the caller can view that match query.
func (s *Service) ListTodos(ctx context.Context, query TodoQuery) ([]TodoView, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	filter := store.TodoFilter{
		VisibleTo: p.UserID(),
		SortBy:    query.SortBy,
		SortDesc:  query.SortDesc,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	if !todoSorts[query.SortBy] {
		return nil, invalid("sort must be one of created_at, updated_at, due_date, priority, title")
	}
	if query.Limit < 0 || query.Offset < 0 {
		return nil, invalid("limit and offset must not be negative")
	}
	if query.Status != "" {
		status, prob := parseStatus(query.Status)
		if prob != "" {
			return nil, invalid(prob)
		}
		filter.Status = &status
	}
	if query.Priority != "" {
		priority, prob := parsePriority(query.Priority)
		if prob != "" {
			return nil, invalid(prob)
		}
		filter.Priority = &priority
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		filter.Query = &search
	}

	cache := newProjectCache(s.store)
	if query.ProjectID != "" {
		snap, ok, err := cache.get(ctx, query.ProjectID)
		if err != nil {
			return nil, s.fail("list todos", err)
		}
		if !ok || !authz.CanViewProject(p, snap) {
			return nil, ErrNotFound
		}
		filter.ProjectID = &query.ProjectID
	}

	todos, err := s.store.GetTodos(ctx, filter)
	if err != nil {
		return nil, s.fail("list todos", err)
	}

	views := make([]TodoView, 0, len(todos))
	for _, todo := range todos {
		projects, err := cache.many(ctx, todo.ProjectIDs)
		if err != nil {
			return nil, s.fail("list todos", err)
		}
		snap := authz.TodoSnapshot{Todo: todo, Projects: projects}
		if !authz.CanViewTodo(p, snap) {
			continue
		}
		view, err := s.todoView(ctx, s.store, p, snap)
		if err != nil {
			return nil, s.fail("list todos", err)
		}
		views = append(views, view)
	}
	return views, nil
}

// UpdateTodo applies patch in one transaction: fields, the replacement link
// set and recurrence all land together or not at all. A link set naming any
// project the caller does not belong to rejects the whole update.
func (s *Service) UpdateTodo(ctx context.Context, id string, patch TodoPatch) (TodoView, error) {
	p, err := caller(ctx)
	if err != nil {
		return TodoView{}, err
	}

	var view TodoView
	err = s.inTx(ctx, "update todo", func(q store.Queries) error {
		cache := newProjectCache(q)
		snap, err := loadTodo(ctx, cache, id)
		if err != nil {
			return err
		}
		if !authz.CanViewTodo(p, snap) {
			return ErrNotFound
		}
		if !authz.CanEditTodo(p, snap) {
			return ErrAccessDenied
		}

		var links []string
		if patch.ProjectIDs != nil {
			links = uniqueIDs(*patch.ProjectIDs)
			if err := checkLinks(ctx, cache, p, links); err != nil {
				return err
			}
		}

		todo := snap.Todo
		if err := applyTodoPatch(&todo, patch); err != nil {
			return err
		}
		var pattern *model.RecurrencePattern
		if patch.Recurrence != nil {
			rp, prob := parseRecurrence(todo.ID, *patch.Recurrence)
			if prob != "" {
				return invalid(prob)
			}
			pattern = &rp
		}
		if patch.AssignedTo != nil {
			if err := checkAssignee(ctx, q, todo.AssignedTo); err != nil {
				return err
			}
		}

		if err := q.UpdateTodo(ctx, todo); err != nil {
			return storeErr(err, "updating todo")
		}
		if patch.ProjectIDs != nil {
			if err := q.SetTodoProjects(ctx, todo.ID, links); err != nil {
				return storeErr(err, "relinking projects")
			}
		}
		switch {
		case pattern != nil:
			if err := q.SetRecurrence(ctx, *pattern); err != nil {
				return storeErr(err, "setting recurrence")
			}
		case patch.ClearRecurrence:
			if err := q.DeleteRecurrence(ctx, todo.ID); err != nil {
				return storeErr(err, "clearing recurrence")
			}
		}

		fresh, err := loadTodo(ctx, cache, todo.ID)
		if err != nil {
			return err
		}
		view, err = s.todoView(ctx, q, p, fresh)
		return err
	})
	if err != nil {
		return TodoView{}, err
	}
	return view, nil
}

// DeleteTodo removes a todo with its time logs, recurrence and links.
func (s *Service) DeleteTodo(ctx context.Context, id string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.inTx(ctx, "delete todo", func(q store.Queries) error {
		snap, err := loadTodo(ctx, newProjectCache(q), id)
		if err != nil {
			return err
		}
		if !authz.CanViewTodo(p, snap) {
			return ErrNotFound
		}
		if !authz.CanDeleteTodo(p, snap) {
			return ErrAccessDenied
		}
		return storeErr(q.DeleteTodo(ctx, id), "deleting todo")
	})
}
