package model

import "time"

// Priority is the urgency of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TodoStatus is the lifecycle state of a todo.
type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
	TodoStatusCancelled  TodoStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TodoStatus) Valid() bool {
	switch s {
	case TodoStatusPending, TodoStatusInProgress, TodoStatusCompleted, TodoStatusCancelled:
		return true
	}
	return false
}

// Todo is a unit of work. It may be linked to any number of projects;
// access to it is derived from those links plus its creator and assignee.
type Todo struct {
	ID               string     `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	Description      string     `json:"description" db:"description"`
	CreatedBy        string     `json:"created_by" db:"created_by"`
	AssignedTo       *string    `json:"assigned_to,omitempty" db:"assigned_to"`
	Priority         Priority   `json:"priority" db:"priority"`
	Status           TodoStatus `json:"status" db:"status"`
	DueDate          *time.Time `json:"due_date,omitempty" db:"due_date"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty" db:"estimated_minutes"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`

	// ProjectIDs is populated from todo_projects.
	ProjectIDs []string `json:"project_ids" db:"-"`

	// Recurrence is populated when the todo has a recurrence record.
	Recurrence *RecurrencePattern `json:"recurrence,omitempty" db:"-"`
}

// IsOverdue reports whether the todo is past due and still open.
func (t Todo) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == TodoStatusCompleted || t.Status == TodoStatusCancelled {
		return false
	}
	return t.DueDate.Before(now)
}

// Recurrence frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// RecurrencePattern describes how a todo repeats. Its lifecycle is bound to
// the parent todo (CASCADE delete).
type RecurrencePattern struct {
	TodoID    string     `json:"todo_id" db:"todo_id"`
	Frequency string     `json:"frequency" db:"frequency"`
	Interval  int        `json:"interval" db:"interval_count"`
	EndsOn    *time.Time `json:"ends_on,omitempty" db:"ends_on"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
