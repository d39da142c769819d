package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/tracker/internal/model"
)

// ErrNotFound is wrapped by lookups and mutations whose target row does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is wrapped when a write collides with a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// TodoFilter controls filtering and pagination for todo queries.
type TodoFilter struct {
	// VisibleTo restricts results to todos the user created, is assigned,
	// or reaches through a linked project membership.
	VisibleTo string

	ProjectID *string
	Status    *model.TodoStatus
	Priority  *model.Priority

	// Query searches title and description.
	Query *string

	// SortBy is one of "created_at", "updated_at", "due_date", "priority",
	// "title".
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// Queries is the set of reads and writes available both directly on the
// store and inside a transaction.
type Queries interface {
	// === Users ===

	CreateUser(ctx context.Context, user model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)

	// === Sessions ===

	CreateSession(ctx context.Context, s model.Session) error
	GetSession(ctx context.Context, tokenHash string) (model.Session, bool, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID, exceptHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// === Projects ===

	CreateProject(ctx context.Context, project model.Project) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjectsForUser(ctx context.Context, userID string) ([]model.Project, error)
	UpdateProject(ctx context.Context, project model.Project) error
	DeleteProject(ctx context.Context, id string) error

	// === Memberships ===

	CreateMembership(ctx context.Context, m model.Membership) error
	GetMembershipByID(ctx context.Context, id string) (*model.Membership, error)
	GetMemberships(ctx context.Context, projectID string) ([]model.Membership, error)
	UpdateMembershipRole(ctx context.Context, id string, role model.Role) error
	DeleteMembership(ctx context.Context, id string) error

	// === Todos ===

	CreateTodo(ctx context.Context, todo model.Todo) error
	GetTodoByID(ctx context.Context, id string) (*model.Todo, error)
	GetTodos(ctx context.Context, filter TodoFilter) ([]model.Todo, error)
	UpdateTodo(ctx context.Context, todo model.Todo) error
	DeleteTodo(ctx context.Context, id string) error
	SetTodoProjects(ctx context.Context, todoID string, projectIDs []string) error
	SetRecurrence(ctx context.Context, pattern model.RecurrencePattern) error
	DeleteRecurrence(ctx context.Context, todoID string) error

	// === Time logs ===

	CreateTimeLog(ctx context.Context, log model.TimeLog) error
	GetTimeLogs(ctx context.Context, todoID string) ([]model.TimeLog, error)
	GetTotalMinutes(ctx context.Context, todoID string) (int, error)

	// === Project messages ===

	CreateMessage(ctx context.Context, msg model.ProjectMessage) error
	GetMessageByID(ctx context.Context, id string) (*model.ProjectMessage, error)
	GetMessages(ctx context.Context, projectID string) ([]model.ProjectMessage, error)
	UpdateMessage(ctx context.Context, msg model.ProjectMessage) error
	DeleteMessage(ctx context.Context, id string) error
}

// Store defines the persistence interface for the tracker. Foreign keys
// cascade: deleting a user removes their sessions, owned projects and
// memberships; deleting a project removes its memberships, todo links and
// messages; deleting a todo removes its time logs, recurrence and links.
type Store interface {
	Queries

	// WithTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise, so either every write made
	// through q is visible afterwards or none is. fn must not use the outer
	// Store.
	WithTx(ctx context.Context, fn func(q Queries) error) error
}
