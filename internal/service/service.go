// Package service implements the tracker's operations.
//
// Each operation resolves the caller from the context, loads the entity
// snapshot its decision needs, asks package authz, and only then writes.
// Multi-step writes run in one store transaction.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/session"
	"github.com/nhle/tracker/internal/store"
)

// Service groups every tracker operation behind one set of collaborators.
type Service struct {
	store    store.Store
	sessions *session.Store
	logger   *slog.Logger
}

// New returns a Service. A nil logger discards output.
func New(st store.Store, sessions *session.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: st, sessions: sessions, logger: logger}
}

// caller returns the principal on ctx, or ErrNotAuthenticated.
func caller(ctx context.Context) (identity.Principal, error) {
	p := identity.FromContext(ctx)
	if p.IsAnonymous() {
		return p, ErrNotAuthenticated
	}
	return p, nil
}

// inTx runs fn in one transaction. Caller-facing outcomes pass through;
// anything else is logged and reported as an internal failure.
func (s *Service) inTx(ctx context.Context, action string, fn func(q store.Queries) error) error {
	err := s.store.WithTx(ctx, fn)
	if err == nil || isOutcome(err) {
		return err
	}
	return s.fail(action, err)
}

// fail maps err like storeErr and logs anything that is not an outcome.
func (s *Service) fail(action string, err error) error {
	err = storeErr(err, action)
	if err != nil && !isOutcome(err) {
		s.logger.Error("operation failed", "op", action, "err", err)
	}
	return err
}

// loadProject reads a project and its memberships.
func loadProject(ctx context.Context, q store.Queries, id string) (authz.ProjectSnapshot, error) {
	project, err := q.GetProjectByID(ctx, id)
	if err != nil {
		return authz.ProjectSnapshot{}, storeErr(err, "loading project")
	}
	members, err := q.GetMemberships(ctx, id)
	if err != nil {
		return authz.ProjectSnapshot{}, storeErr(err, "loading memberships")
	}
	return authz.ProjectSnapshot{Project: *project, Memberships: members}, nil
}

// projectCache memoizes snapshots within one operation.
type projectCache struct {
	q     store.Queries
	snaps map[string]authz.ProjectSnapshot
}

func newProjectCache(q store.Queries) *projectCache {
	return &projectCache{q: q, snaps: make(map[string]authz.ProjectSnapshot)}
}

// get returns the snapshot for id; ok is false when the project is gone.
func (c *projectCache) get(ctx context.Context, id string) (authz.ProjectSnapshot, bool, error) {
	if snap, ok := c.snaps[id]; ok {
		return snap, true, nil
	}
	snap, err := loadProject(ctx, c.q, id)
	if errors.Is(err, ErrNotFound) {
		return authz.ProjectSnapshot{}, false, nil
	}
	if err != nil {
		return authz.ProjectSnapshot{}, false, err
	}
	c.snaps[id] = snap
	return snap, true, nil
}

// many returns snapshots of the ids that still exist.
func (c *projectCache) many(ctx context.Context, ids []string) ([]authz.ProjectSnapshot, error) {
	out := make([]authz.ProjectSnapshot, 0, len(ids))
	for _, id := range ids {
		snap, ok, err := c.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, snap)
		}
	}
	return out, nil
}

// loadTodo reads a todo and snapshots of every project it is linked to.
func loadTodo(ctx context.Context, c *projectCache, id string) (authz.TodoSnapshot, error) {
	todo, err := c.q.GetTodoByID(ctx, id)
	if err != nil {
		return authz.TodoSnapshot{}, storeErr(err, "loading todo")
	}
	projects, err := c.many(ctx, todo.ProjectIDs)
	if err != nil {
		return authz.TodoSnapshot{}, err
	}
	return authz.TodoSnapshot{Todo: *todo, Projects: projects}, nil
}

// loadMessage reads a message and its project.
func loadMessage(ctx context.Context, q store.Queries, id string) (authz.MessageSnapshot, error) {
	msg, err := q.GetMessageByID(ctx, id)
	if err != nil {
		return authz.MessageSnapshot{}, storeErr(err, "loading message")
	}
	project, err := loadProject(ctx, q, msg.ProjectID)
	if err != nil {
		return authz.MessageSnapshot{}, err
	}
	return authz.MessageSnapshot{Message: *msg, Project: project}, nil
}
