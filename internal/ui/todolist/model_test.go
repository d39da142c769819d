package todolist

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/service"
	"github.com/nhle/tracker/internal/session"
	"github.com/nhle/tracker/tests/testutil"
)

func newBrowser(t *testing.T) (Model, *service.Service, model.User) {
	t.Helper()
	db := testutil.NewTestStore(t)
	svc := service.New(db, session.NewStore(db, nil), nil)
	user := testutil.CreateUser(t, db, "alice@example.com")
	ctx := identity.WithPrincipal(context.Background(), identity.Authenticated(user, ""))

	m := New(ctx, svc, user.Name)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), svc, user
}

func load(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.LoadTodos()()
	loaded, ok := msg.(TodosLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	updated, _ := m.Update(loaded)
	return updated.(Model)
}

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestBrowserLoadsAndCompletes(t *testing.T) {
	m, svc, user := newBrowser(t)
	ctx := identity.WithPrincipal(context.Background(), identity.Authenticated(user, ""))
	_, err := svc.CreateTodo(ctx, service.TodoInput{Title: "Write tests"})
	require.NoError(t, err)

	m = load(t, m)
	require.Len(t, m.list.Items(), 1)
	assert.Contains(t, m.View(), "Write tests")

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.NotNil(t, cmd)
	done, ok := cmd().(TodoUpdatedMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, model.TodoStatusCompleted, done.Todo.Status)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.showDetail)
}

func TestBrowserCyclesSortAndStatus(t *testing.T) {
	m, _, _ := newBrowser(t)
	assert.Equal(t, "updated_at", m.query.SortBy)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	assert.Equal(t, "priority", m.query.SortBy)
	assert.False(t, m.query.SortDesc)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	assert.Equal(t, string(model.TodoStatusPending), m.query.Status)

	m = load(t, m)
	assert.Contains(t, m.View(), "No matching todos.")
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "P1", priorityLabel(model.PriorityUrgent))
	assert.Equal(t, "P4", priorityLabel(model.PriorityLow))
	assert.Equal(t, "P?", priorityLabel(model.Priority("")))
}
