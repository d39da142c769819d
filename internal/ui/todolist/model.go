// Package todolist is the terminal todo browser.
package todolist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/keys"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/service"
	"github.com/nhle/tracker/internal/theme"
)

// TodosLoadedMsg is sent when todos have been loaded.
type TodosLoadedMsg struct {
	Todos []service.TodoView
	Err   error
}

// TodoUpdatedMsg is sent after a status change.
type TodoUpdatedMsg struct {
	Todo service.TodoView
	Err  error
}

// sortModes defines the available sort modes cycled by Tab.
var sortModes = []string{
	"updated_at",
	"priority",
	"due_date",
	"title",
	"created_at",
}

// statusFilters is cycled by the status key; "" shows every status.
var statusFilters = []model.TodoStatus{
	"",
	model.TodoStatusPending,
	model.TodoStatusInProgress,
	model.TodoStatusCompleted,
	model.TodoStatusCancelled,
}

// Model is the root Bubble Tea model of the browser. ctx carries the
// signed-in principal, so every load goes through the same access checks
// as the HTTP API.
type Model struct {
	ctx         context.Context
	svc         *service.Service
	keys        *keys.KeyMap
	userName    string
	list        list.Model
	help        help.Model
	searchInput textinput.Model
	query       service.TodoQuery
	sortIndex   int
	statusIndex int
	searchMode  bool
	showDetail  bool
	showHelp    bool
	message     string
	width       int
	height      int
}

// New creates a browser for the principal on ctx.
func New(ctx context.Context, svc *service.Service, userName string) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, 0, 0)
	l.Title = "Todos"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search todos..."
	si.Prompt = "/ "

	return Model{
		ctx:         ctx,
		svc:         svc,
		keys:        keys.DefaultKeyMap(),
		userName:    userName,
		list:        l,
		help:        help.New(),
		searchInput: si,
		query: service.TodoQuery{
			SortBy:   sortModes[0],
			SortDesc: true,
		},
	}
}

// Init returns a command that loads the initial set of todos.
func (m Model) Init() tea.Cmd {
	return m.LoadTodos()
}

// Update handles messages for the browser.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case TodosLoadedMsg:
		if msg.Err != nil {
			m.message = "load failed: " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, len(msg.Todos))
		for i, todo := range msg.Todos {
			items[i] = TodoItem{Todo: todo}
		}
		m.message = ""
		return m, m.list.SetItems(items)

	case TodoUpdatedMsg:
		if msg.Err != nil {
			m.message = "update failed: " + msg.Err.Error()
			return m, nil
		}
		m.message = fmt.Sprintf("%q is now %s", msg.Todo.Title, msg.Todo.Status)
		return m, m.LoadTodos()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query.Search = strings.TrimSpace(m.searchInput.Value())
		return m, m.LoadTodos()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query.Search = ""
		return m, m.LoadTodos()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.showDetail = false
		m.showHelp = false
		m.list.SetSize(m.listWidth(), m.height-2)
		return m, nil

	case key.Matches(msg, m.keys.Select):
		m.showDetail = !m.showDetail
		m.list.SetSize(m.listWidth(), m.height-2)
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadTodos()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		m.query.SortBy = sortModes[m.sortIndex]
		m.query.SortDesc = m.query.SortBy == "updated_at" || m.query.SortBy == "created_at"
		return m, m.LoadTodos()

	case key.Matches(msg, m.keys.CycleStatus):
		m.statusIndex = (m.statusIndex + 1) % len(statusFilters)
		m.query.Status = string(statusFilters[m.statusIndex])
		return m, m.LoadTodos()

	case key.Matches(msg, m.keys.Complete):
		return m, m.setStatus(model.TodoStatusCompleted)

	case key.Matches(msg, m.keys.Start):
		return m, m.setStatus(model.TodoStatusInProgress)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// setStatus returns a command that moves the selected todo to status.
func (m *Model) setStatus(status model.TodoStatus) tea.Cmd {
	item, ok := m.list.SelectedItem().(TodoItem)
	if !ok {
		return nil
	}
	if !item.Todo.Actions.Has(authz.ActionEdit) {
		m.message = "you cannot edit this todo"
		return nil
	}

	ctx, svc, id := m.ctx, m.svc, item.Todo.ID
	s := string(status)
	return func() tea.Msg {
		todo, err := svc.UpdateTodo(ctx, id, service.TodoPatch{Status: &s})
		return TodoUpdatedMsg{Todo: todo, Err: err}
	}
}

// LoadTodos returns a tea.Cmd that queries the service with the current
// filter.
func (m Model) LoadTodos() tea.Cmd {
	ctx, svc, query := m.ctx, m.svc, m.query
	return func() tea.Msg {
		todos, err := svc.ListTodos(ctx, query)
		return TodosLoadedMsg{Todos: todos, Err: err}
	}
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.searchInput.Width = width - 4
	m.list.SetSize(m.listWidth(), height-2)
}

func (m Model) listWidth() int {
	if m.showDetail {
		return m.width / 2
	}
	return m.width
}

// View renders the browser.
func (m Model) View() string {
	header := m.renderHeader()
	footer := m.renderStatusBar()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)

	var body string
	switch {
	case m.showHelp:
		m.help.ShowAll = true
		body = theme.DetailPanelStyle.
			Width(m.width - 4).
			Height(bodyHeight - 2).
			Render(m.help.View(m.keys))
	case m.searchMode:
		bar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		body = lipgloss.JoinVertical(lipgloss.Left, bar, m.list.View())
	case len(m.list.Items()) == 0:
		body = m.renderEmptyState(bodyHeight)
	case m.showDetail:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.renderDetail(bodyHeight))
	default:
		body = m.list.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderHeader renders the title bar with the signed-in user on the right.
func (m Model) renderHeader() string {
	title := theme.HeaderStyle.Render("tracker")
	who := theme.HeaderStyle.Render(m.userName)

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(who)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, title, filler, who)
}

// renderStatusBar renders key hints, or the last status message.
func (m Model) renderStatusBar() string {
	text := m.message
	if text == "" {
		text = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	filters := "sort:" + m.query.SortBy
	if m.query.Status != "" {
		filters += " status:" + m.query.Status
	}

	return theme.StatusBarStyle.
		Width(m.width).
		Render(text + "  " + filters)
}

// renderDetail shows the selected todo's fields beside the list.
func (m Model) renderDetail(height int) string {
	item, ok := m.list.SelectedItem().(TodoItem)
	if !ok {
		return ""
	}
	t := item.Todo

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(t.Title),
		"",
		theme.StatusStyle(t.Status).Render(string(t.Status)) + " " +
			theme.PriorityStyle(t.Priority).Render(string(t.Priority)),
	}
	if t.Description != "" {
		lines = append(lines, "", t.Description)
	}
	if t.DueDate != nil {
		lines = append(lines, "", "due "+t.DueDate.Format("2006-01-02"))
	}
	if t.EstimatedMinutes != nil {
		lines = append(lines, fmt.Sprintf("estimate %dm, logged %dm", *t.EstimatedMinutes, t.TotalMinutes))
	} else if t.TotalMinutes > 0 {
		lines = append(lines, fmt.Sprintf("logged %dm", t.TotalMinutes))
	}
	if t.Recurrence != nil {
		lines = append(lines, fmt.Sprintf("repeats every %d × %s", t.Recurrence.Interval, t.Recurrence.Frequency))
	}
	lines = append(lines, "", theme.HelpStyle.Render("you may: "+t.Actions.String()))

	return theme.DetailPanelStyle.
		Width(m.width - m.listWidth() - 4).
		Height(height - 2).
		Render(strings.Join(lines, "\n"))
}

// renderEmptyState shows guidance text when no todos are available.
func (m Model) renderEmptyState(height int) string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query.Status != "" || m.query.Search != "" {
		return style.Render("No matching todos.\nTry adjusting your filters.")
	}
	return style.Render("No todos yet.")
}
