package todolist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/service"
	"github.com/nhle/tracker/internal/theme"
)

// TodoItem wraps a todo view so it can be used in a bubbles/list.
type TodoItem struct {
	Todo service.TodoView
}

// FilterValue returns the string used for fuzzy filtering.
func (i TodoItem) FilterValue() string { return i.Todo.Title }

// Title returns the todo title for the list.
func (i TodoItem) Title() string { return i.Todo.Title }

// Description returns a short summary line for the list.
func (i TodoItem) Description() string {
	parts := []string{
		string(i.Todo.Status),
		string(i.Todo.Priority),
		relativeTime(i.Todo.UpdatedAt),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering todos on one
// line each.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(TodoItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderLine(it.Todo, index == m.Index()))
}

func renderLine(t service.TodoView, selected bool) string {
	done := t.Status == model.TodoStatusCompleted || t.Status == model.TodoStatusCancelled

	prefix := "○"
	if t.Status == model.TodoStatusCompleted {
		prefix = "✓"
	}

	statusBadge := theme.StatusStyle(t.Status).Render(string(t.Status))
	priBadge := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	projects := ""
	if n := len(t.ProjectIDs); n > 0 {
		projects = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render(fmt.Sprintf(" [%d]", n))
	}

	due := ""
	if t.DueDate != nil {
		due = theme.DueDateStyle.Render(" " + t.DueDate.Format("Jan 02"))
	}

	overdue := ""
	if t.Overdue {
		overdue = theme.OverdueStyle.Render(" OVERDUE")
	}

	readOnly := ""
	if !t.Actions.Has(authz.ActionEdit) {
		readOnly = theme.HelpStyle.Render(" (read-only)")
	}

	line := fmt.Sprintf("%s %s %s %s%s%s%s%s",
		prefix, statusBadge, priBadge, t.Title, projects, due, overdue, readOnly)

	if done {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// priorityLabel returns a short label for a priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "P1"
	case model.PriorityHigh:
		return "P2"
	case model.PriorityMedium:
		return "P3"
	case model.PriorityLow:
		return "P4"
	default:
		return "P?"
	}
}
