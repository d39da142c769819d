package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nhle/tracker/internal/model"
)

// Field limits, in characters.
const (
	MaxProjectName        = 100
	MaxProjectDescription = 1000
	MaxTodoTitle          = 200
	MaxTodoDescription    = 2000
	MaxTimeLogNote        = 500
	MaxMessageBody        = 5000
	MaxUserName           = 100
)

const dateLayout = "2006-01-02"

// checkLength reports a problem when s, trimmed, is outside [min, max]
// characters.
func checkLength(field, s string, min, max int) string {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	switch {
	case n < min && min == 1:
		return field + " is required"
	case n < min:
		return fmt.Sprintf("%s must be at least %d characters", field, min)
	case n > max:
		return fmt.Sprintf("%s must be at most %d characters", field, max)
	}
	return ""
}

// parseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
func parseDate(field, s string) (time.Time, string) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), ""
	}
	return time.Time{}, field + " must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"
}

func parsePriority(s string) (model.Priority, string) {
	p := model.Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", "priority must be one of low, medium, high, urgent"
	}
	return p, ""
}

func parseStatus(s string) (model.TodoStatus, string) {
	st := model.TodoStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", "status must be one of pending, in_progress, completed, cancelled"
	}
	return st, ""
}

func parseAssignableRole(s string) (model.Role, string) {
	r := model.Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Assignable() {
		return "", "role must be one of admin, editor, viewer"
	}
	return r, ""
}

// uniqueIDs drops blanks and duplicates, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
