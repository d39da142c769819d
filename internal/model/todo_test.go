package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodoIsOverdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		due    *time.Time
		status TodoStatus
		want   bool
	}{
		{"no due date", nil, TodoStatusPending, false},
		{"future", &future, TodoStatusPending, false},
		{"past pending", &past, TodoStatusPending, true},
		{"past in progress", &past, TodoStatusInProgress, true},
		{"past completed", &past, TodoStatusCompleted, false},
		{"past cancelled", &past, TodoStatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todo := Todo{DueDate: tt.due, Status: tt.status}
			assert.Equal(t, tt.want, todo.IsOverdue(now))
		})
	}
}

func TestSessionExpiredAt(t *testing.T) {
	expires := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: expires}

	assert.False(t, s.ExpiredAt(expires.Add(-time.Nanosecond)))
	assert.True(t, s.ExpiredAt(expires))
	assert.True(t, s.ExpiredAt(expires.Add(time.Second)))
}

func TestRoles(t *testing.T) {
	assert.True(t, RoleOwner.Valid())
	assert.False(t, RoleOwner.Assignable())
	for _, r := range []Role{RoleAdmin, RoleEditor, RoleViewer} {
		assert.True(t, r.Assignable(), r)
	}
	assert.False(t, Role("superuser").Valid())
}
