package model

import "time"

// ProjectMessage is a note posted to a project's message board.
type ProjectMessage struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// TodoIDs lists todos referenced by the message.
	TodoIDs []string `json:"todo_ids" db:"-"`
}
