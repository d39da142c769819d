package model

import "time"

// TimeLog records time a user spent on a todo. Entries are never edited.
type TimeLog struct {
	ID        string    `json:"id" db:"id"`
	TodoID    string    `json:"todo_id" db:"todo_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Minutes   int       `json:"minutes" db:"minutes"`
	Note      string    `json:"note" db:"note"`
	LoggedAt  time.Time `json:"logged_at" db:"logged_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
