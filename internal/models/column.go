package models

import "time"

// Column is a board grouping tasks are routed into.
type Column struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// ColumnPrefixRule routes imported issue titles carrying a bracketed
// prefix ("[Bug] ...") into a specific column.
type ColumnPrefixRule struct {
	ID       string `json:"id"`
	TeamID   string `json:"team_id"`
	ColumnID string `json:"column_id"`
	Prefix   string `json:"prefix"`
}
