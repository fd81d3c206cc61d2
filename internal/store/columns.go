package store

import (
	"context"
	"database/sql"
	"fmt"

	"teamboard/internal/models"
)

// CreateColumn inserts a board column.
func (s *Store) CreateColumn(ctx context.Context, col *models.Column) error {
	if col == nil {
		return fmt.Errorf("column is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO columns (id, team_id, name, is_default, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, col.ID, col.TeamID, col.Name, col.IsDefault, col.Position, formatTime(col.CreatedAt))
	return err
}

// GetColumn returns a column by id, or nil when absent.
func (s *Store) GetColumn(ctx context.Context, id string) (*models.Column, error) {
	return scanColumn(s.db.QueryRowContext(ctx,
		columnSelect+" WHERE id = ?", id))
}

// GetDefaultColumn returns the team's default column, or nil when the team
// has none yet.
func (s *Store) GetDefaultColumn(ctx context.Context, teamID string) (*models.Column, error) {
	return scanColumn(s.db.QueryRowContext(ctx,
		columnSelect+" WHERE team_id = ? AND is_default = 1 LIMIT 1", teamID))
}

// ListColumns returns a team's columns ordered by position.
func (s *Store) ListColumns(ctx context.Context, teamID string) ([]models.Column, error) {
	rows, err := s.db.QueryContext(ctx,
		columnSelect+" WHERE team_id = ? ORDER BY position, created_at", teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, *col)
	}
	return columns, rows.Err()
}

// CreatePrefixRule binds a title prefix to a column for a team.
func (s *Store) CreatePrefixRule(ctx context.Context, rule *models.ColumnPrefixRule) error {
	if rule == nil {
		return fmt.Errorf("rule is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO column_prefix_rules (id, team_id, column_id, prefix)
		VALUES (?, ?, ?, ?)
	`, rule.ID, rule.TeamID, rule.ColumnID, rule.Prefix)
	return err
}

// ListPrefixRules returns all prefix rules for a team.
func (s *Store) ListPrefixRules(ctx context.Context, teamID string) ([]models.ColumnPrefixRule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, team_id, column_id, prefix FROM column_prefix_rules WHERE team_id = ?", teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.ColumnPrefixRule
	for rows.Next() {
		var rule models.ColumnPrefixRule
		if err := rows.Scan(&rule.ID, &rule.TeamID, &rule.ColumnID, &rule.Prefix); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

const columnSelect = "SELECT id, team_id, name, is_default, position, created_at FROM columns"

func scanColumn(scanner interface {
	Scan(dest ...any) error
}) (*models.Column, error) {
	var col models.Column
	var createdAt string
	if err := scanner.Scan(&col.ID, &col.TeamID, &col.Name, &col.IsDefault, &col.Position, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if col.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &col, nil
}
