package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"teamboard/internal/models"
)

// ListFilter narrows ListTasks results.
type ListFilter struct {
	TeamID   string
	Statuses []string
	ColumnID string
	Limit    int
	Offset   int
}

// TaskUpdate describes fields to update on a task. Nil pointers leave the
// column untouched; a pointer to the zero value clears it.
type TaskUpdate struct {
	Title           *string
	Description     *string
	Status          *models.WorkflowStatus
	Priority        *models.Priority
	ColumnID        *string
	DueDate         *time.Time
	ClearDueDate    bool
	RejectionReason *string
	RejectedBy      *string
	UpdatedAt       time.Time
}

// CreateTask inserts a task with optional assignee and verifier sets.
func (s *Store) CreateTask(ctx context.Context, task *models.Task, assigneeIDs, verifierIDs []string) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (
			id, team_id, column_id, creator_id, title, description, status, priority,
			due_date, rejection_reason, rejected_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.TeamID,
		nullIfEmpty(task.ColumnID),
		nullIfEmpty(task.CreatorID),
		task.Title,
		nullIfEmpty(task.Description),
		string(task.Status),
		nullIfEmpty(string(task.Priority)),
		nullTime(task.DueDate),
		nullIfEmpty(task.RejectionReason),
		nullIfEmpty(task.RejectedBy),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return err
	}

	for _, memberID := range assigneeIDs {
		if _, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_assignees (task_id, member_id) VALUES (?, ?)",
			task.ID, memberID); err != nil {
			return err
		}
	}
	for _, memberID := range verifierIDs {
		if _, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_verifiers (task_id, member_id) VALUES (?, ?)",
			task.ID, memberID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTask returns a task by id, or nil when absent.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, column_id, creator_id, title, description, status, priority,
		       due_date, rejection_reason, rejected_by, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	return scanTask(row)
}

// UpdateTask updates mutable fields on a task.
func (s *Store) UpdateTask(ctx context.Context, id string, update TaskUpdate) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}

	set := []string{}
	args := []any{}

	if update.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		set = append(set, "description = ?")
		args = append(args, nullIfEmpty(*update.Description))
	}
	if update.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, nullIfEmpty(string(*update.Priority)))
	}
	if update.ColumnID != nil {
		set = append(set, "column_id = ?")
		args = append(args, nullIfEmpty(*update.ColumnID))
	}
	if update.DueDate != nil {
		set = append(set, "due_date = ?")
		args = append(args, nullTime(update.DueDate))
	} else if update.ClearDueDate {
		set = append(set, "due_date = NULL")
	}
	if update.RejectionReason != nil {
		set = append(set, "rejection_reason = ?")
		args = append(args, nullIfEmpty(*update.RejectionReason))
	}
	if update.RejectedBy != nil {
		set = append(set, "rejected_by = ?")
		args = append(args, nullIfEmpty(*update.RejectedBy))
	}

	set = append(set, "updated_at = ?")
	args = append(args, formatTime(update.UpdatedAt))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = ?", strings.Join(set, ", "))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// SetStatus conditionally moves a task from one status to another. It
// returns false when the task was not in the expected status, which makes
// the consensus check-then-transition sequence a compare-and-swap.
func (s *Store) SetStatus(ctx context.Context, id string, from, to models.WorkflowStatus, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), formatTime(at), id, string(from))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListTasks returns tasks matching the filter, most recently updated first.
func (s *Store) ListTasks(ctx context.Context, filter ListFilter) ([]models.Task, error) {
	query := `SELECT id, team_id, column_id, creator_id, title, description, status, priority,
		due_date, rejection_reason, rejected_by, created_at, updated_at FROM tasks`
	where := []string{}
	args := []any{}

	if filter.TeamID != "" {
		where = append(where, "team_id = ?")
		args = append(args, filter.TeamID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if filter.ColumnID != "" {
		where = append(where, "column_id = ?")
		args = append(args, filter.ColumnID)
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// DeleteTask removes a task; role rows and mappings cascade.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	return err
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	var task models.Task
	var columnID, creatorID, description, priority, dueDate, rejectionReason, rejectedBy sql.NullString
	var status, createdAt, updatedAt string

	if err := scanner.Scan(
		&task.ID,
		&task.TeamID,
		&columnID,
		&creatorID,
		&task.Title,
		&description,
		&status,
		&priority,
		&dueDate,
		&rejectionReason,
		&rejectedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	task.ColumnID = columnID.String
	task.CreatorID = creatorID.String
	task.Description = description.String
	task.Status = models.WorkflowStatus(status)
	task.Priority = models.Priority(priority.String)
	task.RejectionReason = rejectionReason.String
	task.RejectedBy = rejectedBy.String

	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	parsedUpdated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = parsedCreated
	task.UpdatedAt = parsedUpdated

	if dueDate.Valid {
		due, err := parseTimePtr(dueDate.String)
		if err != nil {
			return nil, err
		}
		task.DueDate = due
	}

	return &task, nil
}
