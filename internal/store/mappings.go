package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"teamboard/internal/models"
)

// MappingUpdate describes fields to update on an external mapping.
type MappingUpdate struct {
	SyncStatus        *models.SyncStatus
	LastSyncedAt      *time.Time
	LocalUpdatedAt    *time.Time
	ExternalUpdatedAt *time.Time
}

// CreateMapping inserts a task↔issue mapping. UNIQUE constraints reject a
// second mapping for the same task or the same (scope, issue number).
func (s *Store) CreateMapping(ctx context.Context, m *models.ExternalMapping) error {
	if m == nil {
		return fmt.Errorf("mapping is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO external_mappings (
			id, task_id, scope, issue_number, issue_url, sync_status,
			last_synced_at, local_updated_at, external_updated_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.TaskID,
		m.Scope,
		m.IssueNumber,
		nullIfEmpty(m.IssueURL),
		string(m.SyncStatus),
		nullTime(m.LastSyncedAt),
		nullTime(m.LocalUpdatedAt),
		nullTime(m.ExternalUpdatedAt),
		formatTime(m.CreatedAt),
	)
	return err
}

// GetMappingByTask returns the mapping for a task, or nil when unlinked.
func (s *Store) GetMappingByTask(ctx context.Context, taskID string) (*models.ExternalMapping, error) {
	return scanMapping(s.db.QueryRowContext(ctx,
		mappingSelect+" WHERE task_id = ?", taskID))
}

// GetMappingByIssue returns the mapping for a (scope, issue number) pair,
// or nil when no task is linked to that issue.
func (s *Store) GetMappingByIssue(ctx context.Context, scope string, issueNumber int) (*models.ExternalMapping, error) {
	return scanMapping(s.db.QueryRowContext(ctx,
		mappingSelect+" WHERE scope = ? AND issue_number = ?", scope, issueNumber))
}

// UpdateMapping updates sync bookkeeping fields on a mapping.
func (s *Store) UpdateMapping(ctx context.Context, id string, update MappingUpdate) error {
	set := []string{}
	args := []any{}

	if update.SyncStatus != nil {
		set = append(set, "sync_status = ?")
		args = append(args, string(*update.SyncStatus))
	}
	if update.LastSyncedAt != nil {
		set = append(set, "last_synced_at = ?")
		args = append(args, nullTime(update.LastSyncedAt))
	}
	if update.LocalUpdatedAt != nil {
		set = append(set, "local_updated_at = ?")
		args = append(args, nullTime(update.LocalUpdatedAt))
	}
	if update.ExternalUpdatedAt != nil {
		set = append(set, "external_updated_at = ?")
		args = append(args, nullTime(update.ExternalUpdatedAt))
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE external_mappings SET %s WHERE id = ?", strings.Join(set, ", "))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteMapping removes a mapping by id.
func (s *Store) DeleteMapping(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM external_mappings WHERE id = ?", id)
	return err
}

// AppendSyncLog inserts one append-only sync log entry.
func (s *Store) AppendSyncLog(ctx context.Context, entry *models.SyncLogEntry) error {
	if entry == nil {
		return fmt.Errorf("entry is required")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_log (
			task_id, scope, direction, action, field, old_value, new_value,
			result, trigger_kind, delivery_id, message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullIfEmpty(entry.TaskID),
		entry.Scope,
		string(entry.Direction),
		string(entry.Action),
		nullIfEmpty(entry.Field),
		nullIfEmpty(entry.OldValue),
		nullIfEmpty(entry.NewValue),
		string(entry.Result),
		string(entry.Trigger),
		nullIfEmpty(entry.DeliveryID),
		nullIfEmpty(entry.Message),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return err
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

// HasDelivery reports whether a webhook delivery id was already logged.
// This is the duplicate-suppression guard for at-least-once delivery.
func (s *Store) HasDelivery(ctx context.Context, deliveryID string) (bool, error) {
	if deliveryID == "" {
		return false, nil
	}
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM sync_log WHERE delivery_id = ? LIMIT 1", deliveryID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListSyncLog returns sync log entries for a task, newest first.
func (s *Store) ListSyncLog(ctx context.Context, taskID string, limit int) ([]models.SyncLogEntry, error) {
	query := `SELECT id, task_id, scope, direction, action, field, old_value, new_value,
		result, trigger_kind, delivery_id, message, created_at
		FROM sync_log WHERE task_id = ? ORDER BY id DESC`
	args := []any{taskID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.SyncLogEntry
	for rows.Next() {
		var e models.SyncLogEntry
		var taskID, field, oldValue, newValue, deliveryID, message sql.NullString
		var direction, action, result, trigger, createdAt string
		if err := rows.Scan(&e.ID, &taskID, &e.Scope, &direction, &action, &field,
			&oldValue, &newValue, &result, &trigger, &deliveryID, &message, &createdAt); err != nil {
			return nil, err
		}
		e.TaskID = taskID.String
		e.Direction = models.SyncDirection(direction)
		e.Action = models.SyncAction(action)
		e.Field = field.String
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		e.Result = models.SyncResult(result)
		e.Trigger = models.SyncTrigger(trigger)
		e.DeliveryID = deliveryID.String
		e.Message = message.String
		e.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const mappingSelect = `SELECT id, task_id, scope, issue_number, issue_url, sync_status,
	last_synced_at, local_updated_at, external_updated_at, created_at
	FROM external_mappings`

func scanMapping(scanner interface {
	Scan(dest ...any) error
}) (*models.ExternalMapping, error) {
	var m models.ExternalMapping
	var issueURL, lastSynced, localUpdated, externalUpdated sql.NullString
	var syncStatus, createdAt string

	if err := scanner.Scan(
		&m.ID,
		&m.TaskID,
		&m.Scope,
		&m.IssueNumber,
		&issueURL,
		&syncStatus,
		&lastSynced,
		&localUpdated,
		&externalUpdated,
		&createdAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	m.IssueURL = issueURL.String
	m.SyncStatus = models.SyncStatus(syncStatus)

	var err error
	if m.LastSyncedAt, err = parseTimePtr(lastSynced.String); err != nil {
		return nil, err
	}
	if m.LocalUpdatedAt, err = parseTimePtr(localUpdated.String); err != nil {
		return nil, err
	}
	if m.ExternalUpdatedAt, err = parseTimePtr(externalUpdated.String); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &m, nil
}
