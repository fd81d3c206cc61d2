package store

import (
	"context"
	"database/sql"

	"teamboard/internal/models"
)

// AddAssignee inserts an assignee row with both flags cleared. Adding an
// existing assignee is a no-op.
func (s *Store) AddAssignee(ctx context.Context, taskID, memberID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO task_assignees (task_id, member_id) VALUES (?, ?)",
		taskID, memberID)
	return err
}

// RemoveAssignee deletes an assignee row.
func (s *Store) RemoveAssignee(ctx context.Context, taskID, memberID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM task_assignees WHERE task_id = ? AND member_id = ?",
		taskID, memberID)
	return err
}

// AddVerifier inserts a verifier row. Adding an existing verifier is a
// no-op.
func (s *Store) AddVerifier(ctx context.Context, taskID, memberID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO task_verifiers (task_id, member_id) VALUES (?, ?)",
		taskID, memberID)
	return err
}

// RemoveVerifier deletes a verifier row.
func (s *Store) RemoveVerifier(ctx context.Context, taskID, memberID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM task_verifiers WHERE task_id = ? AND member_id = ?",
		taskID, memberID)
	return err
}

// ListAssignees returns the assignee rows for a task.
func (s *Store) ListAssignees(ctx context.Context, taskID string) ([]models.Assignee, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT task_id, member_id, accepted, completed FROM task_assignees WHERE task_id = ? ORDER BY member_id",
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignees []models.Assignee
	for rows.Next() {
		var a models.Assignee
		if err := rows.Scan(&a.TaskID, &a.MemberID, &a.Accepted, &a.Completed); err != nil {
			return nil, err
		}
		assignees = append(assignees, a)
	}
	return assignees, rows.Err()
}

// ListVerifiers returns the verifier rows for a task.
func (s *Store) ListVerifiers(ctx context.Context, taskID string) ([]models.Verifier, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT task_id, member_id, approved, rejection_reason FROM task_verifiers WHERE task_id = ? ORDER BY member_id",
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verifiers []models.Verifier
	for rows.Next() {
		var v models.Verifier
		var reason sql.NullString
		if err := rows.Scan(&v.TaskID, &v.MemberID, &v.Approved, &reason); err != nil {
			return nil, err
		}
		v.RejectionReason = reason.String
		verifiers = append(verifiers, v)
	}
	return verifiers, rows.Err()
}

// MarkAccepted sets the accepted flag for one assignee. Returns false when
// the member is not an assignee of the task.
func (s *Store) MarkAccepted(ctx context.Context, taskID, memberID string) (bool, error) {
	return s.roleUpdate(ctx,
		"UPDATE task_assignees SET accepted = 1 WHERE task_id = ? AND member_id = ?",
		taskID, memberID)
}

// MarkCompleted sets the completed flag for one assignee. Only accepted
// assignees can complete; returns false otherwise.
func (s *Store) MarkCompleted(ctx context.Context, taskID, memberID string) (bool, error) {
	return s.roleUpdate(ctx,
		"UPDATE task_assignees SET completed = 1 WHERE task_id = ? AND member_id = ? AND accepted = 1",
		taskID, memberID)
}

// MarkApproved sets the approved flag for one verifier. Returns false when
// the member is not a verifier of the task.
func (s *Store) MarkApproved(ctx context.Context, taskID, memberID string) (bool, error) {
	return s.roleUpdate(ctx,
		"UPDATE task_verifiers SET approved = 1 WHERE task_id = ? AND member_id = ?",
		taskID, memberID)
}

// RecordVerifierRejection stores a rejection reason on one verifier row.
func (s *Store) RecordVerifierRejection(ctx context.Context, taskID, memberID, reason string) (bool, error) {
	return s.roleUpdate(ctx,
		"UPDATE task_verifiers SET approved = 0, rejection_reason = ? WHERE task_id = ? AND member_id = ?",
		reason, taskID, memberID)
}

// ResetAssigneesCompleted clears the completed flag for every assignee.
func (s *Store) ResetAssigneesCompleted(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE task_assignees SET completed = 0 WHERE task_id = ?", taskID)
	return err
}

// ResetVerifiersApproved clears the approved flag for every verifier.
func (s *Store) ResetVerifiersApproved(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE task_verifiers SET approved = 0 WHERE task_id = ?", taskID)
	return err
}

// ForceCompleteRoles accepts and completes every assignee and approves
// every verifier in one transaction.
func (s *Store) ForceCompleteRoles(ctx context.Context, taskID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"UPDATE task_assignees SET accepted = 1, completed = 1 WHERE task_id = ?", taskID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE task_verifiers SET approved = 1 WHERE task_id = ?", taskID); err != nil {
		return err
	}
	return tx.Commit()
}

// AllAssigneesAccepted reports whether the task has at least one assignee
// and every assignee has accepted. An empty set is not vacuously true.
func (s *Store) AllAssigneesAccepted(ctx context.Context, taskID string) (bool, error) {
	return s.consensus(ctx,
		"SELECT COUNT(*), COALESCE(SUM(accepted), 0) FROM task_assignees WHERE task_id = ?", taskID)
}

// AllAssigneesCompleted reports whether the task has at least one assignee
// and every assignee has completed.
func (s *Store) AllAssigneesCompleted(ctx context.Context, taskID string) (bool, error) {
	return s.consensus(ctx,
		"SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM task_assignees WHERE task_id = ?", taskID)
}

// AllVerifiersApproved reports whether the task has at least one verifier
// and every verifier has approved.
func (s *Store) AllVerifiersApproved(ctx context.Context, taskID string) (bool, error) {
	return s.consensus(ctx,
		"SELECT COUNT(*), COALESCE(SUM(approved), 0) FROM task_verifiers WHERE task_id = ?", taskID)
}

// CountVerifiers returns the number of verifier rows for a task.
func (s *Store) CountVerifiers(ctx context.Context, taskID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM task_verifiers WHERE task_id = ?", taskID).Scan(&count)
	return count, err
}

func (s *Store) roleUpdate(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) consensus(ctx context.Context, query, taskID string) (bool, error) {
	var total, set int
	if err := s.db.QueryRowContext(ctx, query, taskID).Scan(&total, &set); err != nil {
		return false, err
	}
	return total > 0 && total == set, nil
}
