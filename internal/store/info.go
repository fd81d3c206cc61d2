package store

import "context"

// Info summarizes the database for the info endpoint.
type Info struct {
	SchemaVersion int
	TaskCounts    map[string]int
	TotalTasks    int
}

// StoreInfo returns schema version and per-status task counts.
func (s *Store) StoreInfo(ctx context.Context) (*Info, error) {
	info := &Info{TaskCounts: map[string]int{}}

	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&info.SchemaVersion)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		info.TaskCounts[status] = count
		info.TotalTasks += count
	}
	return info, rows.Err()
}
