package storage

import (
	"database/sql"
	"time"
)

func (s *Store) CreateInstance(i WorkflowInstance) error {
	_, err := s.db.Exec(`
		INSERT INTO workflow_instances (id, workflow_id, user_id, current_step, status, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.WorkflowID, i.UserID, i.CurrentStep, i.Status,
		formatTime(i.StartedAt), nullTime(i.CompletedAt),
	)
	return err
}

func (s *Store) GetInstance(id string) (WorkflowInstance, error) {
	row := s.db.QueryRow(`
		SELECT id, workflow_id, user_id, current_step, status, started_at, completed_at
		FROM workflow_instances WHERE id = ?`, id)
	return scanInstance(row)
}

// ListActiveInstances returns in-progress instances, newest first.
func (s *Store) ListActiveInstances(limit int) ([]WorkflowInstance, error) {
	rows, err := s.db.Query(`
		SELECT id, workflow_id, user_id, current_step, status, started_at, completed_at
		FROM workflow_instances WHERE status = ? ORDER BY started_at DESC LIMIT ?`,
		InstanceInProgress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []WorkflowInstance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, i)
	}
	return instances, rows.Err()
}

// LatestActiveInstanceForUser returns the most recently started
// in-progress instance for a user, used to correlate inbound messages.
func (s *Store) LatestActiveInstanceForUser(userID string) (WorkflowInstance, error) {
	row := s.db.QueryRow(`
		SELECT id, workflow_id, user_id, current_step, status, started_at, completed_at
		FROM workflow_instances WHERE user_id = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1`, userID, InstanceInProgress)
	return scanInstance(row)
}

// AdvanceInstance moves the step cursor with an optimistic check: the
// update applies only if the instance is still in progress at fromStep.
// ErrNotFound signals a lost race or a terminal instance.
func (s *Store) AdvanceInstance(id string, fromStep, toStep int) error {
	res, err := s.db.Exec(`
		UPDATE workflow_instances SET current_step = ?
		WHERE id = ? AND current_step = ? AND status = ?`,
		toStep, id, fromStep, InstanceInProgress)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteInstance marks an in-progress instance completed and stamps
// completed_at. Terminal instances are left untouched.
func (s *Store) CompleteInstance(id string, completedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE workflow_instances SET status = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		InstanceCompleted, formatTime(completedAt), id, InstanceInProgress)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetInstanceStatus force-sets an instance status (pause on escalation,
// external cancellation).
func (s *Store) SetInstanceStatus(id, status string) error {
	res, err := s.db.Exec(`UPDATE workflow_instances SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInstance(row rowScanner) (WorkflowInstance, error) {
	var i WorkflowInstance
	var startedAt string
	var completedAt sql.NullString
	err := row.Scan(&i.ID, &i.WorkflowID, &i.UserID, &i.CurrentStep, &i.Status, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return WorkflowInstance{}, ErrNotFound
	}
	if err != nil {
		return WorkflowInstance{}, err
	}
	if i.StartedAt, err = parseTime(startedAt); err != nil {
		return WorkflowInstance{}, err
	}
	if i.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return WorkflowInstance{}, err
	}
	return i, nil
}
