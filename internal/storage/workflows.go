package storage

import (
	"database/sql"
	"fmt"
)

// CreateWorkflow inserts a workflow definition together with its ordered
// steps in one transaction. Definitions are immutable after creation;
// SetWorkflowActive is the only mutation path.
func (s *Store) CreateWorkflow(w Workflow, steps []WorkflowStep) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning workflow transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO workflows (id, name, type, description, trigger_type, trigger_value, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Type, w.Description, w.TriggerType, w.TriggerValue, boolToInt(w.IsActive),
		formatTime(w.CreatedAt),
	); err != nil {
		return err
	}

	for _, step := range steps {
		if _, err := tx.Exec(`
			INSERT INTO workflow_steps (id, workflow_id, step_number, action_type, template_id, wait_duration, next_step_on_success, next_step_on_failure)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			step.ID, w.ID, step.StepNumber, step.ActionType, step.TemplateID,
			step.WaitDuration, step.NextOnSuccess, step.NextOnFailure,
		); err != nil {
			return fmt.Errorf("inserting step %d: %w", step.StepNumber, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetWorkflow(id string) (Workflow, error) {
	row := s.db.QueryRow(`
		SELECT id, name, type, description, trigger_type, trigger_value, is_active, created_at
		FROM workflows WHERE id = ?`, id)
	return scanWorkflow(row)
}

func (s *Store) ListWorkflows() ([]Workflow, error) {
	rows, err := s.db.Query(`
		SELECT id, name, type, description, trigger_type, trigger_value, is_active, created_at
		FROM workflows ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

func (s *Store) SetWorkflowActive(id string, active bool) error {
	res, err := s.db.Exec(`UPDATE workflows SET is_active = ? WHERE id = ?`, boolToInt(active), id)
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

// GetStep looks up a step by (workflow_id, step_number). ErrNotFound is a
// valid outcome for the engine: a missing step number signals workflow
// completion, not a fault.
func (s *Store) GetStep(workflowID string, stepNumber int) (WorkflowStep, error) {
	var step WorkflowStep
	err := s.db.QueryRow(`
		SELECT id, workflow_id, step_number, action_type, template_id, wait_duration, next_step_on_success, next_step_on_failure
		FROM workflow_steps WHERE workflow_id = ? AND step_number = ?`,
		workflowID, stepNumber,
	).Scan(&step.ID, &step.WorkflowID, &step.StepNumber, &step.ActionType, &step.TemplateID,
		&step.WaitDuration, &step.NextOnSuccess, &step.NextOnFailure)
	if err == sql.ErrNoRows {
		return WorkflowStep{}, ErrNotFound
	}
	if err != nil {
		return WorkflowStep{}, err
	}
	return step, nil
}

// ListSteps returns all steps of a workflow ordered by step_number.
func (s *Store) ListSteps(workflowID string) ([]WorkflowStep, error) {
	rows, err := s.db.Query(`
		SELECT id, workflow_id, step_number, action_type, template_id, wait_duration, next_step_on_success, next_step_on_failure
		FROM workflow_steps WHERE workflow_id = ? ORDER BY step_number ASC`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []WorkflowStep
	for rows.Next() {
		var step WorkflowStep
		if err := rows.Scan(&step.ID, &step.WorkflowID, &step.StepNumber, &step.ActionType, &step.TemplateID,
			&step.WaitDuration, &step.NextOnSuccess, &step.NextOnFailure); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

func scanWorkflow(row rowScanner) (Workflow, error) {
	var w Workflow
	var active int
	var createdAt string
	err := row.Scan(&w.ID, &w.Name, &w.Type, &w.Description, &w.TriggerType, &w.TriggerValue, &active, &createdAt)
	if err == sql.ErrNoRows {
		return Workflow{}, ErrNotFound
	}
	if err != nil {
		return Workflow{}, err
	}
	w.IsActive = active != 0
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return Workflow{}, err
	}
	return w, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
