package storage

import (
	"database/sql"
)

func (s *Store) CreateTemplate(t Template) error {
	variables := t.Variables
	if variables == "" {
		variables = "[]"
	}
	_, err := s.db.Exec(`
		INSERT INTO templates (id, name, type, language, content, subject, variables, channel, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Type, t.Language, t.Content, t.Subject, variables, t.Channel,
		formatTime(t.CreatedAt),
	)
	return err
}

func (s *Store) GetTemplate(id string) (Template, error) {
	row := s.db.QueryRow(`
		SELECT id, name, type, language, content, subject, variables, channel, created_at
		FROM templates WHERE id = ?`, id)
	return scanTemplate(row)
}

func (s *Store) ListTemplates(limit int) ([]Template, error) {
	rows, err := s.db.Query(`
		SELECT id, name, type, language, content, subject, variables, channel, created_at
		FROM templates ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func scanTemplate(row rowScanner) (Template, error) {
	var t Template
	var createdAt string
	err := row.Scan(&t.ID, &t.Name, &t.Type, &t.Language, &t.Content, &t.Subject, &t.Variables, &t.Channel, &createdAt)
	if err == sql.ErrNoRows {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return Template{}, err
	}
	return t, nil
}
