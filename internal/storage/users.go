package storage

import (
	"database/sql"
)

func (s *Store) CreateUser(u User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, email, phone, role, language, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Phone, u.Role, u.Language, u.Status,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	return err
}

func (s *Store) GetUser(id string) (User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, email, phone, role, language, status, created_at, updated_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByPhone resolves the sender of an inbound channel message.
func (s *Store) GetUserByPhone(phone string) (User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, email, phone, role, language, status, created_at, updated_at
		FROM users WHERE phone = ?`, phone)
	return scanUser(row)
}

func (s *Store) ListUsers(limit int) ([]User, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, phone, role, language, status, created_at, updated_at
		FROM users ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Language, &u.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return User{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}
