package storage

import (
	"database/sql"
	"time"
)

// The ledger is append-only: conversations are never updated after
// insertion, and a notification supports exactly one status transition
// from pending to a terminal status.

func (s *Store) AppendConversation(c Conversation) error {
	_, err := s.db.Exec(`
		INSERT INTO conversations (id, user_id, workflow_instance_id, message_type, channel, content,
			language, detected_language, intent, sentiment, is_audio, audio_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, nullString(c.InstanceID), c.MessageType, c.Channel, c.Content,
		c.Language, c.DetectedLanguage, c.Intent, c.Sentiment, boolToInt(c.IsAudio),
		c.AudioURL, c.Status, formatTime(c.CreatedAt),
	)
	return err
}

// LatestInboundConversation returns the most recent inbound ledger entry
// correlated to a workflow instance. Used by check_response steps;
// ErrNotFound means "no reply yet". Ties on created_at resolve to the
// row inserted last.
func (s *Store) LatestInboundConversation(instanceID string) (Conversation, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, workflow_instance_id, message_type, channel, content,
			language, detected_language, intent, sentiment, is_audio, audio_url, status, created_at
		FROM conversations
		WHERE workflow_instance_id = ? AND message_type = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		instanceID, MessageInbound)
	return scanConversation(row)
}

func (s *Store) ListConversations(limit int) ([]Conversation, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, workflow_instance_id, message_type, channel, content,
			language, detected_language, intent, sentiment, is_audio, audio_url, status, created_at
		FROM conversations ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (s *Store) CreateNotification(n Notification) error {
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, user_id, template_id, channel, subject, content, status,
			scheduled_for, sent_at, error_message, workflow_instance_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.TemplateID, n.Channel, n.Subject, n.Content, n.Status,
		nullTime(n.ScheduledFor), nullTime(n.SentAt), n.ErrorMessage,
		nullString(n.InstanceID), formatTime(n.CreatedAt),
	)
	return err
}

// FinalizeNotification performs the single pending→terminal transition.
// ErrNotFound means the notification does not exist or was already
// finalized.
func (s *Store) FinalizeNotification(id, status, errMsg string, sentAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE notifications SET status = ?, error_message = ?, sent_at = ?
		WHERE id = ? AND status = ?`,
		status, errMsg, nullTime(sentAt), id, NotificationPending)
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

func (s *Store) GetNotification(id string) (Notification, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, template_id, channel, subject, content, status,
			scheduled_for, sent_at, error_message, workflow_instance_id, created_at
		FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

func (s *Store) ListNotifications(limit int) ([]Notification, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, template_id, channel, subject, content, status,
			scheduled_for, sent_at, error_message, workflow_instance_id, created_at
		FROM notifications ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// Analytics returns the aggregate counters consumed by the dashboard
// and the analytics endpoint.
func (s *Store) Analytics() (AnalyticsSnapshot, error) {
	var snap AnalyticsSnapshot
	counts := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&snap.TotalUsers, `SELECT COUNT(*) FROM users`, nil},
		{&snap.TotalNotifications, `SELECT COUNT(*) FROM notifications`, nil},
		{&snap.NotificationsSent, `SELECT COUNT(*) FROM notifications WHERE status IN (?, ?)`, []any{NotificationSent, NotificationDelivered}},
		{&snap.NotificationsFailed, `SELECT COUNT(*) FROM notifications WHERE status = ?`, []any{NotificationFailed}},
		{&snap.TotalConversations, `SELECT COUNT(*) FROM conversations`, nil},
		{&snap.ActiveWorkflows, `SELECT COUNT(*) FROM workflow_instances WHERE status = ?`, []any{InstanceInProgress}},
		{&snap.Escalations, `SELECT COUNT(*) FROM conversations WHERE sentiment IN (?, ?)`, []any{"confused", "negative"}},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query, c.args...).Scan(c.dest); err != nil {
			return AnalyticsSnapshot{}, err
		}
	}
	return snap, nil
}

func scanConversation(row rowScanner) (Conversation, error) {
	var c Conversation
	var instanceID sql.NullString
	var isAudio int
	var createdAt string
	err := row.Scan(&c.ID, &c.UserID, &instanceID, &c.MessageType, &c.Channel, &c.Content,
		&c.Language, &c.DetectedLanguage, &c.Intent, &c.Sentiment, &isAudio, &c.AudioURL,
		&c.Status, &createdAt)
	if err == sql.ErrNoRows {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	c.InstanceID = instanceID.String
	c.IsAudio = isAudio != 0
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	var scheduledFor, sentAt, instanceID sql.NullString
	var createdAt string
	err := row.Scan(&n.ID, &n.UserID, &n.TemplateID, &n.Channel, &n.Subject, &n.Content, &n.Status,
		&scheduledFor, &sentAt, &n.ErrorMessage, &instanceID, &createdAt)
	if err == sql.ErrNoRows {
		return Notification{}, ErrNotFound
	}
	if err != nil {
		return Notification{}, err
	}
	n.InstanceID = instanceID.String
	if n.ScheduledFor, err = parseNullTime(scheduledFor); err != nil {
		return Notification{}, err
	}
	if n.SentAt, err = parseNullTime(sentAt); err != nil {
		return Notification{}, err
	}
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// nullString converts an empty string to NULL for weak-reference columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
