package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Workflow instance statuses.
const (
	InstanceInProgress = "in_progress"
	InstanceCompleted  = "completed"
	InstanceFailed     = "failed"
	InstancePaused     = "paused"
)

// Notification statuses. A notification is created pending and moves to
// exactly one terminal status after a dispatch attempt.
const (
	NotificationPending   = "pending"
	NotificationSent      = "sent"
	NotificationDelivered = "delivered"
	NotificationFailed    = "failed"
)

// Conversation message directions.
const (
	MessageInbound  = "inbound"
	MessageOutbound = "outbound"
)

// Workflow step action kinds.
const (
	ActionSendMessage   = "send_message"
	ActionWait          = "wait"
	ActionCheckResponse = "check_response"
	ActionEscalate      = "escalate"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Language  string    `json:"language"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Template is immutable reference data; content may contain {placeholder}
// tokens resolved against user fields at send time.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Language  string    `json:"language"`
	Content   string    `json:"content"`
	Subject   string    `json:"subject,omitempty"`
	Variables string    `json:"variables"` // JSON array stored as text
	Channel   string    `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
}

type Workflow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Description  string    `json:"description,omitempty"`
	TriggerType  string    `json:"trigger_type"` // "signup", "scheduled", "manual"
	TriggerValue string    `json:"trigger_value,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkflowStep belongs to exactly one workflow and is ordered by
// StepNumber (positive, unique per workflow). NextOnSuccess and
// NextOnFailure of 0 mean "fall through to StepNumber+1"; WaitDuration
// of 0 on a wait step means the default of one hour.
type WorkflowStep struct {
	ID            string `json:"id"`
	WorkflowID    string `json:"workflow_id"`
	StepNumber    int    `json:"step_number"`
	ActionType    string `json:"action_type"`
	TemplateID    string `json:"template_id,omitempty"`
	WaitDuration  int    `json:"wait_duration,omitempty"` // seconds
	NextOnSuccess int    `json:"next_step_on_success,omitempty"`
	NextOnFailure int    `json:"next_step_on_failure,omitempty"`
}

// WorkflowInstance is one running execution of a workflow for a user.
// CompletedAt is zero until the instance completes.
type WorkflowInstance struct {
	ID          string    `json:"id"`
	WorkflowID  string    `json:"workflow_id"`
	UserID      string    `json:"user_id"`
	CurrentStep int       `json:"current_step"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Terminal reports whether the instance is ineligible for automatic
// progression.
func (i WorkflowInstance) Terminal() bool {
	return i.Status != InstanceInProgress
}

type Notification struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TemplateID   string    `json:"template_id"`
	Channel      string    `json:"channel"`
	Subject      string    `json:"subject,omitempty"`
	Content      string    `json:"content"`
	Status       string    `json:"status"`
	ScheduledFor time.Time `json:"scheduled_for,omitzero"`
	SentAt       time.Time `json:"sent_at,omitzero"`
	ErrorMessage string    `json:"error_message,omitempty"`
	InstanceID   string    `json:"workflow_instance_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Conversation is one append-only ledger entry for an inbound or
// outbound message. Never updated after insertion.
type Conversation struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	InstanceID       string    `json:"workflow_instance_id,omitempty"`
	MessageType      string    `json:"message_type"`
	Channel          string    `json:"channel"`
	Content          string    `json:"content"`
	Language         string    `json:"language,omitempty"`
	DetectedLanguage string    `json:"detected_language,omitempty"`
	Intent           string    `json:"intent,omitempty"`
	Sentiment        string    `json:"sentiment,omitempty"`
	IsAudio          bool      `json:"is_audio"`
	AudioURL         string    `json:"audio_url,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// AnalyticsSnapshot holds aggregate counters for the dashboard.
type AnalyticsSnapshot struct {
	TotalUsers          int `json:"total_users"`
	TotalNotifications  int `json:"total_notifications"`
	NotificationsSent   int `json:"notifications_sent"`
	NotificationsFailed int `json:"notifications_failed"`
	TotalConversations  int `json:"total_conversations"`
	ActiveWorkflows     int `json:"active_workflows"`
	Escalations         int `json:"escalations"`
}
