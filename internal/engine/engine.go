// Package engine advances workflow instances through their steps. Each
// instance is a cursor over the steps of one workflow for one user;
// the engine executes the step under the cursor, decides the branch
// target from the step's outcome, and moves the cursor with a
// compare-and-swap so concurrent invocations cannot double-execute.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/relay/internal/classify"
	"github.com/kalambet/relay/internal/dispatch"
	"github.com/kalambet/relay/internal/speech"
	"github.com/kalambet/relay/internal/storage"
)

// DefaultWaitDuration applies to wait steps that do not set their own.
const DefaultWaitDuration = time.Hour

var (
	// ErrTerminalState is returned when execution is requested on an
	// instance that is completed, failed or paused.
	ErrTerminalState = errors.New("workflow instance is in a terminal state")

	// ErrWorkflowInactive is returned when starting a workflow that has
	// been deactivated.
	ErrWorkflowInactive = errors.New("workflow is not active")

	// ErrNoStep is returned when the instance cursor points at a step
	// that does not exist. Progression completes an instance before its
	// cursor can run off the end, so this only happens for instances
	// created against a workflow with no step at their cursor.
	ErrNoStep = errors.New("no step at the instance cursor")
)

// StepResult describes what executing one step did.
type StepResult struct {
	Step      storage.WorkflowStep `json:"step"`
	Succeeded bool                 `json:"succeeded"`
	Detail    string               `json:"detail,omitempty"`
}

// ResumePayload is the job payload for deferred re-invocation after a
// wait step.
type ResumePayload struct {
	InstanceID string `json:"instance_id"`
}

// Engine executes workflow steps against the store and the outbound
// dispatcher. Safe for concurrent use; invocations on the same
// instance are serialized.
type Engine struct {
	store       *storage.Store
	dispatcher  *dispatch.Router
	classifier  *classify.Classifier
	transcriber speech.Transcriber
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires an engine. transcriber may be nil; audio messages then keep
// whatever caption text the channel delivered.
func New(store *storage.Store, dispatcher *dispatch.Router, classifier *classify.Classifier, transcriber speech.Transcriber) *Engine {
	return &Engine{
		store:       store,
		dispatcher:  dispatcher,
		classifier:  classifier,
		transcriber: transcriber,
		now:         func() time.Time { return time.Now().UTC() },
		locks:       make(map[string]*sync.Mutex),
	}
}

func (e *Engine) instanceLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// Start creates a new in-progress instance of the workflow for the
// user, with the cursor at step 1. It does not execute the first step.
func (e *Engine) Start(ctx context.Context, workflowID, userID string) (storage.WorkflowInstance, error) {
	w, err := e.store.GetWorkflow(workflowID)
	if err != nil {
		return storage.WorkflowInstance{}, fmt.Errorf("loading workflow: %w", err)
	}
	if !w.IsActive {
		return storage.WorkflowInstance{}, ErrWorkflowInactive
	}
	if _, err := e.store.GetUser(userID); err != nil {
		return storage.WorkflowInstance{}, fmt.Errorf("loading user: %w", err)
	}

	inst := storage.WorkflowInstance{
		ID:          uuid.NewString(),
		WorkflowID:  workflowID,
		UserID:      userID,
		CurrentStep: 1,
		Status:      storage.InstanceInProgress,
		StartedAt:   e.now(),
	}
	if err := e.store.CreateInstance(inst); err != nil {
		return storage.WorkflowInstance{}, fmt.Errorf("creating instance: %w", err)
	}

	slog.Info("workflow started", "instance", inst.ID, "workflow", w.Name, "user", userID)
	return inst, nil
}

// ExecuteNext runs the step under the instance's cursor and advances
// the cursor. Terminal instances return ErrTerminalState; a cursor
// pointing at a missing step returns ErrNoStep without mutating state.
func (e *Engine) ExecuteNext(ctx context.Context, instanceID string) (StepResult, error) {
	lock := e.instanceLock(instanceID)
	lock.Lock()
	defer lock.Unlock()

	inst, err := e.store.GetInstance(instanceID)
	if err != nil {
		return StepResult{}, fmt.Errorf("loading instance: %w", err)
	}
	if inst.Terminal() {
		return StepResult{}, ErrTerminalState
	}

	step, err := e.store.GetStep(inst.WorkflowID, inst.CurrentStep)
	if errors.Is(err, storage.ErrNotFound) {
		return StepResult{}, ErrNoStep
	}
	if err != nil {
		return StepResult{}, fmt.Errorf("loading step: %w", err)
	}

	res, err := e.executeStep(ctx, inst, step)
	if err != nil {
		return res, err
	}

	// The step may have paused or completed the instance; a terminal
	// instance keeps its cursor where it stopped.
	inst, err = e.store.GetInstance(instanceID)
	if err != nil {
		return res, fmt.Errorf("reloading instance: %w", err)
	}
	if inst.Terminal() {
		return res, nil
	}

	if err := e.progress(inst, step, res.Succeeded); err != nil {
		return res, err
	}
	return res, nil
}

// executeStep performs the step's action. Only escalate mutates the
// instance itself; the other actions record their effects and report
// success or failure for branch selection.
func (e *Engine) executeStep(ctx context.Context, inst storage.WorkflowInstance, step storage.WorkflowStep) (StepResult, error) {
	res := StepResult{Step: step}

	switch step.ActionType {
	case storage.ActionSendMessage:
		outcome, err := e.sendTemplate(ctx, inst, step)
		if err != nil {
			return res, err
		}
		res.Succeeded = outcome.Delivered
		res.Detail = outcome.Detail

	case storage.ActionWait:
		wait := time.Duration(step.WaitDuration) * time.Second
		if wait <= 0 {
			wait = DefaultWaitDuration
		}
		payload, err := json.Marshal(ResumePayload{InstanceID: inst.ID})
		if err != nil {
			return res, fmt.Errorf("encoding resume payload: %w", err)
		}
		err = e.store.EnqueueJob(storage.Job{
			ID:          uuid.NewString(),
			Type:        storage.JobWorkflowResume,
			PayloadJSON: string(payload),
			RunAfter:    e.now().Add(wait),
		})
		if err != nil {
			return res, fmt.Errorf("scheduling resume: %w", err)
		}
		res.Succeeded = true
		res.Detail = fmt.Sprintf("resume scheduled in %s", wait)

	case storage.ActionCheckResponse:
		_, err := e.store.LatestInboundConversation(inst.ID)
		switch {
		case err == nil:
			res.Succeeded = true
			res.Detail = "response received"
		case errors.Is(err, storage.ErrNotFound):
			res.Succeeded = false
			res.Detail = "no response received"
		default:
			return res, fmt.Errorf("checking for response: %w", err)
		}

	case storage.ActionEscalate:
		if err := e.store.SetInstanceStatus(inst.ID, storage.InstancePaused); err != nil {
			return res, fmt.Errorf("pausing instance: %w", err)
		}
		slog.Warn("workflow escalated", "instance", inst.ID, "step", step.StepNumber)
		res.Succeeded = false
		res.Detail = "escalated to human operator"

	default:
		slog.Warn("unknown action type", "instance", inst.ID, "step", step.StepNumber, "action", step.ActionType)
		res.Succeeded = false
		res.Detail = fmt.Sprintf("unknown action type %q", step.ActionType)
	}

	return res, nil
}

// progress moves the cursor to the branch target implied by the step
// outcome, or completes the instance when the target step does not
// exist. The move is a compare-and-swap on the current cursor.
func (e *Engine) progress(inst storage.WorkflowInstance, step storage.WorkflowStep, succeeded bool) error {
	next := step.NextOnSuccess
	if !succeeded {
		next = step.NextOnFailure
	}
	if next == 0 {
		next = step.StepNumber + 1
	}

	_, err := e.store.GetStep(inst.WorkflowID, next)
	if errors.Is(err, storage.ErrNotFound) {
		if err := e.store.CompleteInstance(inst.ID, e.now()); err != nil {
			return fmt.Errorf("completing instance: %w", err)
		}
		slog.Info("workflow completed", "instance", inst.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading next step: %w", err)
	}

	if err := e.store.AdvanceInstance(inst.ID, inst.CurrentStep, next); err != nil {
		return fmt.Errorf("advancing instance: %w", err)
	}
	return nil
}

// sendTemplate renders the step's template for the instance's user,
// records a pending notification, dispatches it and finalizes the
// notification from the dispatch outcome. A missing user or template
// fails the step closed; transport failures surface as an undelivered
// outcome. Neither is an error.
func (e *Engine) sendTemplate(ctx context.Context, inst storage.WorkflowInstance, step storage.WorkflowStep) (dispatch.Outcome, error) {
	user, err := e.store.GetUser(inst.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return dispatch.Outcome{Detail: "user not found"}, nil
	}
	if err != nil {
		return dispatch.Outcome{}, fmt.Errorf("loading user: %w", err)
	}
	tmpl, err := e.store.GetTemplate(step.TemplateID)
	if errors.Is(err, storage.ErrNotFound) {
		return dispatch.Outcome{Detail: "template not found"}, nil
	}
	if err != nil {
		return dispatch.Outcome{}, fmt.Errorf("loading template: %w", err)
	}

	content := RenderTemplate(tmpl.Content, user)
	subject := RenderTemplate(tmpl.Subject, user)

	n := storage.Notification{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		TemplateID: tmpl.ID,
		Channel:    tmpl.Channel,
		Subject:    subject,
		Content:    content,
		Status:     storage.NotificationPending,
		InstanceID: inst.ID,
		CreatedAt:  e.now(),
	}
	if err := e.store.CreateNotification(n); err != nil {
		return dispatch.Outcome{}, fmt.Errorf("creating notification: %w", err)
	}

	outcome := e.dispatcher.Send(ctx, dispatch.Message{
		Channel:   tmpl.Channel,
		Recipient: recipientFor(tmpl.Channel, user),
		Subject:   subject,
		Content:   content,
		Language:  tmpl.Language,
	})

	status := storage.NotificationFailed
	errMsg := outcome.Detail
	if outcome.Delivered {
		status = storage.NotificationSent
		errMsg = ""
	}
	if err := e.store.FinalizeNotification(n.ID, status, errMsg, e.now()); err != nil {
		return outcome, fmt.Errorf("finalizing notification: %w", err)
	}

	if outcome.Delivered {
		err := e.store.AppendConversation(storage.Conversation{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			InstanceID:  inst.ID,
			MessageType: storage.MessageOutbound,
			Channel:     tmpl.Channel,
			Content:     content,
			Language:    tmpl.Language,
			Status:      storage.NotificationSent,
			CreatedAt:   e.now(),
		})
		if err != nil {
			return outcome, fmt.Errorf("recording outbound message: %w", err)
		}
	}

	return outcome, nil
}

// SendDirect delivers one template to one user outside of any workflow.
// The returned notification carries the terminal status of the attempt.
func (e *Engine) SendDirect(ctx context.Context, userID, templateID string) (storage.Notification, error) {
	user, err := e.store.GetUser(userID)
	if err != nil {
		return storage.Notification{}, fmt.Errorf("loading user: %w", err)
	}
	tmpl, err := e.store.GetTemplate(templateID)
	if err != nil {
		return storage.Notification{}, fmt.Errorf("loading template: %w", err)
	}

	content := RenderTemplate(tmpl.Content, user)
	subject := RenderTemplate(tmpl.Subject, user)

	n := storage.Notification{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		TemplateID: tmpl.ID,
		Channel:    tmpl.Channel,
		Subject:    subject,
		Content:    content,
		Status:     storage.NotificationPending,
		CreatedAt:  e.now(),
	}
	if err := e.store.CreateNotification(n); err != nil {
		return storage.Notification{}, fmt.Errorf("creating notification: %w", err)
	}

	outcome := e.dispatcher.Send(ctx, dispatch.Message{
		Channel:   tmpl.Channel,
		Recipient: recipientFor(tmpl.Channel, user),
		Subject:   subject,
		Content:   content,
		Language:  tmpl.Language,
	})

	status := storage.NotificationFailed
	errMsg := outcome.Detail
	if outcome.Delivered {
		status = storage.NotificationSent
		errMsg = ""
	}
	if err := e.store.FinalizeNotification(n.ID, status, errMsg, e.now()); err != nil {
		return storage.Notification{}, fmt.Errorf("finalizing notification: %w", err)
	}

	return e.store.GetNotification(n.ID)
}

// recipientFor picks the user's address for the channel.
func recipientFor(channel string, user storage.User) string {
	if channel == dispatch.ChannelEmail {
		return user.Email
	}
	return user.Phone
}

// RenderTemplate substitutes {placeholder} tokens with user fields.
// Unknown placeholders are left intact.
func RenderTemplate(content string, user storage.User) string {
	r := strings.NewReplacer(
		"{name}", user.Name,
		"{email}", user.Email,
		"{phone}", user.Phone,
		"{role}", user.Role,
	)
	return r.Replace(content)
}
