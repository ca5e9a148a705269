package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kalambet/relay/internal/classify"
	"github.com/kalambet/relay/internal/dispatch"
	"github.com/kalambet/relay/internal/storage"
)

// InboundMessage is one message received from a user on any channel.
type InboundMessage struct {
	From     string `json:"from"` // phone number
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	IsAudio  bool   `json:"is_audio"`
	AudioURL string `json:"audio_url,omitempty"`
}

// InboundResult is what handling one inbound message produced.
type InboundResult struct {
	User           storage.User    `json:"user"`
	Classification classify.Result `json:"classification"`
	InstanceID     string          `json:"workflow_instance_id,omitempty"`
	Replied        bool            `json:"replied"`
}

// ErrUnknownSender is returned for inbound messages from a phone number
// with no registered user.
var ErrUnknownSender = errors.New("no user registered for sender")

// HandleInbound records an inbound message, classifies it, attaches it
// to the sender's latest active workflow instance if one exists, and
// sends the suggested auto-response unless the message requires human
// escalation.
func (e *Engine) HandleInbound(ctx context.Context, msg InboundMessage) (InboundResult, error) {
	user, err := e.store.GetUserByPhone(msg.From)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("inbound message from unknown sender", "from", msg.From, "channel", msg.Channel)
		return InboundResult{}, ErrUnknownSender
	}
	if err != nil {
		return InboundResult{}, fmt.Errorf("looking up sender: %w", err)
	}

	text := msg.Text
	if msg.IsAudio && e.transcriber != nil {
		tr, err := e.transcriber.Transcribe(ctx, msg.AudioURL, user.Language)
		if err != nil {
			slog.Error("transcription failed", "user", user.ID, "error", err)
		} else {
			text = tr.Text
		}
	}

	result := e.classifier.Classify(text, "", user.Name)

	var instanceID string
	inst, err := e.store.LatestActiveInstanceForUser(user.ID)
	switch {
	case err == nil:
		instanceID = inst.ID
	case errors.Is(err, storage.ErrNotFound):
	default:
		return InboundResult{}, fmt.Errorf("finding active instance: %w", err)
	}

	err = e.store.AppendConversation(storage.Conversation{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		InstanceID:       instanceID,
		MessageType:      storage.MessageInbound,
		Channel:          msg.Channel,
		Content:          text,
		Language:         user.Language,
		DetectedLanguage: result.Language,
		Intent:           result.Intent,
		Sentiment:        result.Sentiment,
		IsAudio:          msg.IsAudio,
		AudioURL:         msg.AudioURL,
		Status:           "received",
		CreatedAt:        e.now(),
	})
	if err != nil {
		return InboundResult{}, fmt.Errorf("recording inbound message: %w", err)
	}

	res := InboundResult{
		User:           user,
		Classification: result,
		InstanceID:     instanceID,
	}

	if result.RequiresEscalation {
		slog.Warn("inbound message requires escalation",
			"user", user.ID,
			"intent", result.Intent,
			"sentiment", result.Sentiment,
			"confidence", result.Confidence,
		)
		return res, nil
	}

	outcome := e.dispatcher.Send(ctx, dispatch.Message{
		Channel:   msg.Channel,
		Recipient: msg.From,
		Content:   result.SuggestedResponse,
		Language:  result.Language,
	})
	if outcome.Delivered {
		res.Replied = true
		err := e.store.AppendConversation(storage.Conversation{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			InstanceID:  instanceID,
			MessageType: storage.MessageOutbound,
			Channel:     msg.Channel,
			Content:     result.SuggestedResponse,
			Language:    result.Language,
			Status:      storage.NotificationSent,
			CreatedAt:   e.now(),
		})
		if err != nil {
			return res, fmt.Errorf("recording auto-response: %w", err)
		}
	}

	return res, nil
}
