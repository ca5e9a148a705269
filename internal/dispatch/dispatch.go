// Package dispatch is the boundary between the workflow engine and the
// real message transports. Senders never return errors to callers:
// transport failures are converted into a failed Outcome so the engine
// can record a failed notification deterministically.
package dispatch

import (
	"context"
	"fmt"
)

// Channels the hub can deliver on.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelVoice    = "voice"
)

// Message is one outbound delivery request.
type Message struct {
	Channel   string
	Recipient string
	Subject   string
	Content   string
	Language  string
}

// Outcome is the result of a dispatch attempt. Simulated outcomes are
// reported as delivered so workflows remain testable without live
// credentials.
type Outcome struct {
	Delivered bool
	Simulated bool
	Detail    string
}

// Sender transmits a message on one channel.
type Sender interface {
	Send(ctx context.Context, msg Message) Outcome
}

// Router dispatches by channel, one Sender per channel. Channels with
// no registered sender fail with a typed outcome rather than a fault.
type Router struct {
	senders map[string]Sender
}

func NewRouter() *Router {
	return &Router{senders: make(map[string]Sender)}
}

// Register binds a sender to a channel, replacing any previous binding.
func (r *Router) Register(channel string, s Sender) {
	r.senders[channel] = s
}

func (r *Router) Send(ctx context.Context, msg Message) Outcome {
	s, ok := r.senders[msg.Channel]
	if !ok {
		return Outcome{Detail: fmt.Sprintf("no sender registered for channel %q", msg.Channel)}
	}
	return s.Send(ctx, msg)
}
