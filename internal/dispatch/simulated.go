package dispatch

import (
	"context"
	"log/slog"
)

// Simulated is the no-credentials sender: it reports success without
// touching the network. Selected whenever a channel's transport is not
// configured, and used as the default implementation in tests.
type Simulated struct {
	Channel string
}

func (s Simulated) Send(ctx context.Context, msg Message) Outcome {
	slog.Info("simulated send",
		"channel", msg.Channel,
		"recipient", msg.Recipient,
		"bytes", len(msg.Content),
	)
	return Outcome{Delivered: true, Simulated: true, Detail: "simulated delivery"}
}
