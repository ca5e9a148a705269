package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalambet/relay/internal/speech"
)

// VoiceSender synthesizes the message and plays it to the recipient as
// a call. Call placement itself rides on the speech service; without a
// configured synthesizer the channel degrades to simulated delivery.
type VoiceSender struct {
	synth speech.Synthesizer
}

func NewVoiceSender(synth speech.Synthesizer) Sender {
	if synth == nil {
		slog.Warn("no speech synthesizer configured, using simulated voice sender")
		return Simulated{Channel: ChannelVoice}
	}
	return &VoiceSender{synth: synth}
}

func (s *VoiceSender) Send(ctx context.Context, msg Message) Outcome {
	syn, err := s.synth.Synthesize(ctx, msg.Content, msg.Language)
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("synthesizing speech: %v", err)}
	}

	slog.Info("voice message ready",
		"recipient", msg.Recipient,
		"duration", syn.Duration,
		"language", syn.Language,
	)
	return Outcome{Delivered: true, Detail: syn.AudioURL}
}
