package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPConfig carries the transport settings for the email sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender delivers messages over SMTP.
type EmailSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender creates an SMTP sender, or the simulated sender when
// host or credentials are not configured.
func NewEmailSender(cfg SMTPConfig) Sender {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		slog.Warn("smtp credentials missing, using simulated sender")
		return Simulated{Channel: ChannelEmail}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &EmailSender{cfg: cfg, send: smtp.SendMail}
}

func (s *EmailSender) Send(ctx context.Context, msg Message) Outcome {
	subject := msg.Subject
	if subject == "" {
		subject = "Notification"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.Content)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := s.send(addr, auth, s.cfg.From, []string{msg.Recipient}, []byte(b.String())); err != nil {
		return Outcome{Detail: fmt.Sprintf("smtp send: %v", err)}
	}
	return Outcome{Delivered: true}
}
