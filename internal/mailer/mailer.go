// Package mailer formats chat notifications and sends them by email.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/edgard/chatrelay/internal/config"
	"github.com/edgard/chatrelay/internal/database"
	apperrors "github.com/edgard/chatrelay/internal/errors"
	"github.com/edgard/chatrelay/internal/metrics"
)

// Message is a plain text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// mailMsg converts m into a go-mail message: UTF-8, quoted-printable
// plain text body, encoded subject.
func (m Message) mailMsg(date time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", m.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetDateWithValue(date)
	msg.SetBodyString(mail.TypeTextPlain, strings.ReplaceAll(m.Body, "\r\n", "\n"))
	return msg, nil
}

// Bytes renders m as an RFC 5322 message.
func (m Message) Bytes(date time.Time) ([]byte, error) {
	msg, err := m.mailMsg(date)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}
	return buf.Bytes(), nil
}

// Transport delivers a Message. Implementations do not retry.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Sender appends the country postscript to a notification body and hands
// the resulting mail to a Transport.
type Sender struct {
	transport   Transport
	from        string
	to          string
	postscripts map[string]string
	timeout     time.Duration
	logger      *slog.Logger
}

// NewSender creates a Sender using the addresses and postscripts of cfg.
func NewSender(cfg config.MailConfig, transport Transport, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		transport:   transport,
		from:        cfg.From,
		to:          cfg.To,
		postscripts: cfg.Postscripts,
		timeout:     cfg.Timeout,
		logger:      logger.With("component", "mailer"),
	}
}

// Send mails body about a message in chatName. The call blocks until the
// transport returns; any failure is a TransportError.
func (s *Sender) Send(ctx context.Context, body, chatName, country string) error {
	msg := Message{
		From:    s.from,
		To:      s.to,
		Subject: Subject(chatName),
		Body:    body + s.Postscript(country),
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	provider := s.transport.Name()
	start := time.Now()
	err := s.transport.Send(ctx, msg)
	metrics.MailLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	metrics.MailSends.WithLabelValues(provider, metrics.ResultLabel(err)).Inc()

	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to send notification",
			"provider", provider, "chat_name", chatName, "country", country, "error", err)
		if apperrors.IsTransport(err) {
			return err
		}
		return apperrors.NewTransportError(fmt.Sprintf("failed to send notification via %s", provider), err)
	}

	s.logger.InfoContext(ctx, "Notification sent",
		"provider", provider, "chat_name", chatName, "country", country, "duration", time.Since(start))
	return nil
}

// Postscript returns the footer for country: its own entry if configured,
// otherwise the international one.
func (s *Sender) Postscript(country string) string {
	if ps, ok := s.postscripts[country]; ok {
		return ps
	}
	return s.postscripts[config.PostscriptInternational]
}

// Subject returns the mail subject for a chat.
func Subject(chatName string) string {
	return fmt.Sprintf("Сообщение в Telegram-чате %s.", chatName)
}

// NotificationBody describes a chat message for the support inbox.
func NotificationBody(chatName string, updateID int64, username, text string) string {
	return fmt.Sprintf(
		"Поступило обращение от НКО в чате \"%s\". \n"+
			"Обновление № %d: пользователь %s написал: \n"+
			"\n%s.\n",
		chatName, updateID, username, text)
}

// FormatNotification builds the notification body of a stored message.
func FormatNotification(m *database.Message) string {
	return NotificationBody(m.ChatName, m.UpdateID, m.Username, m.Text)
}

// Notify mails the notification of a stored message.
func (s *Sender) Notify(ctx context.Context, m *database.Message) error {
	return s.Send(ctx, FormatNotification(m), m.ChatName, m.Country)
}
