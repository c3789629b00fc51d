// Package relay turns inbound chat messages into dispositions: it decides
// whether a message is mailed now, deferred until its country's working
// window opens, or suppressed as a follow-up, and flushes deferred messages.
package relay

import (
	"context"
	"strings"
	"time"

	"github.com/edgard/chatrelay/internal/database"
	apperrors "github.com/edgard/chatrelay/internal/errors"
	"github.com/edgard/chatrelay/internal/hours"
)

// Event is one inbound chat message as delivered by the chat adapter.
type Event struct {
	UpdateID  int64
	MessageID int64
	ChatTitle string
	Username  string
	Text      string
	Timestamp time.Time
}

// Validate checks the fields every decision depends on.
func (e Event) Validate() error {
	switch {
	case e.UpdateID <= 0:
		return apperrors.NewValidationError("event has no update id", nil)
	case strings.TrimSpace(e.ChatTitle) == "":
		return apperrors.NewValidationError("event has no chat title", nil)
	case e.Timestamp.IsZero():
		return apperrors.NewValidationError("event has no timestamp", nil)
	}
	return nil
}

// Notifier mails the notification of a stored message.
type Notifier interface {
	Notify(ctx context.Context, m *database.Message) error
}

// ParseCountry extracts the country tag of a chat title: the text between
// the first '[' and the following ']', with taxiMarker removed and spaces
// trimmed. Titles without a tag, or with a tag the resolver does not know,
// map to the resolver's default country.
func ParseCountry(title, taxiMarker string, resolver *hours.Resolver) string {
	_, rest, ok := strings.Cut(title, "[")
	if !ok {
		return resolver.Default()
	}
	tag, _, ok := strings.Cut(rest, "]")
	if !ok {
		return resolver.Default()
	}
	if taxiMarker != "" {
		tag = replaceFold(tag, taxiMarker, "")
	}
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if !resolver.Has(tag) {
		return resolver.Default()
	}
	return tag
}

func replaceFold(s, old, repl string) string {
	lower, lowerOld := strings.ToLower(s), strings.ToLower(old)
	if len(lower) != len(s) {
		// Case folding changed byte lengths; fall back to an exact match.
		return strings.ReplaceAll(s, old, repl)
	}
	var b strings.Builder
	for {
		i := strings.Index(lower, lowerOld)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(repl)
		s, lower = s[i+len(lowerOld):], lower[i+len(lowerOld):]
	}
}
