package relay

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/chatrelay/internal/database"
	"github.com/edgard/chatrelay/internal/hours"
	"github.com/edgard/chatrelay/internal/metrics"
)

// Decision is the outcome of one inbound event. The caller owns any
// follow-up side effect, such as replying to a deferred message.
type Decision struct {
	Record      *database.Message
	Disposition database.Disposition
	Window      hours.Window
	// Previous is the earlier message of the same chat and user, if any.
	Previous *database.Message
	// SendErr is the notification error of a sent message. It never
	// changes the disposition.
	SendErr error
}

// Classify maps a message to its disposition. A message less than
// dedupWindow after the previous one of the same chat and user is
// suppressed; otherwise it is sent inside the window and deferred outside.
func Classify(receivedAt time.Time, previous *database.Message, window hours.Window, dedupWindow time.Duration) database.Disposition {
	if previous != nil && receivedAt.Sub(previous.ReceivedAt) < dedupWindow {
		return database.DispositionSuppressed
	}
	if window.Contains(receivedAt) {
		return database.DispositionSent
	}
	return database.DispositionDeferred
}

// Engine decides, persists, and (for sent messages) notifies, once per event.
type Engine struct {
	store       database.Store
	resolver    *hours.Resolver
	notifier    Notifier
	dedupWindow time.Duration
	taxiMarker  string
	logger      *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(store database.Store, resolver *hours.Resolver, notifier Notifier, dedupWindow time.Duration, taxiMarker string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:       store,
		resolver:    resolver,
		notifier:    notifier,
		dedupWindow: dedupWindow,
		taxiMarker:  taxiMarker,
		logger:      logger.With("component", "decision_engine"),
	}
}

// Decide records ev with its disposition. The previous-message lookup and
// the insert share one store transaction. A sent message is mailed after it
// is persisted. Store and configuration failures drop the event; a duplicate
// update returns database.ErrDuplicateUpdate.
func (e *Engine) Decide(ctx context.Context, ev Event) (Decision, error) {
	if err := ev.Validate(); err != nil {
		return Decision{}, err
	}

	receivedAt := e.resolver.Normalize(ev.Timestamp)
	country := ParseCountry(ev.ChatTitle, e.taxiMarker, e.resolver)

	window, err := e.resolver.Resolve(country, receivedAt)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to resolve working window", "country", country, "error", err)
		return Decision{}, err
	}

	record := &database.Message{
		UpdateID:   ev.UpdateID,
		ChatName:   ev.ChatTitle,
		Country:    country,
		MessageID:  ev.MessageID,
		Username:   ev.Username,
		Text:       ev.Text,
		ReceivedAt: receivedAt,
	}

	previous, err := e.store.RecordMessage(ctx, record, func(prev *database.Message) (database.Disposition, error) {
		return Classify(receivedAt, prev, window, e.dedupWindow), nil
	})
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Record:      record,
		Disposition: record.Disposition,
		Window:      window,
		Previous:    previous,
	}
	metrics.Dispositions.WithLabelValues(country, string(decision.Disposition)).Inc()

	e.logger.InfoContext(ctx, "Message disposition decided",
		"update_id", record.UpdateID,
		"chat_name", record.ChatName,
		"country", country,
		"disposition", decision.Disposition,
		"has_previous", previous != nil)

	if decision.Disposition == database.DispositionSent {
		if err := e.notifier.Notify(ctx, record); err != nil {
			e.logger.ErrorContext(ctx, "Notification failed, message stays sent",
				"update_id", record.UpdateID, "error", err)
			decision.SendErr = err
		}
	}

	return decision, nil
}
