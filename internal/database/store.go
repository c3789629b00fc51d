package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/edgard/chatrelay/internal/errors"
)

// ErrDuplicateUpdate is returned by RecordMessage when the update was already
// recorded, e.g. when Telegram redelivers updates after a restart.
var ErrDuplicateUpdate = errors.New("update already recorded")

// DecideFunc chooses the disposition of a new message given the most recent
// earlier message of the same chat and user (nil if there is none).
type DecideFunc func(previous *Message) (Disposition, error)

// Store defines the message store operations. Every method accepts a
// context for cancellation and timeouts. Failures are StoreErrors.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RecordMessage looks up the previous message of the same chat and user,
	// asks decide for the disposition, and inserts message, all in one
	// transaction. message.Disposition is set from decide. It returns the
	// previous message (nil if none).
	RecordMessage(ctx context.Context, message *Message, decide DecideFunc) (*Message, error)

	// LastMessage returns the most recent message of chatName and username
	// with an update ID below beforeUpdateID. Returns nil, nil if not found.
	LastMessage(ctx context.Context, chatName, username string, beforeUpdateID int64) (*Message, error)

	// GetDeferredMessages returns all deferred messages of a country, oldest first.
	GetDeferredMessages(ctx context.Context, country string) ([]*Message, error)

	// MarkSent flips a deferred message to sent. It reports false if the
	// message was not deferred (already sent, suppressed, or missing).
	MarkSent(ctx context.Context, updateID int64) (bool, error)

	// CountDeferredByCountry returns the number of deferred messages per country.
	CountDeferredByCountry(ctx context.Context) (map[string]int, error)

	// RunSQLMaintenance performs database maintenance (VACUUM).
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store on top of sqlx.
type sqlxStore struct {
	db       *sqlx.DB
	logger   *slog.Logger
	location *time.Location
}

// StoreOption configures a Store.
type StoreOption func(*sqlxStore)

// WithLocation sets the zone timestamps are returned in. Defaults to UTC.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *sqlxStore) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewStore creates a Store backed by a connected sqlx.DB. Timestamps are
// written in UTC, whatever zone the caller uses.
func NewStore(db *sqlx.DB, logger *slog.Logger, opts ...StoreOption) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &sqlxStore{
		db:       db,
		logger:   logger.With("component", "store"),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// row returns a copy of m with UTC timestamps, the form the driver can read back.
func row(m *Message) *Message {
	r := *m
	r.ReceivedAt = m.ReceivedAt.UTC()
	r.CreatedAt = m.CreatedAt.UTC()
	r.UpdatedAt = m.UpdatedAt.UTC()
	return &r
}

// localize moves the timestamps of a loaded message into the store's zone.
func (s *sqlxStore) localize(m *Message) *Message {
	if m == nil {
		return nil
	}
	m.ReceivedAt = m.ReceivedAt.In(s.location)
	m.CreatedAt = m.CreatedAt.In(s.location)
	m.UpdatedAt = m.UpdatedAt.In(s.location)
	return m
}

const messageColumns = `update_id, chat_name, country, message_id, username, text, received_at, disposition, created_at, updated_at`

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStoreError("database ping failed", err)
	}
	return nil
}

// RecordMessage runs the previous-message lookup, the decision, and the
// insert in a single transaction so concurrent writers cannot slip a message
// between the lookup and the write.
func (s *sqlxStore) RecordMessage(ctx context.Context, message *Message, decide DecideFunc) (*Message, error) {
	if message == nil {
		return nil, apperrors.NewValidationError("cannot record nil message", nil)
	}
	if decide == nil {
		return nil, apperrors.NewValidationError("cannot record message without a decision function", nil)
	}
	if message.ChatName == "" || message.Country == "" {
		return nil, apperrors.NewValidationError("message must have a chat name and a country", nil)
	}
	if message.ReceivedAt.IsZero() {
		return nil, apperrors.NewValidationError("message must have a non-zero received_at", nil)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for recording message",
			"update_id", message.UpdateID, "error", err)
		return nil, apperrors.NewStoreError("failed to begin transaction", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM messages WHERE update_id = ?`, message.UpdateID)
	if err != nil {
		return nil, apperrors.NewStoreError(fmt.Sprintf("failed to check update %d", message.UpdateID), err)
	}
	if exists > 0 {
		s.logger.WarnContext(ctx, "Update already recorded, skipping", "update_id", message.UpdateID)
		return nil, ErrDuplicateUpdate
	}

	previous, err := lastMessage(ctx, tx, message.ChatName, message.Username, message.UpdateID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error looking up previous message",
			"update_id", message.UpdateID, "chat_name", message.ChatName, "error", err)
		return nil, apperrors.NewStoreError("failed to look up previous message", err)
	}
	previous = s.localize(previous)

	disposition, err := decide(previous)
	if err != nil {
		return nil, err
	}
	if !disposition.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid disposition %q", disposition), nil)
	}
	message.Disposition = disposition

	now := utcNow()
	message.CreatedAt = now
	message.UpdatedAt = now

	query := `
        INSERT INTO messages (` + messageColumns + `)
        VALUES (:update_id, :chat_name, :country, :message_id, :username, :text, :received_at, :disposition, :created_at, :updated_at);
    `
	result, err := tx.NamedExecContext(ctx, query, row(message))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "update_id", message.UpdateID, "error", err)
		return nil, apperrors.NewStoreError(fmt.Sprintf("failed to save message (update %d)", message.UpdateID), err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when saving message",
			"update_id", message.UpdateID, "affected", affected)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "update_id", message.UpdateID, "error", err)
		return nil, apperrors.NewStoreError("failed to commit transaction", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Message recorded",
		"update_id", message.UpdateID, "country", message.Country, "disposition", message.Disposition)
	return previous, nil
}

// LastMessage returns the most recent earlier message of a chat and user.
func (s *sqlxStore) LastMessage(ctx context.Context, chatName, username string, beforeUpdateID int64) (*Message, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	previous, err := lastMessage(ctx, s.db, chatName, username, beforeUpdateID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error looking up last message",
			"chat_name", chatName, "username", username, "error", err)
		return nil, apperrors.NewStoreError("failed to look up last message", err)
	}
	return s.localize(previous), nil
}

func lastMessage(ctx context.Context, q sqlx.QueryerContext, chatName, username string, beforeUpdateID int64) (*Message, error) {
	var m Message
	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE chat_name = ? AND username = ? AND update_id < ?
        ORDER BY update_id DESC
        LIMIT 1;
    `
	err := sqlx.GetContext(ctx, q, &m, query, chatName, username, beforeUpdateID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetDeferredMessages returns the deferred messages of a country.
func (s *sqlxStore) GetDeferredMessages(ctx context.Context, country string) ([]*Message, error) {
	if country == "" {
		return nil, apperrors.NewValidationError("country cannot be empty", nil)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []*Message
	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE country = ? AND disposition = ?
        ORDER BY update_id ASC;
    `
	err := s.db.SelectContext(ctx, &messages, query, country, DispositionDeferred)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching deferred messages",
			"country", country, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting deferred messages", "country", country, "error", err)
		return nil, apperrors.NewStoreError(fmt.Sprintf("failed to get deferred messages for %s", country), err)
	}

	for _, m := range messages {
		s.localize(m)
	}

	s.logger.DebugContext(ctx, "Fetched deferred messages", "country", country, "count", len(messages))
	return messages, nil
}

// MarkSent flips one deferred message to sent.
func (s *sqlxStore) MarkSent(ctx context.Context, updateID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET disposition = ?, updated_at = ? WHERE update_id = ? AND disposition = ?`,
		DispositionSent, utcNow(), updateID, DispositionDeferred)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking message as sent", "update_id", updateID, "error", err)
		return false, apperrors.NewStoreError(fmt.Sprintf("failed to mark update %d as sent", updateID), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count", "update_id", updateID, "error", err)
		return true, nil
	}
	if affected == 0 {
		s.logger.WarnContext(ctx, "Message was not deferred, nothing to mark", "update_id", updateID)
		return false, nil
	}
	return true, nil
}

// CountDeferredByCountry returns the deferred backlog per country.
func (s *sqlxStore) CountDeferredByCountry(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Country string `db:"country"`
		Count   int    `db:"count"`
	}
	query := `
        SELECT country, COUNT(1) AS count
        FROM messages
        WHERE disposition = ?
        GROUP BY country;
    `
	if err := s.db.SelectContext(ctx, &rows, query, DispositionDeferred); err != nil {
		s.logger.ErrorContext(ctx, "Error counting deferred messages", "error", err)
		return nil, apperrors.NewStoreError("failed to count deferred messages", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Country] = r.Count
	}
	return counts, nil
}

// RunSQLMaintenance executes VACUUM on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return apperrors.NewStoreError("failed to execute VACUUM", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
