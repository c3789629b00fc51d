package database

import "time"

// Disposition is the lifecycle state of a relayed message.
type Disposition string

// Dispositions. Only Deferred may change afterwards, and only to Sent.
const (
	DispositionSent       Disposition = "sent"
	DispositionDeferred   Disposition = "deferred"
	DispositionSuppressed Disposition = "suppressed"
)

// Valid reports whether d is one of the known dispositions.
func (d Disposition) Valid() bool {
	switch d {
	case DispositionSent, DispositionDeferred, DispositionSuppressed:
		return true
	}
	return false
}

// Message is one inbound chat message. Rows are append-only: once written,
// only Disposition (deferred -> sent) and UpdatedAt ever change.
type Message struct {
	UpdateID    int64       `db:"update_id"`
	ChatName    string      `db:"chat_name"`
	Country     string      `db:"country"`
	MessageID   int64       `db:"message_id"`
	Username    string      `db:"username"`
	Text        string      `db:"text"`
	ReceivedAt  time.Time   `db:"received_at"` // reference timezone
	Disposition Disposition `db:"disposition"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
