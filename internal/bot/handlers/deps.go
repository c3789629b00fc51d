package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/chatrelay/internal/config"
	"github.com/edgard/chatrelay/internal/database"
	"github.com/edgard/chatrelay/internal/relay"
)

// EventService processes one inbound chat message.
type EventService interface {
	HandleEvent(ctx context.Context, ev relay.Event) (relay.Result, error)
}

// ReplyComposer builds the out-of-hours reply of a chat.
type ReplyComposer interface {
	Compose(chatName, country string, now time.Time) (string, error)
}

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Relay    EventService
	Composer ReplyComposer
}
