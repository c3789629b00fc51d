package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatrelay/internal/metrics"
	"github.com/edgard/chatrelay/internal/relay"
)

type messageHandler struct {
	deps HandlerDeps
}

// NewMessageHandler returns the default handler. It relays plain text
// messages of group chats and replies to deferred ones with the
// out-of-hours text.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	ev, ok := h.eventFromUpdate(update)
	if !ok {
		log.DebugContext(ctx, "Ignoring update", "update_id", update.ID)
		return
	}

	if timeout := h.deps.Config.Relay.EventTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reply, ok := h.process(ctx, ev)
	if !ok {
		return
	}

	msg := update.Message
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          msg.Chat.ID,
		Text:            reply.text,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	metrics.AutoReplies.WithLabelValues(reply.country, metrics.ResultLabel(err)).Inc()
	if err != nil {
		log.ErrorContext(ctx, "Failed to send out-of-hours reply", "error", err, "chat_id", msg.Chat.ID, "update_id", ev.UpdateID)
		return
	}
	log.InfoContext(ctx, "Sent out-of-hours reply", "chat_id", msg.Chat.ID, "country", reply.country, "update_id", ev.UpdateID)
}

type autoReply struct {
	text    string
	country string
}

// process runs the relay pipeline and returns the reply to post, if any.
func (h messageHandler) process(ctx context.Context, ev relay.Event) (autoReply, bool) {
	log := h.deps.Logger.With("handler", "message")

	result, err := h.deps.Relay.HandleEvent(ctx, ev)
	if err != nil {
		log.ErrorContext(ctx, "Failed to process message", "update_id", ev.UpdateID, "error", err)
		return autoReply{}, false
	}
	if !result.Deferred() {
		return autoReply{}, false
	}

	record := result.Decision.Record
	text, err := h.deps.Composer.Compose(record.ChatName, record.Country, record.ReceivedAt)
	if err != nil {
		metrics.AutoReplies.WithLabelValues(record.Country, metrics.ResultError).Inc()
		log.ErrorContext(ctx, "Failed to compose out-of-hours reply", "country", record.Country, "error", err)
		return autoReply{}, false
	}
	return autoReply{text: text, country: record.Country}, true
}

// eventFromUpdate maps a text message of an allowed group chat to an
// Event. Commands, private chats, and non-text messages are skipped.
func (h messageHandler) eventFromUpdate(update *models.Update) (relay.Event, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return relay.Event{}, false
	}
	if strings.HasPrefix(msg.Text, "/") {
		return relay.Event{}, false
	}
	if msg.Chat.Title == "" || !h.deps.Config.Telegram.IsRelayedChat(msg.Chat.ID) {
		return relay.Event{}, false
	}

	return relay.Event{
		UpdateID:  update.ID,
		MessageID: int64(msg.ID),
		ChatTitle: msg.Chat.Title,
		Username:  displayName(msg.From),
		Text:      msg.Text,
		Timestamp: time.Unix(int64(msg.Date), 0),
	}, true
}

// displayName returns "@username", or the full name for users without one.
func displayName(u *models.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
