package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatusHandler returns a handler for the /status admin command, which
// lists the deferred backlog per country.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.Handle
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "status")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	text, err := h.statusText(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to build status", "error", err)
		text = fmt.Sprintf("Error: %v", err)
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send status message", "error", err, "chat_id", chatID)
	}
}

func (h statusHandler) statusText(ctx context.Context) (string, error) {
	counts, err := h.deps.Store.CountDeferredByCountry(ctx)
	if err != nil {
		return "", err
	}

	msgs := h.deps.Config.Messages
	if len(counts) == 0 {
		return msgs.StatusEmpty, nil
	}

	countries := make([]string, 0, len(counts))
	for c := range counts {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	var sb strings.Builder
	sb.WriteString(msgs.StatusHeader)
	for _, c := range countries {
		fmt.Fprintf(&sb, "\n%s: %d", c, counts[c])
	}
	return sb.String(), nil
}
