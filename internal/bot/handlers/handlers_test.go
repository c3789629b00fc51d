package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatrelay/internal/config"
	"github.com/edgard/chatrelay/internal/database"
	"github.com/edgard/chatrelay/internal/relay"
)

type fakeService struct {
	events []relay.Event
	result relay.Result
	err    error
}

func (f *fakeService) HandleEvent(_ context.Context, ev relay.Event) (relay.Result, error) {
	f.events = append(f.events, ev)
	return f.result, f.err
}

type fakeComposer struct {
	calls int
	err   error
}

func (f *fakeComposer) Compose(chatName, country string, _ time.Time) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return country + " closed: " + chatName, nil
}

type fakeStore struct {
	database.Store
	counts map[string]int
	err    error
}

func (f *fakeStore) CountDeferredByCountry(context.Context) (map[string]int, error) {
	return f.counts, f.err
}

func testDeps(svc *fakeService, comp *fakeComposer) HandlerDeps {
	cfg := &config.Config{
		Telegram: config.TelegramConfig{AdminUserID: 1, ChatIDs: []int64{-100, -200}},
		Messages: config.DefaultMessages,
	}
	return HandlerDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   cfg,
		Relay:    svc,
		Composer: comp,
	}
}

func textUpdate(chatID int64, title, text string) *models.Update {
	return &models.Update{
		ID: 500,
		Message: &models.Message{
			ID:   77,
			Date: 1792252800,
			Chat: models.Chat{ID: chatID, Title: title},
			From: &models.User{ID: 9, Username: "alice", FirstName: "Alice"},
			Text: text,
		},
	}
}

func TestEventFromUpdate(t *testing.T) {
	t.Parallel()
	h := messageHandler{testDeps(&fakeService{}, &fakeComposer{})}

	ev, ok := h.eventFromUpdate(textUpdate(-100, "Поддержка [KZ]", "help"))
	require.True(t, ok)
	assert.Equal(t, relay.Event{
		UpdateID:  500,
		MessageID: 77,
		ChatTitle: "Поддержка [KZ]",
		Username:  "@alice",
		Text:      "help",
		Timestamp: time.Unix(1792252800, 0),
	}, ev)

	skipped := map[string]*models.Update{
		"command":      textUpdate(-100, "Поддержка [KZ]", "/start"),
		"empty text":   textUpdate(-100, "Поддержка [KZ]", ""),
		"private chat": textUpdate(9, "", "hi"),
		"unlisted":     textUpdate(-300, "Other [RU]", "hi"),
		"no message":   {ID: 1},
	}
	for name, upd := range skipped {
		_, ok := h.eventFromUpdate(upd)
		assert.False(t, ok, name)
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "@bob", displayName(&models.User{Username: "bob", FirstName: "Bob"}))
	assert.Equal(t, "Bob Smith", displayName(&models.User{FirstName: "Bob", LastName: "Smith"}))
	assert.Equal(t, "Bob", displayName(&models.User{FirstName: "Bob"}))
}

func TestProcessRepliesOnlyWhenDeferred(t *testing.T) {
	t.Parallel()

	record := &database.Message{ChatName: "Поддержка [RU такси]", Country: "RU", ReceivedAt: time.Now()}
	tests := []struct {
		name      string
		result    relay.Result
		err       error
		wantReply bool
	}{
		{"deferred", relay.Result{Decision: relay.Decision{Record: record, Disposition: database.DispositionDeferred}}, nil, true},
		{"sent", relay.Result{Decision: relay.Decision{Record: record, Disposition: database.DispositionSent}}, nil, false},
		{"suppressed", relay.Result{Decision: relay.Decision{Record: record, Disposition: database.DispositionSuppressed}}, nil, false},
		{"skipped", relay.Result{Skipped: true}, nil, false},
		{"dropped", relay.Result{}, errors.New("store down"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{result: tt.result, err: tt.err}
			comp := &fakeComposer{}
			h := messageHandler{testDeps(svc, comp)}

			reply, ok := h.process(context.Background(), relay.Event{UpdateID: 1})
			assert.Equal(t, tt.wantReply, ok)
			if tt.wantReply {
				assert.Equal(t, 1, comp.calls)
				assert.Equal(t, "RU closed: Поддержка [RU такси]", reply.text)
				assert.Equal(t, "RU", reply.country)
			} else {
				assert.Zero(t, comp.calls)
			}
			assert.Len(t, svc.events, 1)
		})
	}
}

func TestProcessComposeFailureSkipsReply(t *testing.T) {
	t.Parallel()

	record := &database.Message{ChatName: "c [AM]", Country: "AM"}
	svc := &fakeService{result: relay.Result{Decision: relay.Decision{Record: record, Disposition: database.DispositionDeferred}}}
	h := messageHandler{testDeps(svc, &fakeComposer{err: errors.New("missing template")})}

	_, ok := h.process(context.Background(), relay.Event{UpdateID: 1})
	assert.False(t, ok)
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	deps := testDeps(&fakeService{}, &fakeComposer{})

	deps.Store = &fakeStore{counts: map[string]int{"RU": 3, "KZ": 1}}
	text, err := statusHandler{deps}.statusText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMessages.StatusHeader+"\nKZ: 1\nRU: 3", text)

	deps.Store = &fakeStore{counts: map[string]int{}}
	text, err = statusHandler{deps}.statusText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMessages.StatusEmpty, text)

	deps.Store = &fakeStore{err: errors.New("locked")}
	_, err = statusHandler{deps}.statusText(context.Background())
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	deps := testDeps(&fakeService{}, &fakeComposer{})
	assert.True(t, isAdmin(deps, 1))
	assert.False(t, isAdmin(deps, 2))

	deps.Config.Telegram.AdminUserID = 0
	assert.False(t, isAdmin(deps, 0))
}

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()

	cmds := RegisterAllCommands(testDeps(&fakeService{}, &fakeComposer{}))
	require.Contains(t, cmds, "/start")
	require.Contains(t, cmds, "/status")
	assert.Empty(t, cmds["/start"].Middleware)
	assert.Len(t, cmds["/status"].Middleware, 1)
}
