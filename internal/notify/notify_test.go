package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []Notification
	err error
}

func (r *recorder) Notify(_ context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestMulti_DeliversToAll(t *testing.T) {
	failing := &recorder{err: errors.New("offline")}
	ok := &recorder{}

	err := Multi{failing, ok, Log{}}.Notify(context.Background(), Notification{Kind: KindInfo, Message: "hi"})

	assert.EqualError(t, err, "offline")
	assert.Len(t, failing.got, 1)
	assert.Len(t, ok.got, 1)
}

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegram_Notify(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{bot: bot, chatID: 42}

	require.NoError(t, tg.Notify(context.Background(), Notification{Kind: KindSyncFailed, Message: "sync failed"}))

	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Contains(t, bot.sent[0].Text, "sync failed")
}

func TestTelegram_OnlyFailures(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{bot: bot, chatID: 1, OnlyFailures: true}

	require.NoError(t, tg.Notify(context.Background(), Notification{Kind: KindSyncSucceeded, Message: "ok"}))
	assert.Empty(t, bot.sent)
}

func TestTelegram_SendError(t *testing.T) {
	tg := &Telegram{bot: &fakeBot{err: errors.New("429")}, chatID: 1}
	err := tg.Notify(context.Background(), Notification{Kind: KindSyncFailed})
	assert.ErrorContains(t, err, "429")
}

func TestNewTelegram_RequiresToken(t *testing.T) {
	_, err := NewTelegram("", 1)
	assert.Error(t, err)
}
