package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), "-1001234", "hello"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(-1001234), sender.sent[0].ChatID)
	assert.Equal(t, "hello", sender.sent[0].Text)
}

func TestTelegramNotifierErrors(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, zap.NewNop())

	assert.Error(t, n.Notify(context.Background(), "not-a-number", "hi"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, "42", "hi"), context.Canceled)
	assert.Empty(t, sender.sent)

	sender.err = errors.New("forbidden: bot was blocked by the user")
	assert.Error(t, n.Notify(context.Background(), "42", "hi"))
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	assert.NoError(t, n.Notify(context.Background(), "42", "hi"))
}
