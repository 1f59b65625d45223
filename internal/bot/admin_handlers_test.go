package bot

import (
	"net/http"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

const adminID = 7

func TestAdminStatusCommand(t *testing.T) {
	backend := newFakeBackend()
	tb := newTestBot(t, backend, adminID)

	tb.userSays(adminID, "/status 12 done")

	require.Len(t, backend.statusCalls, 1)
	assert.Equal(t, api.StatusUpdate{OrderID: 12, Status: "done"}, backend.statusCalls[0])
	assert.Equal(t, "✅ Order #12 is now done", tb.tg.lastMessage().Text)
}

func TestAdminStatusErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
		err  error
		want string
	}{
		{name: "usage", args: "/status 12", want: "❌ Usage: /status <order_id> <new|processing|done|cancelled>"},
		{name: "bad id", args: "/status abc done", want: "❌ Invalid order ID"},
		{name: "not found", args: "/status 12 done", err: &api.StatusError{Code: http.StatusNotFound}, want: "❌ Order #12 not found"},
		{name: "conflict", args: "/status 12 new", err: &api.StatusError{Code: http.StatusConflict}, want: "❌ Order #12 cannot move to new"},
		{name: "other", args: "/status 12 done", err: errBackendDown, want: "❌ Failed to update order status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.statusErr = tt.err
			tb := newTestBot(t, backend, adminID)

			tb.userSays(adminID, tt.args)

			assert.Equal(t, tt.want, tb.tg.lastMessage().Text)
		})
	}
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	backend := newFakeBackend()
	tb := newTestBot(t, backend, adminID)
	tb.onboard(t, 42, state.LangEN)

	tb.userSays(42, "/status 12 done")

	assert.Empty(t, backend.statusCalls)
	assert.Equal(t, text(state.LangEN, txtUnknownCommand), tb.tg.lastMessage().Text)
}

func TestAdminExport(t *testing.T) {
	backend := newFakeBackend()
	backend.export = []byte("xlsx")
	tb := newTestBot(t, backend, adminID)

	tb.userSays(adminID, "/export")

	var doc *tgbotapi.DocumentConfig
	for _, c := range tb.tg.all() {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			doc = &d
		}
	}
	require.NotNil(t, doc)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, []byte("xlsx"), file.Bytes)
}

func TestAdminRefresh(t *testing.T) {
	backend := newFakeBackend(testProducts(2)...)
	tb := newTestBot(t, backend, adminID)
	tb.onboard(t, 42, state.LangEN)

	tb.userSays(42, "/catalog")
	backend.products = testProducts(4)
	tb.userSays(adminID, "/refresh")

	assert.Equal(t, 2, backend.productCalls)
	assert.Equal(t, "🔄 Catalog refreshed: 4 products", tb.tg.lastMessage().Text)
}
