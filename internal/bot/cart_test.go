package bot

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

func fillCart(t *testing.T, tb *testBot, chatID int64, cart state.Cart) {
	t.Helper()
	_, err := tb.store.Update(context.Background(), chatID, func(st *state.ConversationState) error {
		for id, qty := range cart {
			st.Cart.Set(id, qty)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestCartLinesSkipsUnknownProducts(t *testing.T) {
	items := []api.Product{testProduct(1, 15000), testProduct(2, 2500)}
	lines, total := cartLines(items, state.Cart{1: 3, 2: 1, 99: 4})

	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].Product.ID)
	assert.True(t, decimal.NewFromInt(45000).Equal(lines[0].Sum))
	assert.True(t, decimal.NewFromInt(47500).Equal(total))
}

func TestCartUnitsIgnoresStaleProducts(t *testing.T) {
	items := []api.Product{testProduct(1, 15000)}

	assert.Equal(t, 2, cartUnits(items, state.Cart{1: 2, 99: 3}))
	assert.Equal(t, 0, cartUnits(items, state.Cart{98: 1, 99: 3}))
	assert.ElementsMatch(t, []int64{98, 99}, staleCartIDs(items, state.Cart{1: 1, 98: 1, 99: 3}))
}

func TestRenderCartDropsStaleProducts(t *testing.T) {
	tb := newTestBot(t, newFakeBackend(testProduct(1, 15000)))
	tb.onboard(t, 42, state.LangEN)
	fillCart(t, tb, 42, state.Cart{99: 3})

	tb.userSays(42, "/catalog")
	markup, ok := tb.tg.lastMessage().ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Contains(t, buttonTexts(markup), "🛒 Cart (0)")

	tb.press(42, 5, "cart")
	edits := tb.tg.textEdits()
	require.Len(t, edits, 1)
	assert.Equal(t, text(state.LangEN, txtCartEmpty), edits[0].Text)
	assert.Empty(t, tb.chatState(t, 42).Cart)
}

func TestRenderCart(t *testing.T) {
	tb := newTestBot(t, newFakeBackend(testProduct(1, 15000), testProduct(2, 2500)))
	tb.onboard(t, 42, state.LangEN)
	fillCart(t, tb, 42, state.Cart{1: 3})

	tb.press(42, 5, "cart")

	edits := tb.tg.textEdits()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Text, "Mahsulot 1 × 3 = 45000 UZS")
	assert.Contains(t, edits[0].Text, "Total: 45000 UZS")
	data := buttonData(*edits[0].ReplyMarkup)
	assert.Contains(t, data, "clear")
	assert.Contains(t, data, "checkout")
	assert.Contains(t, data, "open")
}

func TestRenderEmptyCart(t *testing.T) {
	tb := newTestBot(t, newFakeBackend(testProducts(2)...))
	tb.onboard(t, 42, state.LangRU)

	tb.userSays(42, "🛒 Корзина")

	msg := tb.tg.lastMessage()
	assert.Equal(t, "🛒 Корзина пуста", msg.Text)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, []string{"open"}, buttonData(markup))
}

func TestClearCart(t *testing.T) {
	tb := newTestBot(t, newFakeBackend(testProducts(2)...))
	tb.onboard(t, 42, state.LangEN)
	fillCart(t, tb, 42, state.Cart{1: 2, 2: 1})

	tb.press(42, 5, "clear")

	assert.Empty(t, tb.chatState(t, 42).Cart)
	assert.Equal(t, "Cart cleared", tb.tg.lastCallback().Text)
	edits := tb.tg.textEdits()
	require.Len(t, edits, 1)
	assert.Equal(t, "🛒 Your cart is empty", edits[0].Text)
}

func TestCheckoutSuccess(t *testing.T) {
	backend := newFakeBackend(testProduct(1, 15000), testProduct(2, 2500))
	tb := newTestBot(t, backend)
	tb.onboard(t, 42, state.LangRU)
	fillCart(t, tb, 42, state.Cart{1: 3, 2: 2})

	tb.press(42, 5, "checkout")

	orders := backend.orderRequests()
	require.Len(t, orders, 1)
	req := orders[0]
	assert.Equal(t, "42", req.TelegramID)
	assert.Equal(t, "RU", req.Language)
	assert.Equal(t, "+998901234567", req.Phone)
	assert.Equal(t, "Ivan", req.FullName)
	assert.Empty(t, req.Comment)
	assert.NotEmpty(t, req.IdempotencyKey)
	assert.Equal(t, []api.OrderItemRequest{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 2}}, sortedItems(req.Items))

	st := tb.chatState(t, 42)
	assert.Empty(t, st.Cart)
	assert.Empty(t, st.CheckoutKey)

	cb := tb.tg.lastCallback()
	assert.Equal(t, "Заказ отправлен", cb.Text)
	assert.False(t, cb.ShowAlert)

	edits := tb.tg.textEdits()
	require.Len(t, edits, 1)
	assert.Equal(t, "✅ Заказ #101 принят!\nИтого: 50000 сум", edits[0].Text)
	assert.Nil(t, edits[0].ReplyMarkup)
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	backend := newFakeBackend(testProduct(1, 15000))
	backend.orderErr = errBackendDown
	tb := newTestBot(t, backend)
	tb.onboard(t, 42, state.LangEN)
	fillCart(t, tb, 42, state.Cart{1: 2})

	tb.press(42, 5, "checkout")

	st := tb.chatState(t, 42)
	assert.Equal(t, state.Cart{1: 2}, st.Cart)
	assert.NotEmpty(t, st.CheckoutKey)

	cb := tb.tg.lastCallback()
	assert.True(t, cb.ShowAlert)
	assert.Equal(t, text(state.LangEN, txtCheckoutFailed), cb.Text)
	assert.Empty(t, tb.tg.textEdits())

	// a retry of the same cart reuses the key
	tb.press(42, 5, "checkout")
	orders := backend.orderRequests()
	require.Len(t, orders, 2)
	assert.Equal(t, orders[0].IdempotencyKey, orders[1].IdempotencyKey)

	// changing the cart starts a new attempt
	backend.orderErr = nil
	tb.press(42, 5, "add:1:pg1")
	tb.press(42, 5, "checkout")
	orders = backend.orderRequests()
	require.Len(t, orders, 3)
	assert.NotEqual(t, orders[0].IdempotencyKey, orders[2].IdempotencyKey)
	assert.Equal(t, []api.OrderItemRequest{{ProductID: 1, Quantity: 3}}, orders[2].Items)
}

func TestCheckoutEmptyCart(t *testing.T) {
	backend := newFakeBackend(testProducts(2)...)
	tb := newTestBot(t, backend)
	tb.onboard(t, 42, state.LangEN)

	tb.press(42, 5, "checkout")

	assert.Empty(t, backend.orderRequests())
	assert.Equal(t, "Your cart is empty", tb.tg.lastCallback().Text)
}

func TestCallbacksRequireOnboarding(t *testing.T) {
	backend := newFakeBackend(testProducts(2)...)
	tb := newTestBot(t, backend)

	tb.press(42, 5, "add:1:pg1")

	assert.Empty(t, tb.chatState(t, 42).Cart)
	cb := tb.tg.lastCallback()
	assert.True(t, cb.ShowAlert)
	assert.True(t, strings.Contains(cb.Text, "/start"))
}

func TestNoopCallback(t *testing.T) {
	tb := newTestBot(t, newFakeBackend())

	tb.press(42, 5, "noop")

	require.Len(t, tb.tg.all(), 1)
	assert.Empty(t, tb.tg.lastCallback().Text)
}
