package bot

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

type fakeTelegram struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	editErr   error
	markupErr error
	updates   chan tgbotapi.Update
	stopped   bool
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)

	switch c.(type) {
	case tgbotapi.EditMessageTextConfig:
		if f.editErr != nil {
			return nil, f.editErr
		}
	case tgbotapi.EditMessageReplyMarkupConfig:
		if f.markupErr != nil {
			return nil, f.markupErr
		}
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTelegram) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

func (f *fakeTelegram) all() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tgbotapi.Chattable, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTelegram) messages() []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range f.all() {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTelegram) lastMessage() tgbotapi.MessageConfig {
	msgs := f.messages()
	if len(msgs) == 0 {
		return tgbotapi.MessageConfig{}
	}
	return msgs[len(msgs)-1]
}

func (f *fakeTelegram) callbacks() []tgbotapi.CallbackConfig {
	var out []tgbotapi.CallbackConfig
	for _, c := range f.all() {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (f *fakeTelegram) lastCallback() tgbotapi.CallbackConfig {
	cbs := f.callbacks()
	if len(cbs) == 0 {
		return tgbotapi.CallbackConfig{}
	}
	return cbs[len(cbs)-1]
}

func (f *fakeTelegram) textEdits() []tgbotapi.EditMessageTextConfig {
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.all() {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTelegram) markupEdits() []tgbotapi.EditMessageReplyMarkupConfig {
	var out []tgbotapi.EditMessageReplyMarkupConfig
	for _, c := range f.all() {
		if e, ok := c.(tgbotapi.EditMessageReplyMarkupConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

type fakeBackend struct {
	mu           sync.Mutex
	products     []api.Product
	productsErr  error
	productCalls int
	users        map[string]api.User
	userErr      error
	upserts      []api.UserUpdate
	upsertDelay  func(api.UserUpdate) time.Duration
	orders       []api.OrderRequest
	orderErr     error
	nextOrderID  int64
	history      []api.Order
	statusCalls  []api.StatusUpdate
	statusErr    error
	export       []byte
}

func newFakeBackend(products ...api.Product) *fakeBackend {
	return &fakeBackend{
		products:    products,
		users:       make(map[string]api.User),
		nextOrderID: 100,
	}
}

func (f *fakeBackend) GetProducts(context.Context) ([]api.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	out := make([]api.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeBackend) GetUser(_ context.Context, telegramID string) (*api.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return nil, false, f.userErr
	}
	u, ok := f.users[telegramID]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (f *fakeBackend) UpsertUser(_ context.Context, update api.UserUpdate) error {
	if f.upsertDelay != nil {
		time.Sleep(f.upsertDelay(update))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, update)

	u := f.users[update.TelegramID]
	u.TelegramID = update.TelegramID
	if update.Language != "" {
		u.Language = update.Language
	}
	if update.Phone != "" {
		u.Phone = update.Phone
	}
	if update.FullName != "" {
		u.FullName = update.FullName
	}
	if update.Username != "" {
		u.Username = update.Username
	}
	f.users[update.TelegramID] = u
	return nil
}

func (f *fakeBackend) CreateOrder(_ context.Context, req api.OrderRequest) (*api.OrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, req)
	if f.orderErr != nil {
		return nil, f.orderErr
	}

	prices := make(map[int64]decimal.Decimal, len(f.products))
	for _, p := range f.products {
		prices[p.ID] = p.Price
	}
	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(prices[item.ProductID].Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	f.nextOrderID++
	return &api.OrderResponse{Status: "ok", OrderID: f.nextOrderID, Total: total}, nil
}

func (f *fakeBackend) MyOrders(_ context.Context, telegramID string) ([]api.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, orderID int64, status string) (*api.StatusUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	upd := api.StatusUpdate{OrderID: orderID, Status: status}
	f.statusCalls = append(f.statusCalls, upd)
	return &upd, nil
}

func (f *fakeBackend) ExportOrders(context.Context) ([]byte, error) {
	return f.export, nil
}

func (f *fakeBackend) userUpserts() []api.UserUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.UserUpdate, len(f.upserts))
	copy(out, f.upserts)
	return out
}

func (f *fakeBackend) orderRequests() []api.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.OrderRequest, len(f.orders))
	copy(out, f.orders)
	return out
}

var errBackendDown = errors.New("backend down")

type testBot struct {
	*Bot
	tg      *fakeTelegram
	backend *fakeBackend
	store   *state.MemoryStore
}

func newTestBot(t *testing.T, backend *fakeBackend, adminIDs ...int64) *testBot {
	t.Helper()

	tg := newFakeTelegram()
	store := state.NewMemoryStore()
	b := New(Dependencies{
		API:      tg,
		Backend:  backend,
		State:    store,
		Logger:   zap.NewNop(),
		AdminIDs: adminIDs,
	})
	t.Cleanup(b.Wait)

	return &testBot{Bot: b, tg: tg, backend: backend, store: store}
}

func (tb *testBot) userSays(chatID int64, text string) {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: chatID, UserName: "ivan"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	tb.handleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (tb *testBot) shareContact(chatID int64, phone string) {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: chatID, UserName: "ivan"},
		Contact:   &tgbotapi.Contact{PhoneNumber: phone, UserID: chatID},
	}
	tb.handleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

var callbackSeq int

func (tb *testBot) press(chatID int64, messageID int, data string) {
	callbackSeq++
	cq := &tgbotapi.CallbackQuery{
		ID:      "cb-" + strconv.Itoa(callbackSeq),
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}
	tb.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: cq})
}

func (tb *testBot) chatState(t *testing.T, chatID int64) *state.ConversationState {
	t.Helper()
	st, err := tb.store.Get(context.Background(), chatID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	return st
}

// onboard puts chatID straight into the done stage.
func (tb *testBot) onboard(t *testing.T, chatID int64, lang state.Language) {
	t.Helper()
	st := state.New()
	st.Stage = state.StageDone
	st.Language = lang
	st.Phone = "+998901234567"
	st.FullName = "Ivan"
	if err := tb.store.Save(context.Background(), chatID, st); err != nil {
		t.Fatalf("save state: %v", err)
	}
}

func testProduct(id int64, price int64) api.Product {
	return api.Product{
		ID:     id,
		NameUZ: "Mahsulot " + strconv.FormatInt(id, 10),
		NameRU: "Товар " + strconv.FormatInt(id, 10),
		Price:  decimal.NewFromInt(price),
	}
}

func testProducts(n int) []api.Product {
	out := make([]api.Product, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, testProduct(int64(i), int64(i)*1000))
	}
	return out
}

// buttonData flattens an inline keyboard into its callback payloads.
func buttonData(markup tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

func buttonTexts(markup tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			out = append(out, btn.Text)
		}
	}
	return out
}

func sortedItems(items []api.OrderItemRequest) []api.OrderItemRequest {
	out := append([]api.OrderItemRequest(nil), items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
