package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

// TelegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Backend is the shop REST API. *api.Client implements it and applies the
// read and order timeouts per call.
type Backend interface {
	GetProducts(ctx context.Context) ([]api.Product, error)
	GetUser(ctx context.Context, telegramID string) (*api.User, bool, error)
	UpsertUser(ctx context.Context, update api.UserUpdate) error
	CreateOrder(ctx context.Context, req api.OrderRequest) (*api.OrderResponse, error)
	MyOrders(ctx context.Context, telegramID string) ([]api.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*api.StatusUpdate, error)
	ExportOrders(ctx context.Context) ([]byte, error)
}

type Dependencies struct {
	API         TelegramAPI
	Backend     Backend
	State       state.Store
	Logger      *zap.Logger
	AdminIDs    []int64
	PollTimeout int
}

type Bot struct {
	bot         TelegramAPI
	backend     Backend
	catalog     *Catalog
	logger      *zap.Logger
	state       state.Store
	admins      map[int64]struct{}
	pollTimeout int
	mu          sync.Mutex
	background  sync.WaitGroup
	syncMu      sync.Mutex
	syncTail    map[string]chan struct{}
	handlers    map[state.Stage]func(context.Context, *tgbotapi.Message, *state.ConversationState)
}

func New(deps Dependencies) *Bot {
	admins := make(map[int64]struct{}, len(deps.AdminIDs))
	for _, id := range deps.AdminIDs {
		admins[id] = struct{}{}
	}

	pollTimeout := deps.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 60
	}

	b := &Bot{
		bot:         deps.API,
		backend:     deps.Backend,
		catalog:     NewCatalog(deps.Backend, deps.Logger),
		logger:      deps.Logger,
		state:       deps.State,
		admins:      admins,
		pollTimeout: pollTimeout,
		syncTail:    make(map[string]chan struct{}),
	}

	b.registerHandlers()
	return b
}

func (b *Bot) registerHandlers() {
	b.handlers = map[state.Stage]func(context.Context, *tgbotapi.Message, *state.ConversationState){
		state.StageLanguage:   b.handleLanguage,
		state.StageContact:    b.handleContactText,
		state.StageName:       b.handleName,
		state.StageChangeLang: b.handleChangeLanguage,
		state.StageDone:       b.handleMenu,
	}
}

// Start long-polls Telegram and handles updates one at a time until ctx is
// cancelled or the update channel closes.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.bot.GetUpdatesChan(u)
	defer b.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			return nil

		case update, ok := <-updates:
			if !ok {
				b.logger.Info("Update channel closed")
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Wait blocks until background profile writes have finished.
func (b *Bot) Wait() {
	b.background.Wait()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case update.Message != nil:
		b.processMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.processCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) isAdmin(chatID int64) bool {
	_, ok := b.admins[chatID]
	return ok
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("text", msg.Text),
			zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendText(chatID, "❌ "+text)
}

// answer acknowledges a callback query; alert shows a modal instead of a toast.
func (b *Bot) answer(callbackID, text string, alert bool) {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := b.bot.Request(cb); err != nil {
		b.logger.Warn("Failed to answer callback",
			zap.String("callback_id", callbackID),
			zap.Error(err))
	}
}

// present shows text with inline controls. With a message id the existing
// message is edited in place; if Telegram refuses the edit (for example
// because the text did not change) only the markup is replaced. Remaining
// failures are logged and dropped.
func (b *Bot) present(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = markup
		b.sendMessage(msg)
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	_, err := b.bot.Request(edit)
	if err == nil {
		return
	}
	b.logger.Debug("Edit message failed, replacing markup only",
		zap.Int64("chat_id", chatID),
		zap.Int("message_id", messageID),
		zap.Error(err))

	markupOnly := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)
	if _, err := b.bot.Request(markupOnly); err != nil {
		b.logger.Warn("Failed to update message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
	}
}

// replaceText swaps the message text and drops its inline keyboard.
func (b *Bot) replaceText(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.sendText(chatID, text)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.bot.Request(edit); err != nil {
		b.logger.Warn("Failed to edit message, sending a new one",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
		b.sendText(chatID, text)
	}
}

// updateState applies fn through the store and logs failures. It returns
// nil when the state could not be written.
func (b *Bot) updateState(ctx context.Context, chatID int64, fn func(st *state.ConversationState)) *state.ConversationState {
	st, err := b.state.Update(ctx, chatID, func(st *state.ConversationState) error {
		fn(st)
		return nil
	})
	if err != nil {
		b.logger.Error("Failed to update user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return nil
	}
	return st
}

// syncProfile writes a profile change to the backend without blocking the
// conversation. Writes for one user are applied in the order they were
// issued; each waits for the previous one to finish. Errors are only logged.
func (b *Bot) syncProfile(ctx context.Context, update api.UserUpdate) {
	ctx = context.WithoutCancel(ctx)
	id := update.TelegramID

	b.syncMu.Lock()
	prev := b.syncTail[id]
	done := make(chan struct{})
	b.syncTail[id] = done
	b.syncMu.Unlock()

	b.background.Add(1)
	go func() {
		defer b.background.Done()
		defer func() {
			b.syncMu.Lock()
			if b.syncTail[id] == done {
				delete(b.syncTail, id)
			}
			b.syncMu.Unlock()
			close(done)
		}()

		if prev != nil {
			<-prev
		}

		if err := b.backend.UpsertUser(ctx, update); err != nil {
			b.logger.Warn("Failed to save user profile",
				zap.String("telegram_id", update.TelegramID),
				zap.Error(err))
		}
	}()
}
