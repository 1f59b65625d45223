package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shop-bot/internal/bot/state"
)

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	st, err := b.state.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, msgTryLater)
		return
	}

	if msg.Contact != nil {
		b.handleContact(ctx, msg, st)
		return
	}

	if handler, ok := b.handlers[st.Stage]; ok {
		handler(ctx, msg, st)
		return
	}

	b.logger.Warn("Unknown stage, restarting onboarding",
		zap.Int64("chat_id", chatID),
		zap.String("stage", string(st.Stage)))
	b.handleStart(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()

	if command == "start" {
		b.handleStart(ctx, msg)
		return
	}

	if b.isAdmin(chatID) {
		if b.handleAdminCommand(ctx, chatID, command, strings.Fields(msg.CommandArguments())) {
			return
		}
	}

	st, err := b.state.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, msgTryLater)
		return
	}
	lang := st.Lang()

	switch command {
	case "help":
		b.sendText(chatID, text(lang, txtHelp))
		return
	case "catalog", "cart", "orders", "lang":
	default:
		b.sendText(chatID, text(lang, txtUnknownCommand))
		return
	}

	if st.Stage != state.StageDone {
		b.promptStage(chatID, st)
		return
	}

	switch command {
	case "catalog":
		b.renderPage(ctx, chatID, st, 1, 0)
	case "cart":
		b.renderCart(ctx, chatID, st, 0)
	case "orders":
		b.showOrders(ctx, chatID, st)
	case "lang":
		b.enterChangeLanguage(ctx, chatID)
	}
}

// handleMenu routes main menu buttons once onboarding is complete.
func (b *Bot) handleMenu(ctx context.Context, msg *tgbotapi.Message, st *state.ConversationState) {
	chatID := msg.Chat.ID

	switch resolveControl(msg.Text) {
	case controlCatalog:
		b.renderPage(ctx, chatID, st, 1, 0)
	case controlCart:
		b.renderCart(ctx, chatID, st, 0)
	case controlOrders:
		b.showOrders(ctx, chatID, st)
	case controlLanguage:
		b.enterChangeLanguage(ctx, chatID)
	default:
		b.sendMainMenu(chatID, st.Lang(), text(st.Lang(), txtUseMenu))
	}
}

func (b *Bot) processCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	var (
		chatID    int64
		messageID int
	)
	switch {
	case cq.Message != nil && cq.Message.Chat != nil:
		chatID = cq.Message.Chat.ID
		messageID = cq.Message.MessageID
	case cq.From != nil:
		chatID = cq.From.ID
	default:
		b.answer(cq.ID, "", false)
		return
	}

	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", chatID),
		zap.String("data", cq.Data))

	cb, err := ParseCallback(cq.Data)
	if err != nil {
		b.logger.Warn("Unknown callback", zap.Int64("chat_id", chatID), zap.Error(err))
		b.answer(cq.ID, "", false)
		return
	}

	if cb.Action == ActionNoop {
		b.answer(cq.ID, "", false)
		return
	}

	st, err := b.state.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.answer(cq.ID, msgTryLater, true)
		return
	}
	lang := st.Lang()

	if st.Stage != state.StageDone {
		b.answer(cq.ID, text(lang, txtStartFirst), true)
		return
	}

	switch cb.Action {
	case ActionOpen:
		b.answer(cq.ID, "", false)
		b.renderPage(ctx, chatID, st, 1, messageID)

	case ActionPage:
		b.answer(cq.ID, "", false)
		b.renderPage(ctx, chatID, st, cb.Page, messageID)

	case ActionAdd:
		b.handleAddCallback(ctx, cq, chatID, messageID, cb)

	case ActionCart:
		b.answer(cq.ID, "", false)
		b.renderCart(ctx, chatID, st, messageID)

	case ActionClear:
		cleared := b.clearCart(ctx, chatID)
		if cleared == nil {
			b.answer(cq.ID, msgTryLater, true)
			return
		}
		b.answer(cq.ID, text(lang, txtCleared), false)
		b.renderCart(ctx, chatID, cleared, messageID)

	case ActionCheckout:
		result, resp := b.checkout(ctx, chatID, st)
		switch result {
		case checkoutEmpty:
			b.answer(cq.ID, text(lang, txtCheckoutEmpty), false)
		case checkoutFailed:
			b.answer(cq.ID, text(lang, txtCheckoutFailed), true)
		case checkoutPlaced:
			b.answer(cq.ID, text(lang, txtCheckoutSent), false)
			total := formatPrice(resp.Total) + " " + text(lang, txtCurrency)
			b.replaceText(chatID, messageID, textf(lang, txtOrderAccepted, resp.OrderID, total))
		}
	}
}
