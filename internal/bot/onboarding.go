package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

// handleStart either restores a known customer straight to the main menu
// or restarts onboarding from the language question.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	username := ""
	if msg.From != nil {
		username = msg.From.UserName
	}

	profile, exists, err := b.backend.GetUser(ctx, telegramID(chatID))
	if err != nil {
		b.logger.Warn("Failed to look up user profile",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}

	if err == nil && exists && profile.Phone != "" && profile.FullName != "" {
		st := b.updateState(ctx, chatID, func(st *state.ConversationState) {
			st.Stage = state.StageDone
			st.Language = state.LanguageOrDefault(profile.Language)
			st.Phone = profile.Phone
			st.FullName = profile.FullName
			if username != "" {
				st.Username = username
			} else {
				st.Username = profile.Username
			}
		})
		if st == nil {
			b.sendError(chatID, msgTryLater)
			return
		}

		b.logger.Info("Returning customer", zap.Int64("chat_id", chatID))
		b.sendMainMenu(chatID, st.Lang(), text(st.Lang(), txtWelcomeBack))
		return
	}

	st := state.New()
	st.Username = username
	if err := b.state.Save(ctx, chatID, st); err != nil {
		b.logger.Error("Failed to reset user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, msgTryLater)
		return
	}

	b.askLanguage(chatID, promptLanguage)
}

func (b *Bot) askLanguage(chatID int64, prompt string) {
	msg := tgbotapi.NewMessage(chatID, prompt)
	msg.ReplyMarkup = languageKeyboard()
	b.sendMessage(msg)
}

func (b *Bot) askContact(chatID int64, lang state.Language, key textKey) {
	msg := tgbotapi.NewMessage(chatID, text(lang, key))
	msg.ReplyMarkup = contactKeyboard(lang)
	b.sendMessage(msg)
}

func (b *Bot) askName(chatID int64, lang state.Language) {
	msg := tgbotapi.NewMessage(chatID, text(lang, txtAskName))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.sendMessage(msg)
}

func (b *Bot) sendMainMenu(chatID int64, lang state.Language, greeting string) {
	msg := tgbotapi.NewMessage(chatID, greeting)
	msg.ReplyMarkup = mainMenuKeyboard(lang)
	b.sendMessage(msg)
}

// promptStage repeats the question the chat is currently expected to answer.
func (b *Bot) promptStage(chatID int64, st *state.ConversationState) {
	lang := st.Lang()

	switch st.Stage {
	case state.StageLanguage:
		b.askLanguage(chatID, promptLanguage)
	case state.StageContact:
		b.askContact(chatID, lang, txtUseContactButton)
	case state.StageName:
		b.askName(chatID, lang)
	case state.StageChangeLang:
		b.askLanguage(chatID, text(lang, txtChooseNewLanguage))
	default:
		b.sendMainMenu(chatID, lang, text(lang, txtUseMenu))
	}
}

func (b *Bot) handleLanguage(ctx context.Context, msg *tgbotapi.Message, _ *state.ConversationState) {
	chatID := msg.Chat.ID

	lang, ok := state.ParseLanguage(msg.Text)
	if !ok {
		b.askLanguage(chatID, promptLanguageRetry)
		return
	}

	st := b.updateState(ctx, chatID, func(st *state.ConversationState) {
		st.Language = lang
		st.Stage = state.StageContact
	})
	if st == nil {
		b.sendError(chatID, msgTryLater)
		return
	}

	b.askContact(chatID, lang, txtAskPhone)
}

// handleContactText covers free text while a contact share is expected.
func (b *Bot) handleContactText(_ context.Context, msg *tgbotapi.Message, st *state.ConversationState) {
	b.askContact(msg.Chat.ID, st.Lang(), txtUseContactButton)
}

func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message, st *state.ConversationState) {
	chatID := msg.Chat.ID

	if st.Stage != state.StageContact {
		b.promptStage(chatID, st)
		return
	}

	phone := NormalizePhoneNumber(msg.Contact.PhoneNumber)
	if phone == "" {
		b.askContact(chatID, st.Lang(), txtUseContactButton)
		return
	}

	updated := b.updateState(ctx, chatID, func(st *state.ConversationState) {
		st.Phone = phone
		st.Stage = state.StageName
	})
	if updated == nil {
		b.sendError(chatID, msgTryLater)
		return
	}

	b.syncProfile(ctx, api.UserUpdate{
		TelegramID: telegramID(chatID),
		Language:   string(updated.Lang()),
		Phone:      phone,
	})

	b.askName(chatID, updated.Lang())
}

func (b *Bot) handleName(ctx context.Context, msg *tgbotapi.Message, st *state.ConversationState) {
	chatID := msg.Chat.ID

	name := strings.TrimSpace(msg.Text)
	if name == "" {
		b.askName(chatID, st.Lang())
		return
	}

	username := st.Username
	if msg.From != nil && msg.From.UserName != "" {
		username = msg.From.UserName
	}

	updated := b.updateState(ctx, chatID, func(st *state.ConversationState) {
		st.FullName = name
		st.Username = username
		st.Stage = state.StageDone
	})
	if updated == nil {
		b.sendError(chatID, msgTryLater)
		return
	}

	b.syncProfile(ctx, api.UserUpdate{
		TelegramID: telegramID(chatID),
		Language:   string(updated.Lang()),
		Phone:      updated.Phone,
		FullName:   name,
		Username:   username,
	})

	b.logger.Info("Onboarding completed", zap.Int64("chat_id", chatID))
	b.sendMainMenu(chatID, updated.Lang(), text(updated.Lang(), txtWelcome))
}

func (b *Bot) enterChangeLanguage(ctx context.Context, chatID int64) {
	st := b.updateState(ctx, chatID, func(st *state.ConversationState) {
		st.Stage = state.StageChangeLang
	})
	if st == nil {
		b.sendError(chatID, msgTryLater)
		return
	}

	b.askLanguage(chatID, text(st.Lang(), txtChooseNewLanguage))
}

func (b *Bot) handleChangeLanguage(ctx context.Context, msg *tgbotapi.Message, st *state.ConversationState) {
	chatID := msg.Chat.ID

	lang, ok := state.ParseLanguage(msg.Text)
	if !ok {
		b.askLanguage(chatID, text(st.Lang(), txtChooseNewLanguage))
		return
	}

	updated := b.updateState(ctx, chatID, func(st *state.ConversationState) {
		st.Language = lang
		st.Stage = state.StageDone
	})
	if updated == nil {
		b.sendError(chatID, msgTryLater)
		return
	}

	b.syncProfile(ctx, api.UserUpdate{
		TelegramID: telegramID(chatID),
		Language:   string(lang),
	})

	b.sendMainMenu(chatID, lang, text(lang, txtLanguageChanged))
}
