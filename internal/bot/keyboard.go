package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

// BOT KEYBOARDS

func languageKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("UZ 🇺🇿"),
			tgbotapi.NewKeyboardButton("RU 🇷🇺"),
			tgbotapi.NewKeyboardButton("EN 🇬🇧"),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func contactKeyboard(lang state.Language) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(text(lang, btnSendContact)),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard(lang state.Language) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(text(lang, btnMenuCatalog)),
			tgbotapi.NewKeyboardButton(text(lang, btnMenuCart)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(text(lang, btnMenuOrders)),
			tgbotapi.NewKeyboardButton(text(lang, btnMenuLanguage)),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func productLabel(lang state.Language, p api.Product) string {
	return fmt.Sprintf("%s - %s %s", p.Name(string(lang)), formatPrice(p.Price), text(lang, txtCurrency))
}

// catalogKeyboard lays out one product per row, then the page controls and
// the cart button.
func catalogKeyboard(lang state.Language, pg page, cartCount int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pg.Items)+2)

	for _, p := range pg.Items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(productLabel(lang, p), AddCallback(p.ID, pg.Number).Encode()),
		))
	}

	nav := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	if pg.Number > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(text(lang, btnPrev), PageCallback(pg.Number-1).Encode()))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("%d/%d", pg.Number, pg.Total),
		Callback{Action: ActionNoop}.Encode(),
	))
	if pg.Number < pg.Total {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(text(lang, btnNext), PageCallback(pg.Number+1).Encode()))
	}
	rows = append(rows, nav)

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(textf(lang, btnCart, cartCount), Callback{Action: ActionCart}.Encode()),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cartKeyboard(lang state.Language, empty bool) tgbotapi.InlineKeyboardMarkup {
	back := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(text(lang, btnBackToCatalog), Callback{Action: ActionOpen}.Encode()),
	)
	if empty {
		return tgbotapi.NewInlineKeyboardMarkup(back)
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text(lang, btnClear), Callback{Action: ActionClear}.Encode()),
			tgbotapi.NewInlineKeyboardButtonData(text(lang, btnCheckout), Callback{Action: ActionCheckout}.Encode()),
		),
		back,
	)
}
