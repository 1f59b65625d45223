package bot

import (
	"fmt"

	"shop-bot/internal/bot/state"
)

// Shown before the chat has a language, so they carry all three.
const (
	promptLanguage      = "🌐 Tilni tanlang / Выберите язык / Choose a language"
	promptLanguageRetry = "Iltimos, UZ, RU yoki EN ni tanlang / Пожалуйста, выберите UZ, RU или EN / Please choose UZ, RU or EN"
	msgTryLater         = "Xatolik yuz berdi, keyinroq urinib ko'ring / Произошла ошибка, попробуйте позже / Something went wrong, please try again later"
)

type textKey int

const (
	txtAskPhone textKey = iota
	txtUseContactButton
	txtAskName
	txtWelcome
	txtWelcomeBack
	txtChooseNewLanguage
	txtLanguageChanged
	txtUseMenu
	txtHelp
	txtUnknownCommand
	txtStartFirst

	txtCatalogTitle
	txtCatalogEmpty
	txtCatalogUnavailable
	txtAdded
	txtCurrency

	txtCartTitle
	txtCartEmpty
	txtCartTotal
	txtCleared
	txtCheckoutEmpty
	txtCheckoutSent
	txtCheckoutFailed
	txtOrderAccepted

	txtOrdersTitle
	txtOrdersEmpty
	txtOrdersFailed

	btnSendContact
	btnPrev
	btnNext
	btnCart
	btnClear
	btnCheckout
	btnBackToCatalog
	btnMenuCatalog
	btnMenuCart
	btnMenuOrders
	btnMenuLanguage

	txtStatusNew
	txtStatusProcessing
	txtStatusDone
	txtStatusCancelled
)

type phrase struct {
	uz, ru, en string
}

var phrases = map[textKey]phrase{
	txtAskPhone: {
		uz: "📱 Telefon raqamingizni yuboring",
		ru: "📱 Отправьте свой номер телефона",
		en: "📱 Please share your phone number",
	},
	txtUseContactButton: {
		uz: "Iltimos, pastdagi tugma orqali kontaktni yuboring",
		ru: "Пожалуйста, отправьте контакт кнопкой ниже",
		en: "Please use the button below to share your contact",
	},
	txtAskName: {
		uz: "Ismingizni kiriting",
		ru: "Введите ваше имя",
		en: "Please enter your name",
	},
	txtWelcome: {
		uz: "✅ Tayyor! Katalogdan mahsulot tanlang",
		ru: "✅ Готово! Выберите товары в каталоге",
		en: "✅ All set! Pick something from the catalog",
	},
	txtWelcomeBack: {
		uz: "👋 Xush kelibsiz!",
		ru: "👋 С возвращением!",
		en: "👋 Welcome back!",
	},
	txtChooseNewLanguage: {
		uz: "🌐 Yangi tilni tanlang",
		ru: "🌐 Выберите новый язык",
		en: "🌐 Choose a new language",
	},
	txtLanguageChanged: {
		uz: "✅ Til o'zgartirildi",
		ru: "✅ Язык изменён",
		en: "✅ Language changed",
	},
	txtUseMenu: {
		uz: "Iltimos, menyudan foydalaning",
		ru: "Пожалуйста, используйте меню",
		en: "Please use the menu",
	},
	txtHelp: {
		uz: "/start - boshlash\n/catalog - katalog\n/cart - savat\n/orders - buyurtmalarim\n/lang - tilni o'zgartirish",
		ru: "/start - начать\n/catalog - каталог\n/cart - корзина\n/orders - мои заказы\n/lang - сменить язык",
		en: "/start - start over\n/catalog - catalog\n/cart - cart\n/orders - my orders\n/lang - change language",
	},
	txtUnknownCommand: {
		uz: "Noma'lum buyruq. /help",
		ru: "Неизвестная команда. /help",
		en: "Unknown command. /help",
	},
	txtStartFirst: {
		uz: "Avval /start orqali ro'yxatdan o'ting",
		ru: "Сначала завершите регистрацию через /start",
		en: "Please finish signing up with /start first",
	},
	txtCatalogTitle: {
		uz: "🛍 Katalog",
		ru: "🛍 Каталог",
		en: "🛍 Catalog",
	},
	txtCatalogEmpty: {
		uz: "Katalog hozircha bo'sh",
		ru: "Каталог пока пуст",
		en: "The catalog is empty for now",
	},
	txtCatalogUnavailable: {
		uz: "Katalog vaqtincha mavjud emas, keyinroq urinib ko'ring",
		ru: "Каталог временно недоступен, попробуйте позже",
		en: "The catalog is unavailable right now, please try again later",
	},
	txtAdded: {
		uz: "Savatga qo'shildi",
		ru: "Добавлено в корзину",
		en: "Added to cart",
	},
	txtCurrency: {
		uz: "so'm",
		ru: "сум",
		en: "UZS",
	},
	txtCartTitle: {
		uz: "🛒 Savat",
		ru: "🛒 Корзина",
		en: "🛒 Cart",
	},
	txtCartEmpty: {
		uz: "🛒 Savat bo'sh",
		ru: "🛒 Корзина пуста",
		en: "🛒 Your cart is empty",
	},
	txtCartTotal: {
		uz: "Jami: %s",
		ru: "Итого: %s",
		en: "Total: %s",
	},
	txtCleared: {
		uz: "Savat tozalandi",
		ru: "Корзина очищена",
		en: "Cart cleared",
	},
	txtCheckoutEmpty: {
		uz: "Savat bo'sh",
		ru: "Корзина пуста",
		en: "Your cart is empty",
	},
	txtCheckoutSent: {
		uz: "Buyurtma yuborildi",
		ru: "Заказ отправлен",
		en: "Order sent",
	},
	txtCheckoutFailed: {
		uz: "Buyurtmani yuborib bo'lmadi. Keyinroq urinib ko'ring",
		ru: "Не удалось оформить заказ. Попробуйте позже",
		en: "Could not place the order. Please try again later",
	},
	txtOrderAccepted: {
		uz: "✅ Buyurtma #%d qabul qilindi!\nJami: %s",
		ru: "✅ Заказ #%d принят!\nИтого: %s",
		en: "✅ Order #%d accepted!\nTotal: %s",
	},
	txtOrdersTitle: {
		uz: "📦 Buyurtmalarim",
		ru: "📦 Мои заказы",
		en: "📦 My orders",
	},
	txtOrdersEmpty: {
		uz: "Sizda hali buyurtmalar yo'q",
		ru: "У вас пока нет заказов",
		en: "You have no orders yet",
	},
	txtOrdersFailed: {
		uz: "Buyurtmalarni yuklab bo'lmadi",
		ru: "Не удалось загрузить заказы",
		en: "Could not load your orders",
	},
	btnSendContact: {
		uz: "📱 Kontaktni yuborish",
		ru: "📱 Отправить контакт",
		en: "📱 Share contact",
	},
	btnPrev:          {uz: "⬅️", ru: "⬅️", en: "⬅️"},
	btnNext:          {uz: "➡️", ru: "➡️", en: "➡️"},
	btnCart:          {uz: "🛒 Savat (%d)", ru: "🛒 Корзина (%d)", en: "🛒 Cart (%d)"},
	btnClear:         {uz: "🗑 Tozalash", ru: "🗑 Очистить", en: "🗑 Clear"},
	btnCheckout:      {uz: "✅ Buyurtma berish", ru: "✅ Оформить заказ", en: "✅ Checkout"},
	btnBackToCatalog: {uz: "⬅️ Katalog", ru: "⬅️ Каталог", en: "⬅️ Catalog"},
	btnMenuCatalog:   {uz: "🛍 Katalog", ru: "🛍 Каталог", en: "🛍 Catalog"},
	btnMenuCart:      {uz: "🛒 Savat", ru: "🛒 Корзина", en: "🛒 Cart"},
	btnMenuOrders:    {uz: "📦 Buyurtmalarim", ru: "📦 Мои заказы", en: "📦 My orders"},
	btnMenuLanguage:  {uz: "🌐 Til", ru: "🌐 Язык", en: "🌐 Language"},

	txtStatusNew:        {uz: "Yangi", ru: "Новый", en: "New"},
	txtStatusProcessing: {uz: "Jarayonda", ru: "В обработке", en: "Processing"},
	txtStatusDone:       {uz: "Bajarildi", ru: "Выполнен", en: "Done"},
	txtStatusCancelled:  {uz: "Bekor qilindi", ru: "Отменён", en: "Cancelled"},
}

func text(lang state.Language, key textKey) string {
	p := phrases[key]
	switch lang {
	case state.LangRU:
		return p.ru
	case state.LangEN:
		return p.en
	default:
		return p.uz
	}
}

func textf(lang state.Language, key textKey, args ...any) string {
	return fmt.Sprintf(text(lang, key), args...)
}

func statusText(lang state.Language, status string) string {
	switch status {
	case "new":
		return text(lang, txtStatusNew)
	case "processing":
		return text(lang, txtStatusProcessing)
	case "done":
		return text(lang, txtStatusDone)
	case "cancelled":
		return text(lang, txtStatusCancelled)
	default:
		return status
	}
}

// menuControl identifies a main menu button independent of its label.
type menuControl int

const (
	controlNone menuControl = iota
	controlCatalog
	controlCart
	controlOrders
	controlLanguage
)

var menuButtons = map[menuControl]textKey{
	controlCatalog:  btnMenuCatalog,
	controlCart:     btnMenuCart,
	controlOrders:   btnMenuOrders,
	controlLanguage: btnMenuLanguage,
}

var menuLabels = buildMenuLabels()

func buildMenuLabels() map[string]menuControl {
	labels := make(map[string]menuControl)
	for control, key := range menuButtons {
		p := phrases[key]
		labels[p.uz] = control
		labels[p.ru] = control
		labels[p.en] = control
	}
	return labels
}

// resolveControl maps a reply keyboard label in any language to its control.
func resolveControl(label string) menuControl {
	return menuLabels[label]
}
