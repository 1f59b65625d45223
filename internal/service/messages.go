package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"shop-bot/internal/model"
)

func formatAmount(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.StringFixed(0)
	}
	return d.StringFixed(2)
}

func customerOrderText(o *model.Order) string {
	total := formatAmount(o.Total)
	switch o.Customer.Language {
	case "RU":
		return fmt.Sprintf("✅ Заказ принят!\n\n#%d сумма: %s", o.ID, total)
	case "EN":
		return fmt.Sprintf("✅ Order accepted!\n\n#%d total: %s", o.ID, total)
	default:
		return fmt.Sprintf("✅ Buyurtma qabul qilindi!\n\n#%d summa: %s", o.ID, total)
	}
}

func adminOrderText(o *model.Order) string {
	lines := []string{
		fmt.Sprintf("New order #%d", o.ID),
		fmt.Sprintf("User: %s (%s)", o.Customer.FullName, o.Customer.TelegramID),
		fmt.Sprintf("Phone: %s", o.Customer.Phone),
	}
	if o.Customer.Username != "" {
		lines = append(lines, "Telegram: @"+o.Customer.Username)
	}
	if o.ContactWhatsApp != "" {
		lines = append(lines, "WhatsApp: "+o.ContactWhatsApp)
	}
	if o.ContactEmail != "" {
		lines = append(lines, "Email: "+o.ContactEmail)
	}
	lines = append(lines, "Lang: "+o.Customer.Language)
	if o.Address != "" {
		lines = append(lines, "Address: "+o.Address)
	}
	if o.Comment != "" {
		lines = append(lines, "Comment: "+o.Comment)
	}

	lines = append(lines, "Items:")
	for _, item := range o.Items {
		lines = append(lines, fmt.Sprintf(" - %s x%d = %s",
			item.ProductNameUZ, item.Quantity, formatAmount(item.LineTotal())))
	}
	lines = append(lines, "Total: "+formatAmount(o.Total))

	return strings.Join(lines, "\n")
}

var statusNames = map[string]map[model.OrderStatus]string{
	"UZ": {
		model.StatusNew:        "yangi",
		model.StatusProcessing: "jarayonda",
		model.StatusDone:       "bajarildi",
		model.StatusCancelled:  "bekor qilindi",
	},
	"RU": {
		model.StatusNew:        "новый",
		model.StatusProcessing: "в обработке",
		model.StatusDone:       "выполнен",
		model.StatusCancelled:  "отменён",
	},
	"EN": {
		model.StatusNew:        "new",
		model.StatusProcessing: "processing",
		model.StatusDone:       "done",
		model.StatusCancelled:  "cancelled",
	},
}

func customerStatusText(o *model.Order) string {
	lang := o.Customer.Language
	names, ok := statusNames[lang]
	if !ok {
		lang, names = "UZ", statusNames["UZ"]
	}

	status := names[o.Status]
	switch lang {
	case "RU":
		return fmt.Sprintf("ℹ️ Статус вашего заказа #%d: %s", o.ID, status)
	case "EN":
		return fmt.Sprintf("ℹ️ Your order #%d is now %s", o.ID, status)
	default:
		return fmt.Sprintf("ℹ️ Buyurtma #%d holati: %s", o.ID, status)
	}
}

func adminStatusText(o *model.Order, previous model.OrderStatus) string {
	return fmt.Sprintf("Order #%d: %s -> %s (%s, %s)",
		o.ID, previous, o.Status, o.Customer.FullName, o.Customer.TelegramID)
}
