package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

const maxListedOrders = 10

func (b *Bot) showOrders(ctx context.Context, chatID int64, st *state.ConversationState) {
	lang := st.Lang()

	orders, err := b.backend.MyOrders(ctx, telegramID(chatID))
	if err != nil {
		b.logger.Error("Failed to load orders",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, text(lang, txtOrdersFailed))
		return
	}

	if len(orders) == 0 {
		b.sendText(chatID, text(lang, txtOrdersEmpty))
		return
	}

	b.sendText(chatID, ordersText(lang, orders))
}

func ordersText(lang state.Language, orders []api.Order) string {
	if len(orders) > maxListedOrders {
		orders = orders[:maxListedOrders]
	}
	currency := text(lang, txtCurrency)

	var sb strings.Builder
	sb.WriteString(text(lang, txtOrdersTitle))
	for _, o := range orders {
		fmt.Fprintf(&sb, "\n\n#%d · %s · %s %s · %s",
			o.ID,
			o.CreatedAt.Format("02.01.2006"),
			formatPrice(o.Total), currency,
			statusText(lang, o.Status))
		for _, item := range o.Items {
			fmt.Fprintf(&sb, "\n  • %s × %d", item.Name(string(lang)), item.Quantity)
		}
	}
	return sb.String()
}
