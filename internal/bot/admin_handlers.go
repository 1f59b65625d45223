package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shop-bot/pkg/api"
)

// handleAdminCommand runs admin-only commands. It reports false for
// commands it does not own so regular routing can take over.
func (b *Bot) handleAdminCommand(ctx context.Context, chatID int64, cmd string, args []string) bool {
	switch cmd {
	case "status":
		if len(args) < 2 {
			b.sendError(chatID, "Usage: /status <order_id> <new|processing|done|cancelled>")
			return true
		}
		b.handleStatusUpdate(ctx, chatID, args[0], args[1])
	case "export":
		b.handleExportOrders(ctx, chatID)
	case "refresh":
		b.handleRefreshCatalog(ctx, chatID)
	default:
		return false
	}
	return true
}

func (b *Bot) handleStatusUpdate(ctx context.Context, chatID int64, orderIDStr string, newStatus string) {
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil || orderID <= 0 {
		b.sendError(chatID, "Invalid order ID")
		return
	}

	upd, err := b.backend.UpdateOrderStatus(ctx, orderID, newStatus)
	if err != nil {
		b.logger.Error("Failed to update order status",
			zap.Int64("order_id", orderID),
			zap.String("status", newStatus),
			zap.Error(err))

		var statusErr *api.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.Code {
			case http.StatusNotFound:
				b.sendError(chatID, fmt.Sprintf("Order #%d not found", orderID))
				return
			case http.StatusBadRequest:
				b.sendError(chatID, "Unknown status. Use one of: new, processing, done, cancelled")
				return
			case http.StatusConflict:
				b.sendError(chatID, fmt.Sprintf("Order #%d cannot move to %s", orderID, newStatus))
				return
			}
		}
		b.sendError(chatID, "Failed to update order status")
		return
	}

	b.sendText(chatID, fmt.Sprintf("✅ Order #%d is now %s", upd.OrderID, upd.Status))
}

func (b *Bot) handleExportOrders(ctx context.Context, chatID int64) {
	data, err := b.backend.ExportOrders(ctx)
	if err != nil {
		b.logger.Error("Failed to export orders", zap.Error(err))
		b.sendError(chatID, "Failed to export orders")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102")),
		Bytes: data,
	})
	doc.Caption = "📊 All orders export"

	if _, err := b.bot.Send(doc); err != nil {
		b.logger.Error("Failed to send Excel file", zap.Error(err))
		b.sendError(chatID, "Failed to send exported file")
	}
}

func (b *Bot) handleRefreshCatalog(ctx context.Context, chatID int64) {
	n, err := b.catalog.Refresh(ctx)
	if err != nil {
		b.logger.Error("Failed to refresh catalog", zap.Error(err))
		b.sendError(chatID, "Failed to refresh catalog")
		return
	}
	b.sendText(chatID, fmt.Sprintf("🔄 Catalog refreshed: %d products", n))
}
