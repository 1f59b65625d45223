package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

type cartLine struct {
	Product  api.Product
	Quantity int
	Sum      decimal.Decimal
}

// cartLines resolves the cart against the catalog snapshot in catalog order.
// Products that vanished from the catalog are skipped.
func cartLines(products []api.Product, cart state.Cart) ([]cartLine, decimal.Decimal) {
	lines := make([]cartLine, 0, len(cart))
	total := decimal.Zero

	for _, p := range products {
		qty, ok := cart[p.ID]
		if !ok || qty <= 0 {
			continue
		}
		sum := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		lines = append(lines, cartLine{Product: p, Quantity: qty, Sum: sum})
		total = total.Add(sum)
	}
	return lines, total
}

// cartUnits counts the units of cart that resolve in the catalog snapshot.
func cartUnits(products []api.Product, cart state.Cart) int {
	lines, _ := cartLines(products, cart)
	units := 0
	for _, l := range lines {
		units += l.Quantity
	}
	return units
}

// staleCartIDs lists cart entries that are no longer in the catalog.
func staleCartIDs(products []api.Product, cart state.Cart) []int64 {
	known := make(map[int64]struct{}, len(products))
	for _, p := range products {
		known[p.ID] = struct{}{}
	}

	var stale []int64
	for id := range cart {
		if _, ok := known[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}

func cartText(lang state.Language, lines []cartLine, total decimal.Decimal) string {
	if len(lines) == 0 {
		return text(lang, txtCartEmpty)
	}

	currency := text(lang, txtCurrency)

	var sb strings.Builder
	sb.WriteString(text(lang, txtCartTitle))
	sb.WriteString("\n\n")
	for _, l := range lines {
		fmt.Fprintf(&sb, "• %s × %d = %s %s\n", l.Product.Name(string(lang)), l.Quantity, formatPrice(l.Sum), currency)
	}
	sb.WriteString("\n")
	sb.WriteString(textf(lang, txtCartTotal, formatPrice(total)+" "+currency))
	return sb.String()
}

func (b *Bot) renderCart(ctx context.Context, chatID int64, st *state.ConversationState, messageID int) {
	lang := st.Lang()

	products, err := b.catalog.Products(ctx)
	if err != nil {
		b.logger.Error("Failed to load catalog for cart",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, text(lang, txtCatalogUnavailable))
		return
	}

	if stale := staleCartIDs(products, st.Cart); len(stale) > 0 {
		b.logger.Info("Dropping products that left the catalog from cart",
			zap.Int64("chat_id", chatID),
			zap.Int64s("product_ids", stale))
		if updated := b.updateState(ctx, chatID, func(st *state.ConversationState) {
			for _, id := range stale {
				st.Cart.Set(id, 0)
			}
			st.CheckoutKey = ""
		}); updated != nil {
			st = updated
		}
	}

	lines, total := cartLines(products, st.Cart)
	b.present(chatID, messageID, cartText(lang, lines, total), cartKeyboard(lang, len(lines) == 0))
}

func (b *Bot) clearCart(ctx context.Context, chatID int64) *state.ConversationState {
	return b.updateState(ctx, chatID, func(st *state.ConversationState) {
		st.Cart = state.Cart{}
		st.CheckoutKey = ""
	})
}

// orderRequest builds the backend payload from the chat state. Only
// positive quantities are sent.
func orderRequest(chatID int64, st *state.ConversationState, key string) api.OrderRequest {
	req := api.OrderRequest{
		TelegramID:     telegramID(chatID),
		Language:       string(st.Lang()),
		Phone:          st.Phone,
		FullName:       st.FullName,
		Comment:        "",
		Items:          make([]api.OrderItemRequest, 0, len(st.Cart)),
		IdempotencyKey: key,
	}

	for id, qty := range st.Cart {
		if qty <= 0 {
			continue
		}
		req.Items = append(req.Items, api.OrderItemRequest{ProductID: id, Quantity: qty})
	}
	return req
}

type checkoutResult int

const (
	checkoutPlaced checkoutResult = iota
	checkoutEmpty
	checkoutFailed
)

// checkout submits the cart. The idempotency key survives failed attempts
// so a retry of the same cart cannot create a second order; any cart change
// drops it.
func (b *Bot) checkout(ctx context.Context, chatID int64, st *state.ConversationState) (checkoutResult, *api.OrderResponse) {
	if len(st.Cart) == 0 {
		return checkoutEmpty, nil
	}

	key := st.CheckoutKey
	if key == "" {
		key = uuid.NewString()
		if updated := b.updateState(ctx, chatID, func(s *state.ConversationState) {
			s.CheckoutKey = key
		}); updated != nil {
			st = updated
		}
	}

	req := orderRequest(chatID, st, key)
	if len(req.Items) == 0 {
		return checkoutEmpty, nil
	}

	resp, err := b.backend.CreateOrder(ctx, req)
	if err != nil {
		b.logger.Error("Failed to create order",
			zap.Int64("chat_id", chatID),
			zap.Int("items", len(req.Items)),
			zap.Error(err))
		return checkoutFailed, nil
	}

	b.logger.Info("Order placed",
		zap.Int64("chat_id", chatID),
		zap.Int64("order_id", resp.OrderID),
		zap.String("total", resp.Total.String()))

	b.clearCart(ctx, chatID)
	return checkoutPlaced, resp
}
