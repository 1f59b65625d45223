package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shop-bot/internal/bot/state"
	"shop-bot/pkg/api"
)

const pageSize = 6

// Catalog caches the active product list for the lifetime of the process.
// It is filled on first use and only reloaded by Refresh.
type Catalog struct {
	backend Backend
	logger  *zap.Logger

	mu    sync.Mutex
	items []api.Product
	byID  map[int64]api.Product
}

func NewCatalog(backend Backend, logger *zap.Logger) *Catalog {
	return &Catalog{backend: backend, logger: logger}
}

// Products returns the cached snapshot, fetching it when empty.
func (c *Catalog) Products(ctx context.Context) ([]api.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) > 0 {
		return c.items, nil
	}
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.items, nil
}

// Lookup finds a product in the snapshot. Fetch failures and unknown ids
// both report ok=false.
func (c *Catalog) Lookup(ctx context.Context, id int64) (api.Product, bool) {
	if _, err := c.Products(ctx); err != nil {
		c.logger.Warn("Catalog unavailable for lookup",
			zap.Int64("product_id", id),
			zap.Error(err))
		return api.Product{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.byID[id]
	return p, ok
}

// Refresh drops the snapshot and loads a new one. It returns the number of
// products now cached.
func (c *Catalog) Refresh(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return 0, err
	}
	return len(c.items), nil
}

func (c *Catalog) load(ctx context.Context) error {
	products, err := c.backend.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}

	byID := make(map[int64]api.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.items = products
	c.byID = byID
	c.logger.Info("Catalog loaded", zap.Int("products", len(products)))
	return nil
}

type page struct {
	Number int
	Total  int
	Items  []api.Product
}

// paginate clamps requested into [1, total] and slices out that page.
// An empty catalog still has one (empty) page.
func paginate(products []api.Product, requested int) page {
	total := (len(products) + pageSize - 1) / pageSize
	if total < 1 {
		total = 1
	}

	n := requested
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}

	start := (n - 1) * pageSize
	end := start + pageSize
	if end > len(products) {
		end = len(products)
	}
	if start > end {
		start = end
	}

	return page{Number: n, Total: total, Items: products[start:end]}
}

// renderPage shows catalog page n. messageID == 0 sends a new message,
// otherwise the message is edited in place.
func (b *Bot) renderPage(ctx context.Context, chatID int64, st *state.ConversationState, n int, messageID int) {
	lang := st.Lang()

	products, err := b.catalog.Products(ctx)
	if err != nil {
		b.logger.Error("Failed to load catalog",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, text(lang, txtCatalogUnavailable))
		return
	}

	title := text(lang, txtCatalogTitle)
	if len(products) == 0 {
		title = text(lang, txtCatalogEmpty)
	}

	pg := paginate(products, n)
	b.present(chatID, messageID, title, catalogKeyboard(lang, pg, cartUnits(products, st.Cart)))
}

// addItem puts one unit of productID into the cart. Ids that are not in the
// catalog leave the cart as it was and report false.
func (b *Bot) addItem(ctx context.Context, chatID int64, productID int64) (*state.ConversationState, bool) {
	if _, ok := b.catalog.Lookup(ctx, productID); !ok {
		b.logger.Debug("Ignoring unknown product",
			zap.Int64("chat_id", chatID),
			zap.Int64("product_id", productID))
		return nil, false
	}

	st := b.updateState(ctx, chatID, func(st *state.ConversationState) {
		st.Cart.Add(productID, 1)
		st.CheckoutKey = ""
	})
	return st, st != nil
}

func (b *Bot) handleAddCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, chatID int64, messageID int, cb Callback) {
	updated, ok := b.addItem(ctx, chatID, cb.ProductID)
	if !ok {
		b.answer(cq.ID, "", false)
		return
	}

	b.answer(cq.ID, text(updated.Lang(), txtAdded), false)
	b.renderPage(ctx, chatID, updated, cb.Page, messageID)
}
