package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shop-bot/internal/metrics"
	"shop-bot/internal/model"
	"shop-bot/internal/notify"
	"shop-bot/internal/storage"
)

var (
	ErrTelegramIDRequired = errors.New("telegram_id required")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrStatusTransition   = errors.New("order status transition not allowed")
	ErrIdempotencyKeyUsed = errors.New("idempotency key already used by another customer")
)

type Repository interface {
	ActiveProducts(ctx context.Context) ([]model.Product, error)
	ProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	Categories(ctx context.Context) ([]model.Category, error)
	GetUser(ctx context.Context, telegramID string) (*model.UserProfile, error)
	UpsertUser(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error)
	CreateOrder(ctx context.Context, upd model.ProfileUpdate, order *model.Order) (*model.Order, bool, error)
	OrdersByTelegramID(ctx context.Context, telegramID string) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, next model.OrderStatus) (*model.Order, model.OrderStatus, error)
	AllOrders(ctx context.Context) ([]model.Order, error)
}

// ProductLister serves the public catalog; usually a cache in front of the
// repository.
type ProductLister interface {
	ActiveProducts(ctx context.Context) ([]model.Product, error)
}

type Options struct {
	AdminChatID   string
	NotifyTimeout time.Duration
}

type Service struct {
	repo          Repository
	catalog       ProductLister
	notifier      notify.Notifier
	adminChatID   string
	notifyTimeout time.Duration
	logger        *zap.Logger
	wg            sync.WaitGroup
}

func New(repo Repository, catalog ProductLister, notifier notify.Notifier, opts Options, logger *zap.Logger) *Service {
	if catalog == nil {
		catalog = repo
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}

	return &Service{
		repo:          repo,
		catalog:       catalog,
		notifier:      notifier,
		adminChatID:   opts.AdminChatID,
		notifyTimeout: opts.NotifyTimeout,
		logger:        logger,
	}
}

// Close waits for in-flight notifications.
func (s *Service) Close() {
	s.wg.Wait()
}

func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	return s.catalog.ActiveProducts(ctx)
}

func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	return s.repo.Categories(ctx)
}

// GetUser returns the profile and whether it exists. An empty id never
// matches.
func (s *Service) GetUser(ctx context.Context, telegramID string) (*model.UserProfile, bool, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return nil, false, nil
	}

	p, err := s.repo.GetUser(ctx, telegramID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return p, true, nil
}

func (s *Service) UpsertUser(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error) {
	upd.TelegramID = strings.TrimSpace(upd.TelegramID)
	if upd.TelegramID == "" {
		return nil, ErrTelegramIDRequired
	}
	return s.repo.UpsertUser(ctx, upd)
}

type OrderLine struct {
	ProductID int64
	Quantity  int
}

type PlaceOrderInput struct {
	Profile         model.ProfileUpdate
	Comment         string
	Address         string
	ContactWhatsApp string
	ContactEmail    string
	IdempotencyKey  string
	Items           []OrderLine
}

type PlaceOrderResult struct {
	OrderID int64
	Total   decimal.Decimal
	Created bool
}

// PlaceOrder prices the submitted lines against the active catalog, stores
// the order and notifies the customer and the admin chat. Lines with a
// non-positive quantity or an unknown/inactive product are dropped;
// repeated products are merged.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	in.Profile.TelegramID = strings.TrimSpace(in.Profile.TelegramID)
	if in.Profile.TelegramID == "" {
		return nil, ErrTelegramIDRequired
	}
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}

	quantities := make(map[int64]int, len(in.Items))
	ids := make([]int64, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Quantity <= 0 || line.ProductID <= 0 {
			continue
		}
		if _, seen := quantities[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}
	if len(ids) == 0 {
		return nil, ErrEmptyCart
	}

	products, err := s.repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	order := &model.Order{
		Comment:         in.Comment,
		Address:         in.Address,
		ContactWhatsApp: in.ContactWhatsApp,
		ContactEmail:    in.ContactEmail,
		Status:          model.StatusNew,
		IdempotencyKey:  strings.TrimSpace(in.IdempotencyKey),
		Total:           decimal.Zero,
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		item := model.OrderItem{
			ProductID:     p.ID,
			ProductNameUZ: p.NameUZ,
			ProductNameRU: p.NameRU,
			ProductNameEN: p.NameEN,
			Quantity:      quantities[id],
			Price:         p.Price,
		}
		order.Items = append(order.Items, item)
		order.Total = order.Total.Add(item.LineTotal())
	}
	if len(order.Items) == 0 {
		return nil, ErrEmptyCart
	}

	saved, created, err := s.repo.CreateOrder(ctx, in.Profile, order)
	if errors.Is(err, storage.ErrIdempotencyReused) {
		s.logger.Warn("Idempotency key reused by another customer",
			zap.String("telegram_id", in.Profile.TelegramID))
		return nil, ErrIdempotencyKeyUsed
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if !created {
		metrics.OrdersReplayed.Inc()
		s.logger.Info("Order replayed from idempotency key",
			zap.Int64("order_id", saved.ID),
			zap.String("telegram_id", in.Profile.TelegramID))
		return &PlaceOrderResult{OrderID: saved.ID, Total: saved.Total, Created: false}, nil
	}

	metrics.OrdersCreated.Inc()
	s.notify("customer", saved.Customer.TelegramID, customerOrderText(saved))
	s.notify("admin", s.adminChatID, adminOrderText(saved))

	return &PlaceOrderResult{OrderID: saved.ID, Total: saved.Total, Created: true}, nil
}

func (s *Service) MyOrders(ctx context.Context, telegramID string) ([]model.Order, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return nil, nil
	}
	return s.repo.OrdersByTelegramID(ctx, telegramID)
}

func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*model.Order, error) {
	next, ok := model.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, previous, err := s.repo.UpdateOrderStatus(ctx, orderID, next)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrOrderNotFound
	case errors.Is(err, storage.ErrInvalidTransition):
		return nil, fmt.Errorf("%w: %v", ErrStatusTransition, err)
	case err != nil:
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.Info("Order status changed",
		zap.Int64("order_id", order.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)))

	s.notify("customer", order.Customer.TelegramID, customerStatusText(order))
	s.notify("admin", s.adminChatID, adminStatusText(order, previous))
	return order, nil
}

func (s *Service) ExportOrders(ctx context.Context, w io.Writer) error {
	orders, err := s.repo.AllOrders(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	return writeOrdersWorkbook(w, orders)
}

// notify sends in the background so callers never wait on Telegram.
func (s *Service) notify(recipient, chatID, text string) {
	if chatID == "" {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, chatID, text); err != nil {
			metrics.NotificationsFailed.WithLabelValues(recipient).Inc()
			s.logger.Warn("Failed to send notification",
				zap.String("recipient", recipient),
				zap.String("chat_id", chatID),
				zap.Error(err))
		}
	}()
}
