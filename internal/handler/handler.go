// Package handler contains the HTTP handlers of the shop API.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"shop-bot/internal/middleware"
	"shop-bot/internal/model"
	"shop-bot/internal/service"
)

const maxBodySize = 1 << 20

// Service is the business logic the handlers depend on.
type Service interface {
	Products(ctx context.Context) ([]model.Product, error)
	Categories(ctx context.Context) ([]model.Category, error)
	GetUser(ctx context.Context, telegramID string) (*model.UserProfile, bool, error)
	UpsertUser(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error)
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (*service.PlaceOrderResult, error)
	MyOrders(ctx context.Context, telegramID string) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*model.Order, error)
	ExportOrders(ctx context.Context, w io.Writer) error
}

type Handler struct {
	service   Service
	logger    *zap.Logger
	adminAuth *middleware.AdminAuth
}

func NewHandler(s Service, logger *zap.Logger, adminAuth *middleware.AdminAuth) *Handler {
	return &Handler{
		service:   s,
		logger:    logger,
		adminAuth: adminAuth,
	}
}

// flexString accepts a JSON string or number. Web clients send telegram_id
// as a number, the bot sends a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

type productResponse struct {
	ID         int64       `json:"id"`
	NameUZ     string      `json:"name_uz"`
	NameRU     string      `json:"name_ru"`
	NameEN     string      `json:"name_en"`
	Price      json.Number `json:"price"`
	Image      string      `json:"image"`
	CategoryID int64       `json:"category_id"`
	SortOrder  int         `json:"sort_order"`
}

type categoryResponse struct {
	ID        int64  `json:"id"`
	NameUZ    string `json:"name_uz"`
	NameRU    string `json:"name_ru"`
	NameEN    string `json:"name_en"`
	Image     string `json:"image"`
	Count     int    `json:"count"`
	SortOrder int    `json:"sort_order"`
}

type userResponse struct {
	TelegramID string `json:"telegram_id"`
	Language   string `json:"language"`
	Phone      string `json:"phone"`
	FullName   string `json:"full_name"`
	Username   string `json:"username"`
}

type userRequest struct {
	TelegramID flexString `json:"telegram_id"`
	Language   string     `json:"language"`
	Phone      string     `json:"phone"`
	FullName   string     `json:"full_name"`
	Username   string     `json:"username"`
}

type orderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type orderRequest struct {
	userRequest
	Comment        string             `json:"comment"`
	Address        string             `json:"address"`
	WhatsApp       string             `json:"whatsapp"`
	Email          string             `json:"email"`
	IdempotencyKey string             `json:"idempotency_key"`
	Items          []orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	ProductID     int64       `json:"product_id"`
	ProductNameUZ string      `json:"product_name_uz"`
	ProductNameRU string      `json:"product_name_ru"`
	ProductNameEN string      `json:"product_name_en"`
	Quantity      int         `json:"quantity"`
	Price         json.Number `json:"price"`
}

type orderResponse struct {
	ID        int64               `json:"id"`
	Total     json.Number         `json:"total"`
	Status    string              `json:"status"`
	Comment   string              `json:"comment"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []orderItemResponse `json:"items"`
}

func (u userRequest) profile() model.ProfileUpdate {
	return model.ProfileUpdate{
		TelegramID: string(u.TelegramID),
		Language:   strings.TrimSpace(u.Language),
		Phone:      strings.TrimSpace(u.Phone),
		FullName:   strings.TrimSpace(u.FullName),
		Username:   strings.TrimSpace(u.Username),
	}
}

// Products lists the active catalog.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context())
	if err != nil {
		h.internalError(w, "list products error", err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ID:         p.ID,
			NameUZ:     p.NameUZ,
			NameRU:     p.NameRU,
			NameEN:     p.NameEN,
			Price:      json.Number(p.Price.String()),
			Image:      p.ImageURL,
			CategoryID: p.CategoryID,
			SortOrder:  p.SortOrder,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"products": out})
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.internalError(w, "list categories error", err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:        c.ID,
			NameUZ:    c.NameUZ,
			NameRU:    c.NameRU,
			NameEN:    c.NameEN,
			Image:     c.ImageURL,
			Count:     c.ActiveCount,
			SortOrder: c.SortOrder,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// GetUser answers {exists, user}. A missing id is simply "not found".
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	p, exists, err := h.service.GetUser(r.Context(), r.URL.Query().Get("telegram_id"))
	if err != nil {
		h.internalError(w, "get user error", err)
		return
	}
	if !exists {
		h.writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"exists": true,
		"user": userResponse{
			TelegramID: p.TelegramID,
			Language:   p.Language,
			Phone:      p.Phone,
			FullName:   p.FullName,
			Username:   p.Username,
		},
	})
}

// UpsertUser writes only the fields present in the body.
func (h *Handler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.service.UpsertUser(r.Context(), req.profile()); err != nil {
		if errors.Is(err, service.ErrTelegramIDRequired) {
			http.Error(w, "telegram_id required", http.StatusBadRequest)
			return
		}
		h.internalError(w, "upsert user error", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := service.PlaceOrderInput{
		Profile:         req.profile(),
		Comment:         strings.TrimSpace(req.Comment),
		Address:         strings.TrimSpace(req.Address),
		ContactWhatsApp: strings.TrimSpace(req.WhatsApp),
		ContactEmail:    strings.TrimSpace(req.Email),
		IdempotencyKey:  req.IdempotencyKey,
		Items:           make([]service.OrderLine, 0, len(req.Items)),
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, service.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	res, err := h.service.PlaceOrder(r.Context(), in)
	switch {
	case errors.Is(err, service.ErrTelegramIDRequired):
		http.Error(w, "telegram_id required", http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrEmptyCart):
		http.Error(w, "cart is empty", http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrIdempotencyKeyUsed):
		http.Error(w, "idempotency key already used", http.StatusConflict)
		return
	case err != nil:
		h.internalError(w, "create order error", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"order_id": res.OrderID,
		"total":    json.Number(res.Total.String()),
	})
}

// MyOrders lists a customer's orders, newest first. Unknown ids get an
// empty list.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.MyOrders(r.Context(), r.URL.Query().Get("telegram_id"))
	if err != nil {
		h.internalError(w, "list orders error", err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items := make([]orderItemResponse, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, orderItemResponse{
				ProductID:     it.ProductID,
				ProductNameUZ: it.ProductNameUZ,
				ProductNameRU: it.ProductNameRU,
				ProductNameEN: it.ProductNameEN,
				Quantity:      it.Quantity,
				Price:         json.Number(it.Price.String()),
			})
		}
		out = append(out, orderResponse{
			ID:        o.ID,
			Total:     json.Number(o.Total.String()),
			Status:    string(o.Status),
			Comment:   o.Comment,
			CreatedAt: o.CreatedAt,
			Items:     items,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), orderID, req.Status)
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrStatusTransition):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.internalError(w, "update order status error", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"order_id": order.ID,
		"status":   string(order.Status),
	})
}

// ExportOrders serves every order as an .xlsx workbook.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportOrders(r.Context(), &buf); err != nil {
		h.internalError(w, "export orders error", err)
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write export error", zap.Error(err))
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response error", zap.Error(err))
	}
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
