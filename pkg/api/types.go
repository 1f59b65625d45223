package api

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         int64           `json:"id"`
	NameUZ     string          `json:"name_uz"`
	NameRU     string          `json:"name_ru"`
	NameEN     string          `json:"name_en"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	CategoryID int64           `json:"category_id"`
	SortOrder  int             `json:"sort_order"`
}

// Name returns the product name in lang; EN falls back to UZ when empty.
func (p Product) Name(lang string) string {
	switch strings.ToUpper(lang) {
	case "RU":
		if p.NameRU != "" {
			return p.NameRU
		}
	case "EN":
		if p.NameEN != "" {
			return p.NameEN
		}
	}
	return p.NameUZ
}

type User struct {
	TelegramID string `json:"telegram_id"`
	Language   string `json:"language"`
	Phone      string `json:"phone"`
	FullName   string `json:"full_name"`
	Username   string `json:"username"`
}

// UserUpdate is a partial profile; empty fields leave stored values alone.
type UserUpdate struct {
	TelegramID string `json:"telegram_id"`
	Language   string `json:"language,omitempty"`
	Phone      string `json:"phone,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	Username   string `json:"username,omitempty"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderRequest struct {
	TelegramID     string             `json:"telegram_id"`
	Language       string             `json:"language"`
	Phone          string             `json:"phone"`
	FullName       string             `json:"full_name"`
	Comment        string             `json:"comment"`
	Items          []OrderItemRequest `json:"items"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
}

type OrderResponse struct {
	Status  string          `json:"status"`
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

type OrderItem struct {
	ProductID     int64           `json:"product_id"`
	ProductNameUZ string          `json:"product_name_uz"`
	ProductNameRU string          `json:"product_name_ru"`
	ProductNameEN string          `json:"product_name_en"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
}

// Name follows the same fallback rules as Product.Name.
func (i OrderItem) Name(lang string) string {
	return Product{NameUZ: i.ProductNameUZ, NameRU: i.ProductNameRU, NameEN: i.ProductNameEN}.Name(lang)
}

type Order struct {
	ID        int64           `json:"id"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	Comment   string          `json:"comment"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []OrderItem     `json:"items"`
}

type StatusUpdate struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}
