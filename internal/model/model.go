package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusProcessing OrderStatus = "processing"
	StatusDone       OrderStatus = "done"
	StatusCancelled  OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case StatusNew, StatusProcessing, StatusDone, StatusCancelled:
		return st, true
	}
	return "", false
}

// CanTransitionTo reports whether an order in s may move to next.
// done and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusNew:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusDone || next == StatusCancelled
	default:
		return false
	}
}

type Category struct {
	ID          int64  `db:"id"`
	NameUZ      string `db:"name_uz"`
	NameRU      string `db:"name_ru"`
	NameEN      string `db:"name_en"`
	ImageURL    string `db:"image_url"`
	SortOrder   int    `db:"sort_order"`
	ActiveCount int    `db:"active_count"`
}

type Product struct {
	ID         int64           `db:"id" json:"id"`
	CategoryID int64           `db:"category_id" json:"category_id"`
	NameUZ     string          `db:"name_uz" json:"name_uz"`
	NameRU     string          `db:"name_ru" json:"name_ru"`
	NameEN     string          `db:"name_en" json:"name_en"`
	Price      decimal.Decimal `db:"price" json:"price"`
	ImageURL   string          `db:"image_url" json:"image_url"`
	IsActive   bool            `db:"is_active" json:"is_active"`
	SortOrder  int             `db:"sort_order" json:"sort_order"`
}

type UserProfile struct {
	ID         int64     `db:"id"`
	TelegramID string    `db:"telegram_id"`
	Language   string    `db:"language"`
	Phone      string    `db:"phone"`
	FullName   string    `db:"full_name"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
}

// ProfileUpdate is a partial profile write. Empty fields leave the stored
// value untouched.
type ProfileUpdate struct {
	TelegramID string
	Language   string
	Phone      string
	FullName   string
	Username   string
}

func (u ProfileUpdate) ApplyTo(p *UserProfile) {
	if p.TelegramID == "" {
		p.TelegramID = u.TelegramID
	}
	if u.Language != "" {
		p.Language = u.Language
	}
	if u.Phone != "" {
		p.Phone = u.Phone
	}
	if u.FullName != "" {
		p.FullName = u.FullName
	}
	if u.Username != "" {
		p.Username = u.Username
	}
}

type Order struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	Total           decimal.Decimal `db:"total"`
	Comment         string          `db:"comment"`
	Address         string          `db:"address"`
	ContactWhatsApp string          `db:"contact_whatsapp"`
	ContactEmail    string          `db:"contact_email"`
	Status          OrderStatus     `db:"status"`
	IdempotencyKey  string          `db:"idempotency_key"`
	CreatedAt       time.Time       `db:"created_at"`

	Customer UserProfile `db:"-"`
	Items    []OrderItem `db:"-"`
}

type OrderItem struct {
	ID            int64           `db:"id"`
	OrderID       int64           `db:"order_id"`
	ProductID     int64           `db:"product_id"`
	ProductNameUZ string          `db:"name_uz"`
	ProductNameRU string          `db:"name_ru"`
	ProductNameEN string          `db:"name_en"`
	Quantity      int             `db:"quantity"`
	Price         decimal.Decimal `db:"price"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Name returns the item name in lang, falling back to UZ.
func (i OrderItem) Name(lang string) string {
	switch lang {
	case "RU":
		if i.ProductNameRU != "" {
			return i.ProductNameRU
		}
	case "EN":
		if i.ProductNameEN != "" {
			return i.ProductNameEN
		}
	}
	return i.ProductNameUZ
}
