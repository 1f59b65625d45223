package state

import (
	"context"
	"strings"
)

type Stage string

const (
	StageLanguage   Stage = "language"
	StageContact    Stage = "contact"
	StageName       Stage = "name"
	StageChangeLang Stage = "change_lang"
	StageDone       Stage = "done"
)

type Language string

const (
	LangUZ Language = "UZ"
	LangRU Language = "RU"
	LangEN Language = "EN"
)

// DefaultLanguage is used whenever a chat has not picked one yet.
const DefaultLanguage = LangUZ

var supportedLanguages = []Language{LangUZ, LangRU, LangEN}

// ParseLanguage matches user input against the supported language tokens.
// The input only has to start with the token, so "ru", "RU 🇷🇺" and
// "Russian" all select RU.
func ParseLanguage(text string) (Language, bool) {
	text = strings.ToUpper(strings.TrimSpace(text))
	for _, lang := range supportedLanguages {
		if strings.HasPrefix(text, string(lang)) {
			return lang, true
		}
	}
	return "", false
}

// LanguageOrDefault maps a stored language code to a supported one.
func LanguageOrDefault(code string) Language {
	lang := Language(strings.ToUpper(strings.TrimSpace(code)))
	for _, l := range supportedLanguages {
		if l == lang {
			return l
		}
	}
	return DefaultLanguage
}

// Cart maps product id to quantity. Quantities are always >= 1; a product
// with nothing in the cart has no entry.
type Cart map[int64]int

// Add changes the quantity of productID by delta and drops the entry when
// it reaches zero.
func (c Cart) Add(productID int64, delta int) {
	c.Set(productID, c[productID]+delta)
}

// Set stores an absolute quantity. Non-positive quantities remove the entry.
func (c Cart) Set(productID int64, qty int) {
	if qty <= 0 {
		delete(c, productID)
		return
	}
	c[productID] = qty
}

// Normalize removes entries that violate the quantity invariant.
func (c Cart) Normalize() {
	for id, qty := range c {
		if qty <= 0 {
			delete(c, id)
		}
	}
}

type ConversationState struct {
	Stage       Stage    `json:"stage"`
	Language    Language `json:"language,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	Username    string   `json:"username,omitempty"`
	Cart        Cart     `json:"cart"`
	CheckoutKey string   `json:"checkout_key,omitempty"`
}

// New returns the state of a chat that has never talked to the bot.
func New() *ConversationState {
	return &ConversationState{Stage: StageLanguage, Cart: Cart{}}
}

// Lang is the chat language with the default applied.
func (s *ConversationState) Lang() Language {
	if s.Language == "" {
		return DefaultLanguage
	}
	return s.Language
}

func (s *ConversationState) Clone() *ConversationState {
	c := *s
	c.Cart = make(Cart, len(s.Cart))
	for id, qty := range s.Cart {
		c.Cart[id] = qty
	}
	return &c
}

func (s *ConversationState) normalize() {
	if s.Stage == "" {
		s.Stage = StageLanguage
	}
	if s.Cart == nil {
		s.Cart = Cart{}
	}
	s.Cart.Normalize()
}

// Store keeps conversation state per chat. Update is an atomic
// read-modify-write: fn sees the current state (a fresh one if absent)
// and the mutated value is persisted unless fn fails.
type Store interface {
	Get(ctx context.Context, chatID int64) (*ConversationState, error)
	Save(ctx context.Context, chatID int64, st *ConversationState) error
	Update(ctx context.Context, chatID int64, fn func(st *ConversationState) error) (*ConversationState, error)
}
