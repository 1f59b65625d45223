package bot

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// NormalizePhoneNumber keeps the digits of phone and prefixes them with "+".
// Telegram contacts usually arrive without the plus sign.
func NormalizePhoneNumber(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	if cleaned == "" {
		return ""
	}

	// local Uzbek numbers: 90 123 45 67
	if len(cleaned) == 9 {
		cleaned = "998" + cleaned
	}
	return "+" + cleaned
}

// formatPrice prints whole amounts without decimals: 45000, 12.5
func formatPrice(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.StringFixed(0)
	}
	return d.String()
}

func telegramID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
