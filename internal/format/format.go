package format

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"TRY": "₺",
}

// Price formats a whole-unit amount for lang.
// Example: Price(2490, "EUR", "de") => "2.490 €", Price(2490, "EUR", "en") => "€2,490"
func Price(amount int64, currency, lang string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency
	}
	digits := humanize.Comma(amount)
	switch strings.ToLower(lang) {
	case "en":
		if !ok {
			return symbol + " " + digits
		}
		if strings.HasPrefix(digits, "-") {
			return "-" + symbol + digits[1:]
		}
		return symbol + digits
	default:
		// de and tr group with dots and put the symbol last
		return strings.ReplaceAll(digits, ",", ".") + "\u00a0" + symbol
	}
}

// Number groups thousands for lang.
func Number(n int64, lang string) string {
	digits := humanize.Comma(n)
	if strings.ToLower(lang) == "en" {
		return digits
	}
	return strings.ReplaceAll(digits, ",", ".")
}

// Date formats time in a locale-friendly short form.
func Date(t time.Time, lang string) string {
	switch strings.ToLower(lang) {
	case "en":
		return t.Format("Jan 2, 2006")
	default:
		return t.Format("02.01.2006")
	}
}
