package beancount

import (
	"strings"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DateFormat is the layout of Beancount dates.
const DateFormat = "2006-01-02"

// amountColumn is the column at which posting amounts end (bean-format style).
const amountColumn = 60

// Format formats a Beancount transaction as a string.
func Format(txn Transaction) string {
	var sb strings.Builder

	// Transaction header
	sb.WriteString(txn.Date.Format(DateFormat))
	sb.WriteString(" ")
	flag := txn.Flag
	if flag == "" {
		flag = FlagCleared
	}
	sb.WriteString(flag)
	if txn.Payee != "" {
		sb.WriteString(" ")
		sb.WriteString(quote(txn.Payee))
	}
	sb.WriteString(" ")
	sb.WriteString(quote(txn.Narration))
	sb.WriteString("\n")

	for _, m := range txn.Metadata {
		sb.WriteString("  ")
		sb.WriteString(m.Key)
		sb.WriteString(": ")
		sb.WriteString(quote(m.Value))
		sb.WriteString("\n")
	}

	// Postings
	for _, posting := range txn.Postings {
		number := FormatNumber(posting.Amount, posting.Currency)

		sb.WriteString("  ")
		sb.WriteString(posting.Account)

		// Right-align amount
		spaces := amountColumn - 2 - utf8.RuneCountInString(posting.Account) - len(number)
		if spaces < 2 {
			spaces = 2
		}
		sb.WriteString(strings.Repeat(" ", spaces))
		sb.WriteString(number)
		sb.WriteString(" ")
		sb.WriteString(posting.Currency)

		if posting.Price != nil {
			sb.WriteString(" @ ")
			sb.WriteString(FormatPrice(posting.Price.Number, posting.Price.Currency))
			sb.WriteString(" ")
			sb.WriteString(posting.Price.Currency)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatNumber renders an amount without losing any of its digits. Amounts
// with fewer decimals than the currency's minor unit are padded, so "10" PLN
// prints as "10.00".
func FormatNumber(d decimal.Decimal, currency string) string {
	places := -d.Exponent()
	if places < 0 {
		places = 0
	}
	if fraction := minorUnits(currency); fraction > places {
		places = fraction
	}
	return d.StringFixed(places)
}

// FormatPrice renders a per-unit price with insignificant trailing zeros
// removed, padded to the currency's minor unit.
func FormatPrice(d decimal.Decimal, currency string) string {
	trimmed, err := decimal.NewFromString(d.String())
	if err != nil {
		return d.String()
	}
	return FormatNumber(trimmed, currency)
}

// minorUnits returns the ISO 4217 number of fraction digits of a currency,
// or 0 when the code is unknown (crypto, custom commodities).
func minorUnits(currency string) int32 {
	// the Money constructor never returns a nil currency
	return int32(money.New(0, currency).Currency().Fraction)
}

// quote renders a Beancount string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
