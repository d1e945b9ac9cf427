// Package beancount provides Beancount transaction types, text formatting and
// repository pattern for Beancount file operations.
package beancount

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction flags.
const (
	FlagCleared = "*"
	FlagPending = "!"
)

// Transaction represents a Beancount transaction.
type Transaction struct {
	Date      time.Time // Day granularity, UTC
	Flag      string    // "*" or "!"
	Payee     string    // Payee name (optional)
	Narration string    // Transaction description
	Metadata  []Meta    // Metadata key-value pairs, in output order
	Postings  []Posting // Transaction postings
}

// Meta is a single metadata entry of a transaction.
type Meta struct {
	Key   string
	Value string
}

// Amount is a number with its commodity.
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// Posting represents a posting in a Beancount transaction.
type Posting struct {
	Account  string          // Account name (e.g., "Assets:Bank:Checking")
	Amount   decimal.Decimal // Positive for debit, negative for credit
	Currency string          // Currency code (e.g., "PLN")
	Price    *Amount         // Per-unit price (optional)
}

// MetaValue returns the value of the metadata entry with the given key.
func (t Transaction) MetaValue(key string) (string, bool) {
	for _, m := range t.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// Weight returns the amount this posting contributes to the balance of the
// transaction, in the currency it is balanced in.
func (p Posting) Weight() Amount {
	if p.Price != nil {
		return Amount{Number: p.Amount.Mul(p.Price.Number), Currency: p.Price.Currency}
	}
	return Amount{Number: p.Amount, Currency: p.Currency}
}
