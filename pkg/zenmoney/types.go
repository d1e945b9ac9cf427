// Package zenmoney reads ZenMoney CSV exports and normalizes their rows.
package zenmoney

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of a ZenMoney CSV export.
const (
	ColDate            = "date"
	ColCategory        = "categoryName"
	ColPayee           = "payee"
	ColComment         = "comment"
	ColOutcomeAccount  = "outcomeAccountName"
	ColOutcome         = "outcome"
	ColOutcomeCurrency = "outcomeCurrencyShortTitle"
	ColIncomeAccount   = "incomeAccountName"
	ColIncome          = "income"
	ColIncomeCurrency  = "incomeCurrencyShortTitle"
	ColCreatedDate     = "createdDate"
	ColChangedDate     = "changedDate"
)

// Headers lists the columns every ZenMoney export carries. Exports may have
// more (e.g. qrCode); those are ignored.
var Headers = []string{
	ColDate,
	ColCategory,
	ColPayee,
	ColComment,
	ColOutcomeAccount,
	ColOutcome,
	ColOutcomeCurrency,
	ColIncomeAccount,
	ColIncome,
	ColIncomeCurrency,
	ColCreatedDate,
	ColChangedDate,
}

// DateFormat is the layout of the date column.
const DateFormat = "2006-01-02"

// RawRow is one CSV record as exported, before any parsing.
type RawRow struct {
	Line int // 1-based line number in the file; the header is line 1

	Date            string
	Category        string
	Payee           string
	Comment         string
	OutcomeAccount  string
	Outcome         string
	OutcomeCurrency string
	IncomeAccount   string
	Income          string
	IncomeCurrency  string
	CreatedDate     string
	ChangedDate     string
}

// Leg is one side of a money movement.
type Leg struct {
	Account  string // ZenMoney account name
	Amount   decimal.Decimal
	Currency string
}

// Transaction is a normalized ZenMoney row. At least one of Outcome and
// Income is set.
type Transaction struct {
	Line      int
	Date      time.Time
	Payee     string
	Narration string
	Category  string // empty when the row has no category
	Outcome   *Leg
	Income    *Leg
	CreatedAt string
	ChangedAt string
}

// Fingerprint identifies a row by its content. Re-exporting the same
// ZenMoney transaction yields the same fingerprint; editing it in ZenMoney
// changes changedDate and therefore the fingerprint.
func (r RawRow) Fingerprint() string {
	h := sha256.New()
	for _, field := range []string{
		r.Date, r.Category, r.Payee, r.Comment,
		r.OutcomeAccount, r.Outcome, r.OutcomeCurrency,
		r.IncomeAccount, r.Income, r.IncomeCurrency,
		r.CreatedDate, r.ChangedDate,
	} {
		h.Write([]byte(strings.TrimSpace(field)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
