package zenmoney

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedRow is matched by every MalformedRowError.
var ErrMalformedRow = errors.New("malformed row")

// MalformedRowError reports a row that cannot be turned into a transaction.
// Such rows are skipped; the rest of the file is still converted.
type MalformedRowError struct {
	Line   int
	Reason string
	Err    error
}

func (e *MalformedRowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrMalformedRow.
func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRow
}

// ParseRow normalizes a raw row: it parses the date and amounts, uppercases
// currencies and drops legs without a positive amount.
func ParseRow(row RawRow) (Transaction, error) {
	malformed := func(reason string, err error) (Transaction, error) {
		return Transaction{}, &MalformedRowError{Line: row.Line, Reason: reason, Err: err}
	}

	dateStr := strings.TrimSpace(row.Date)
	if dateStr == "" {
		return malformed("missing date", nil)
	}
	date, err := time.Parse(DateFormat, dateStr)
	if err != nil {
		return malformed(fmt.Sprintf("invalid date %q", dateStr), err)
	}

	outcome, err := parseLeg(row.OutcomeAccount, row.Outcome, row.OutcomeCurrency)
	if err != nil {
		return malformed("invalid outcome", err)
	}
	income, err := parseLeg(row.IncomeAccount, row.Income, row.IncomeCurrency)
	if err != nil {
		return malformed("invalid income", err)
	}
	if outcome == nil && income == nil {
		return malformed("neither outcome nor income present", nil)
	}

	return Transaction{
		Line:      row.Line,
		Date:      date,
		Payee:     strings.TrimSpace(row.Payee),
		Narration: strings.TrimSpace(row.Comment),
		Category:  strings.TrimSpace(row.Category),
		Outcome:   outcome,
		Income:    income,
		CreatedAt: strings.TrimSpace(row.CreatedDate),
		ChangedAt: strings.TrimSpace(row.ChangedDate),
	}, nil
}

// parseLeg returns nil when the amount is empty or zero. ZenMoney writes
// "0" for the unused side of expenses and incomes.
func parseLeg(account, amount, currency string) (*Leg, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, nil
	}

	value, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	if value.IsZero() {
		return nil, nil
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", amount)
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, fmt.Errorf("missing currency for amount %q", amount)
	}

	return &Leg{
		Account:  strings.TrimSpace(account),
		Amount:   value,
		Currency: currency,
	}, nil
}

// ParseAmount parses an exported amount exactly. A decimal comma is accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
