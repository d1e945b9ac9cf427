package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/beancount"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/zenmoney"
)

// PricePrecision is the number of decimal places exchange prices are
// rounded to (half away from zero).
const PricePrecision = 8

// Metadata keys attached to every converted transaction.
const (
	MetaCreated  = "zenmoney_created"
	MetaChanged  = "zenmoney_changed"
	MetaCategory = "zenmoney_category"
)

// Converter converts ZenMoney rows to Beancount transactions.
type Converter struct {
	mapping *Mapping
	logger  *slog.Logger
}

// NewConverter creates a new Converter. A nil logger uses slog.Default().
func NewConverter(mapping *Mapping, logger *slog.Logger) (*Converter, error) {
	if mapping == nil {
		return nil, errors.New("mapping is required")
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{mapping: mapping, logger: logger}, nil
}

// Mapping returns the mapping the converter was built with.
func (c *Converter) Mapping() *Mapping {
	return c.mapping
}

// Entry is a converted row.
type Entry struct {
	Row         zenmoney.RawRow
	Kind        Kind
	Transaction beancount.Transaction
}

// Result holds the output of a conversion run, in row order.
type Result struct {
	Entries []Entry
	Skipped []*zenmoney.MalformedRowError
}

// Transactions returns the converted transactions in row order.
func (r *Result) Transactions() []beancount.Transaction {
	txns := make([]beancount.Transaction, 0, len(r.Entries))
	for _, e := range r.Entries {
		txns = append(txns, e.Transaction)
	}
	return txns
}

// DateRange returns the earliest and latest dates of the converted
// transactions. ok is false when nothing was converted.
func (r *Result) DateRange() (start, end time.Time, ok bool) {
	for i, e := range r.Entries {
		d := e.Transaction.Date
		if i == 0 || d.Before(start) {
			start = d
		}
		if i == 0 || d.After(end) {
			end = d
		}
	}
	return start, end, len(r.Entries) > 0
}

// ConvertRows converts rows one by one. Malformed rows are logged and
// skipped; an imbalanced transaction aborts the run.
func (c *Converter) ConvertRows(rows []zenmoney.RawRow) (*Result, error) {
	result := &Result{}

	for _, row := range rows {
		parsed, err := zenmoney.ParseRow(row)
		if err != nil {
			var malformed *zenmoney.MalformedRowError
			if errors.As(err, &malformed) {
				c.logger.Warn("Skipped row",
					"line", row.Line,
					"date", row.Date,
					"payee", row.Payee,
					"reason", malformed.Error(),
				)
				result.Skipped = append(result.Skipped, malformed)
				continue
			}
			return nil, err
		}

		kind := Classify(parsed)
		txn, err := c.Convert(parsed)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}

		result.Entries = append(result.Entries, Entry{Row: row, Kind: kind, Transaction: txn})
	}

	return result, nil
}

// ConvertRow parses and converts a single row.
func (c *Converter) ConvertRow(row zenmoney.RawRow) (beancount.Transaction, error) {
	parsed, err := zenmoney.ParseRow(row)
	if err != nil {
		return beancount.Transaction{}, err
	}
	return c.Convert(parsed)
}

// Convert builds the balanced Beancount transaction for a parsed row.
func (c *Converter) Convert(t zenmoney.Transaction) (beancount.Transaction, error) {
	kind := Classify(t)

	txn := beancount.Transaction{
		Date:      t.Date,
		Flag:      c.mapping.Flag,
		Payee:     t.Payee,
		Narration: t.Narration,
		Metadata:  buildMetadata(t),
		Postings:  c.BuildPostings(kind, t),
	}

	if err := beancount.CheckBalance(txn); err != nil {
		return beancount.Transaction{}, fmt.Errorf("%s transaction: %w", kind, err)
	}

	c.logger.Debug("Converted row", "line", t.Line, "kind", kind.String(), "postings", len(txn.Postings))
	return txn, nil
}

// BuildPostings returns the postings of a row of the given kind.
func (c *Converter) BuildPostings(kind Kind, t zenmoney.Transaction) []beancount.Posting {
	switch kind {
	case KindExpense:
		out := t.Outcome
		return []beancount.Posting{
			posting(c.account(out.Account), out.Amount.Neg(), out.Currency),
			posting(c.category(t.Category, DirectionExpense), out.Amount, out.Currency),
		}

	case KindIncome:
		in := t.Income
		return []beancount.Posting{
			posting(c.account(in.Account), in.Amount, in.Currency),
			posting(c.category(t.Category, DirectionIncome), in.Amount.Neg(), in.Currency),
		}

	case KindTransfer:
		return []beancount.Posting{
			posting(c.account(t.Outcome.Account), t.Outcome.Amount.Neg(), t.Outcome.Currency),
			posting(c.account(t.Income.Account), t.Income.Amount, t.Income.Currency),
		}

	case KindTransferWithCommission:
		// The commission is whatever did not arrive. It is negative when
		// more arrived than left.
		commission := t.Outcome.Amount.Sub(t.Income.Amount)
		return []beancount.Posting{
			posting(c.account(t.Outcome.Account), t.Outcome.Amount.Neg(), t.Outcome.Currency),
			posting(c.account(t.Income.Account), t.Income.Amount, t.Income.Currency),
			posting(c.mapping.DefaultCommissionExpense, commission, t.Outcome.Currency),
		}

	case KindExchange:
		received := posting(c.account(t.Income.Account), t.Income.Amount, t.Income.Currency)
		received.Price = &beancount.Amount{
			Number:   ExchangePrice(t.Outcome.Amount, t.Income.Amount),
			Currency: t.Outcome.Currency,
		}
		return []beancount.Posting{
			posting(c.account(t.Outcome.Account), t.Outcome.Amount.Neg(), t.Outcome.Currency),
			received,
		}
	}

	return nil
}

// ExchangePrice is the number of outcome units paid per income unit.
func ExchangePrice(outcome, income decimal.Decimal) decimal.Decimal {
	return outcome.DivRound(income, PricePrecision)
}

func (c *Converter) account(name string) string {
	if !c.mapping.HasAccount(name) {
		c.logger.Debug("Unmapped account", "name", name)
	}
	return c.mapping.Account(name)
}

func (c *Converter) category(name string, dir Direction) string {
	if name != "" && !c.mapping.HasCategory(name) {
		c.logger.Debug("Unmapped category", "name", name, "direction", dir.String())
	}
	return c.mapping.Category(name, dir)
}

func posting(account string, amount decimal.Decimal, currency string) beancount.Posting {
	return beancount.Posting{Account: account, Amount: amount, Currency: currency}
}

// buildMetadata keeps the ZenMoney timestamps and category on the transaction.
func buildMetadata(t zenmoney.Transaction) []beancount.Meta {
	var meta []beancount.Meta
	if t.CreatedAt != "" {
		meta = append(meta, beancount.Meta{Key: MetaCreated, Value: t.CreatedAt})
	}
	if t.ChangedAt != "" {
		meta = append(meta, beancount.Meta{Key: MetaChanged, Value: t.ChangedAt})
	}
	if t.Category != "" {
		meta = append(meta, beancount.Meta{Key: MetaCategory, Value: t.Category})
	}
	return meta
}
