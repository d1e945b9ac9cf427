package converter

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/beancount"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/zenmoney"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	m := NewMapping(
		map[string]string{
			"PKO - PLN":     "Assets:Bank:PKO:PLN",
			"Cash - PLN":    "Assets:Cash:PLN",
			"Revolut - EUR": "Assets:Bank:Revolut:EUR",
		},
		map[string]CategoryTarget{
			"Food / Groceries": Simple("Expenses:Food:Groceries"),
			"Salary":           Simple("Income:Salary"),
			"Shopping":         Directional("Income:Refunds", "Expenses:Shopping"),
		},
	)
	c, err := NewConverter(m, testLogger)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	return c
}

func row(line int, category, outAccount, outcome, outCur, inAccount, income, inCur string) zenmoney.RawRow {
	return zenmoney.RawRow{
		Line:            line,
		Date:            "2025-12-14",
		Category:        category,
		Payee:           "Payee",
		Comment:         "Comment",
		OutcomeAccount:  outAccount,
		Outcome:         outcome,
		OutcomeCurrency: outCur,
		IncomeAccount:   inAccount,
		Income:          income,
		IncomeCurrency:  inCur,
		CreatedDate:     "2025-12-14 10:00:00",
		ChangedDate:     "2025-12-14 10:05:00",
	}
}

type wantPosting struct {
	account string
	amount  string
	price   string
}

func checkPostings(t *testing.T, txn beancount.Transaction, want []wantPosting) {
	t.Helper()
	if len(txn.Postings) != len(want) {
		t.Fatalf("got %d postings, expected %d: %+v", len(txn.Postings), len(want), txn.Postings)
	}
	for i, w := range want {
		p := txn.Postings[i]
		if p.Account != w.account {
			t.Errorf("posting %d account = %q, expected %q", i, p.Account, w.account)
		}
		if got := beancount.FormatNumber(p.Amount, p.Currency) + " " + p.Currency; got != w.amount {
			t.Errorf("posting %d amount = %q, expected %q", i, got, w.amount)
		}
		var price string
		if p.Price != nil {
			price = beancount.FormatPrice(p.Price.Number, p.Price.Currency) + " " + p.Price.Currency
		}
		if price != w.price {
			t.Errorf("posting %d price = %q, expected %q", i, price, w.price)
		}
	}
}

func TestConvertRow(t *testing.T) {
	c := newTestConverter(t)

	tests := []struct {
		name     string
		row      zenmoney.RawRow
		postings []wantPosting
	}{
		{
			name: "expense",
			row:  row(2, "Food / Groceries", "PKO - PLN", "125.50", "PLN", "PKO - PLN", "0", "PLN"),
			postings: []wantPosting{
				{"Assets:Bank:PKO:PLN", "-125.50 PLN", ""},
				{"Expenses:Food:Groceries", "125.50 PLN", ""},
			},
		},
		{
			name: "income",
			row:  row(3, "Salary", "PKO - PLN", "", "PLN", "PKO - PLN", "8000", "PLN"),
			postings: []wantPosting{
				{"Assets:Bank:PKO:PLN", "8000.00 PLN", ""},
				{"Income:Salary", "-8000.00 PLN", ""},
			},
		},
		{
			name: "refund",
			row:  row(4, "Shopping", "", "0", "PLN", "PKO - PLN", "49.99", "PLN"),
			postings: []wantPosting{
				{"Assets:Bank:PKO:PLN", "49.99 PLN", ""},
				{"Income:Refunds", "-49.99 PLN", ""},
			},
		},
		{
			name: "transfer",
			row:  row(5, "", "PKO - PLN", "300", "PLN", "Cash - PLN", "300", "PLN"),
			postings: []wantPosting{
				{"Assets:Bank:PKO:PLN", "-300.00 PLN", ""},
				{"Assets:Cash:PLN", "300.00 PLN", ""},
			},
		},
		{
			name: "transfer with commission",
			row:  row(6, "", "PKO - PLN", "200.00", "PLN", "Cash - PLN", "195.00", "PLN"),
			postings: []wantPosting{
				{"Assets:Bank:PKO:PLN", "-200.00 PLN", ""},
				{"Assets:Cash:PLN", "195.00 PLN", ""},
				{DefaultCommissionExpenseAccount, "5.00 PLN", ""},
			},
		},
		{
			name: "transfer receiving more",
			row:  row(7, "", "PKO - PLN", "100", "PLN", "Cash - PLN", "101.5", "PLN"),
			postings: []wantPosting{
				{"Assets:Bank:PKO:PLN", "-100.00 PLN", ""},
				{"Assets:Cash:PLN", "101.50 PLN", ""},
				{DefaultCommissionExpenseAccount, "-1.50 PLN", ""},
			},
		},
		{
			name: "exchange",
			row:  row(8, "", "PKO - PLN", "4250.00", "PLN", "Revolut - EUR", "1000.00", "EUR"),
			postings: []wantPosting{
				{"Assets:Bank:PKO:PLN", "-4250.00 PLN", ""},
				{"Assets:Bank:Revolut:EUR", "1000.00 EUR", "4.25 PLN"},
			},
		},
		{
			name: "exchange with rounded price",
			row:  row(9, "", "PKO - PLN", "100", "PLN", "Revolut - EUR", "30", "EUR"),
			postings: []wantPosting{
				{"Assets:Bank:PKO:PLN", "-100.00 PLN", ""},
				{"Assets:Bank:Revolut:EUR", "30.00 EUR", "3.33333333 PLN"},
			},
		},
		{
			name: "unmapped names",
			row:  row(10, "Travel", "MainBank - PLN", "10", "PLN", "", "", "PLN"),
			postings: []wantPosting{
				{"Assets:MainBank:PLN", "-10.00 PLN", ""},
				{DefaultExpenseAccount, "10.00 PLN", ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := c.ConvertRow(tt.row)
			if err != nil {
				t.Fatalf("ConvertRow() error = %v", err)
			}
			checkPostings(t, txn, tt.postings)
			if err := beancount.CheckBalance(txn); err != nil {
				t.Errorf("converted transaction does not balance: %v", err)
			}
		})
	}
}

func TestConvertRowHeader(t *testing.T) {
	c := newTestConverter(t)
	r := row(2, "Food / Groceries", "PKO - PLN", "125.50", "PLN", "", "", "PLN")

	txn, err := c.ConvertRow(r)
	if err != nil {
		t.Fatalf("ConvertRow() error = %v", err)
	}

	if !txn.Date.Equal(time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", txn.Date)
	}
	if txn.Flag != beancount.FlagCleared {
		t.Errorf("Flag = %q, expected *", txn.Flag)
	}
	if txn.Payee != "Payee" || txn.Narration != "Comment" {
		t.Errorf("Payee/Narration = %q/%q", txn.Payee, txn.Narration)
	}

	expected := []beancount.Meta{
		{Key: MetaCreated, Value: "2025-12-14 10:00:00"},
		{Key: MetaChanged, Value: "2025-12-14 10:05:00"},
		{Key: MetaCategory, Value: "Food / Groceries"},
	}
	if len(txn.Metadata) != len(expected) {
		t.Fatalf("Metadata = %+v, expected %+v", txn.Metadata, expected)
	}
	for i := range expected {
		if txn.Metadata[i] != expected[i] {
			t.Errorf("Metadata[%d] = %+v, expected %+v", i, txn.Metadata[i], expected[i])
		}
	}

	r.Category, r.CreatedDate, r.ChangedDate = "", "", ""
	txn, err = c.ConvertRow(r)
	if err != nil {
		t.Fatalf("ConvertRow() error = %v", err)
	}
	if len(txn.Metadata) != 0 {
		t.Errorf("empty fields should not produce metadata: %+v", txn.Metadata)
	}
}

func TestConvertIsDeterministic(t *testing.T) {
	c := newTestConverter(t)
	r := row(8, "", "PKO - PLN", "100", "PLN", "Revolut - EUR", "30", "EUR")

	first, err := c.ConvertRow(r)
	if err != nil {
		t.Fatalf("ConvertRow() error = %v", err)
	}
	second, err := c.ConvertRow(r)
	if err != nil {
		t.Fatalf("ConvertRow() error = %v", err)
	}
	if beancount.Format(first) != beancount.Format(second) {
		t.Errorf("converting twice gave different output:\n%s\n%s", beancount.Format(first), beancount.Format(second))
	}
}

func TestClassify(t *testing.T) {
	leg := func(amount, currency string) *zenmoney.Leg {
		return &zenmoney.Leg{Account: "A", Amount: decimal.RequireFromString(amount), Currency: currency}
	}

	tests := []struct {
		name     string
		txn      zenmoney.Transaction
		expected Kind
	}{
		{"expense", zenmoney.Transaction{Outcome: leg("10", "PLN")}, KindExpense},
		{"income", zenmoney.Transaction{Income: leg("10", "PLN")}, KindIncome},
		{"transfer", zenmoney.Transaction{Outcome: leg("10", "PLN"), Income: leg("10.00", "PLN")}, KindTransfer},
		{"commission", zenmoney.Transaction{Outcome: leg("10", "PLN"), Income: leg("9", "PLN")}, KindTransferWithCommission},
		{"exchange", zenmoney.Transaction{Outcome: leg("10", "PLN"), Income: leg("10", "EUR")}, KindExchange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.txn); got != tt.expected {
				t.Errorf("Classify() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestExchangePrice(t *testing.T) {
	tests := []struct {
		outcome  string
		income   string
		expected string
	}{
		{"4250", "1000", "4.25"},
		{"100", "30", "3.33333333"},
		{"200", "30", "6.66666667"},
		{"1", "3", "0.33333333"},
	}

	for _, tt := range tests {
		t.Run(tt.outcome+"/"+tt.income, func(t *testing.T) {
			got := ExchangePrice(decimal.RequireFromString(tt.outcome), decimal.RequireFromString(tt.income))
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("ExchangePrice() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestConvertRows(t *testing.T) {
	c := newTestConverter(t)

	late := row(2, "Food / Groceries", "PKO - PLN", "10", "PLN", "", "", "PLN")
	late.Date = "2025-12-20"
	bad := row(3, "Food / Groceries", "PKO - PLN", "abc", "PLN", "", "", "PLN")
	early := row(4, "Salary", "", "", "PLN", "PKO - PLN", "100", "PLN")
	early.Date = "2025-11-03"

	result, err := c.ConvertRows([]zenmoney.RawRow{late, bad, early})
	if err != nil {
		t.Fatalf("ConvertRows() error = %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("got %d entries, expected 2", len(result.Entries))
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Line != 3 {
		t.Errorf("Skipped = %+v, expected line 3", result.Skipped)
	}
	if result.Entries[0].Kind != KindExpense || result.Entries[1].Kind != KindIncome {
		t.Errorf("kinds = %s, %s", result.Entries[0].Kind, result.Entries[1].Kind)
	}
	if result.Entries[1].Row.Line != 4 {
		t.Errorf("entry row line = %d, expected 4", result.Entries[1].Row.Line)
	}
	if len(result.Transactions()) != 2 {
		t.Errorf("Transactions() returned %d", len(result.Transactions()))
	}

	start, end, ok := result.DateRange()
	if !ok {
		t.Fatal("DateRange() ok = false")
	}
	if start.Format("2006-01-02") != "2025-11-03" || end.Format("2006-01-02") != "2025-12-20" {
		t.Errorf("DateRange() = %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	empty := &Result{}
	if _, _, ok := empty.DateRange(); ok {
		t.Error("DateRange() of an empty result should not be ok")
	}
}

func TestNewConverterRejectsInvalidMapping(t *testing.T) {
	if _, err := NewConverter(nil, nil); err == nil {
		t.Error("NewConverter(nil) should fail")
	}

	m := NewMapping(nil, nil)
	m.Flag = "?"
	if _, err := NewConverter(m, nil); err == nil {
		t.Error("NewConverter() should reject an invalid flag")
	}
}
