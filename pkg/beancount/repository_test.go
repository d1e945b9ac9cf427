package beancount

import (
	"strings"
	"testing"
	"time"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/pathutil"
)

func newTestRepository(t *testing.T) *FileSystemRepository {
	t.Helper()
	repo := NewFileSystemRepository(pathutil.New(pathutil.Config{BeancountRoot: t.TempDir()}))
	repo.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	return repo
}

func TestAppendTransaction(t *testing.T) {
	repo := newTestRepository(t)

	txn := Transaction{
		Date:      time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC),
		Narration: "weekly shopping",
		Postings: []Posting{
			{Account: "Assets:Bank", Amount: d("-125.50"), Currency: "PLN"},
			{Account: "Expenses:Food", Amount: d("125.50"), Currency: "PLN"},
		},
	}

	if repo.MonthFileExists("2025-12") {
		t.Fatal("month file should not exist yet")
	}
	if err := repo.AppendTransaction(txn, "line 2"); err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	if err := repo.AppendTransaction(txn); err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	if !repo.MonthFileExists("2025-12") {
		t.Fatal("month file should exist after append")
	}

	content, err := repo.ReadMonthFile("2025-12")
	if err != nil {
		t.Fatalf("ReadMonthFile() error = %v", err)
	}

	if !strings.HasPrefix(content, "; ZenMoney import for 2025-12\n; Generated at 2026-01-01T12:00:00Z\n\n") {
		t.Errorf("unexpected header:\n%s", content)
	}
	if strings.Count(content, "; ZenMoney import for") != 1 {
		t.Errorf("header should be written once:\n%s", content)
	}
	if !strings.Contains(content, "; line 2\n"+Format(txn)+"\n") {
		t.Errorf("commented transaction not found:\n%s", content)
	}
	if strings.Count(content, `"weekly shopping"`) != 2 {
		t.Errorf("expected 2 transactions in file:\n%s", content)
	}
}

func TestReadMonthFileMissing(t *testing.T) {
	repo := newTestRepository(t)

	content, err := repo.ReadMonthFile("2024-01")
	if err != nil {
		t.Fatalf("ReadMonthFile() error = %v", err)
	}
	if content != "" {
		t.Errorf("ReadMonthFile() = %q, expected empty", content)
	}

	if _, err := repo.ReadMonthFile("2024/01"); err == nil {
		t.Error("ReadMonthFile() should reject an invalid month")
	}
}

func TestYearMonth(t *testing.T) {
	txn := Transaction{Date: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)}
	if got := YearMonth(txn); got != "2025-03" {
		t.Errorf("YearMonth() = %q, expected 2025-03", got)
	}
}
