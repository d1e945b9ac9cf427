package zenmoney

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Delimiter separates fields in ZenMoney exports.
const Delimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNotZenMoney is returned when a CSV header lacks ZenMoney columns.
var ErrNotZenMoney = errors.New("not a ZenMoney export")

// Reader streams raw rows from a ZenMoney CSV export.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
}

// NewReader reads the header of a ZenMoney export. A leading UTF-8 BOM is
// skipped.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrNotZenMoney)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range Headers {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", ErrNotZenMoney, missing)
	}

	return &Reader{csv: cr, columns: columns}, nil
}

// Next returns the next row, or io.EOF after the last one.
func (r *Reader) Next() (RawRow, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return RawRow{}, io.EOF
		}
		return RawRow{}, fmt.Errorf("failed to read record: %w", err)
	}

	line, _ := r.csv.FieldPos(0)
	get := func(name string) string {
		i := r.columns[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	return RawRow{
		Line:            line,
		Date:            get(ColDate),
		Category:        get(ColCategory),
		Payee:           get(ColPayee),
		Comment:         get(ColComment),
		OutcomeAccount:  get(ColOutcomeAccount),
		Outcome:         get(ColOutcome),
		OutcomeCurrency: get(ColOutcomeCurrency),
		IncomeAccount:   get(ColIncomeAccount),
		Income:          get(ColIncome),
		IncomeCurrency:  get(ColIncomeCurrency),
		CreatedDate:     get(ColCreatedDate),
		ChangedDate:     get(ColChangedDate),
	}, nil
}

// ReadAll returns all remaining rows.
func (r *Reader) ReadAll() ([]RawRow, error) {
	var rows []RawRow
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

// ReadFile opens a ZenMoney export and returns its rows.
func ReadFile(path string) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, err
	}
	return r.ReadAll()
}

// Identify reports whether path looks like a ZenMoney export: a .csv file
// whose first line holds every ZenMoney column.
func Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	first, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	first = strings.TrimPrefix(first, string(utf8BOM))
	first = strings.TrimSpace(first)
	if first == "" {
		return false
	}

	headers := make(map[string]bool)
	for _, h := range strings.Split(first, string(Delimiter)) {
		headers[strings.Trim(strings.TrimSpace(h), `"`)] = true
	}
	for _, name := range Headers {
		if !headers[name] {
			return false
		}
	}
	return true
}
