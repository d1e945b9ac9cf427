package beancount

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrImbalanced is matched by every ImbalancedPostingError.
var ErrImbalanced = errors.New("transaction does not balance")

// ImbalancedPostingError reports postings whose weights do not sum to zero.
// It signals a defect in the code that built the postings, not bad input.
type ImbalancedPostingError struct {
	Currency string
	Residual decimal.Decimal
}

func (e *ImbalancedPostingError) Error() string {
	return fmt.Sprintf("transaction does not balance: residual %s %s", e.Residual.String(), e.Currency)
}

// Is lets errors.Is match ErrImbalanced.
func (e *ImbalancedPostingError) Is(target error) bool {
	return target == ErrImbalanced
}

// CheckBalance verifies that the weights of the postings sum to zero in every
// currency. Postings without a price must cancel exactly. A priced posting is
// allowed the rounding error of its price: half a unit in the last digit of
// the price, times the posting's units.
func CheckBalance(t Transaction) error {
	sums := make(map[string]decimal.Decimal)
	tolerances := make(map[string]decimal.Decimal)

	for _, p := range t.Postings {
		w := p.Weight()
		sums[w.Currency] = sums[w.Currency].Add(w.Number)

		if p.Price != nil {
			half := decimal.New(5, p.Price.Number.Exponent()-1)
			tolerances[w.Currency] = tolerances[w.Currency].Add(p.Amount.Abs().Mul(half))
		}
	}

	currencies := make([]string, 0, len(sums))
	for cur := range sums {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)

	for _, cur := range currencies {
		residual := sums[cur]
		if residual.Abs().GreaterThan(tolerances[cur]) {
			return &ImbalancedPostingError{Currency: cur, Residual: residual}
		}
	}

	return nil
}
