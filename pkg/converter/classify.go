package converter

import "github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/zenmoney"

// Kind is the shape of a ZenMoney row.
type Kind int

const (
	KindExpense Kind = iota
	KindIncome
	KindTransfer
	KindTransferWithCommission
	KindExchange
)

func (k Kind) String() string {
	switch k {
	case KindExpense:
		return "expense"
	case KindIncome:
		return "income"
	case KindTransfer:
		return "transfer"
	case KindTransferWithCommission:
		return "transfer_with_commission"
	case KindExchange:
		return "exchange"
	default:
		return "unknown"
	}
}

// Classify decides the shape of a row from which legs it has. The category
// is never consulted. A refund is an income row.
func Classify(t zenmoney.Transaction) Kind {
	switch {
	case t.Outcome != nil && t.Income != nil:
		if t.Outcome.Currency != t.Income.Currency {
			return KindExchange
		}
		if t.Outcome.Amount.Equal(t.Income.Amount) {
			return KindTransfer
		}
		return KindTransferWithCommission
	case t.Outcome != nil:
		return KindExpense
	default:
		return KindIncome
	}
}
