// Package budget implements the expense classification and progressive
// averaging engine: pure functions that turn a raw expense history into
// loan, transfer, consumption and monthly-average summaries. Nothing in
// this package performs I/O or reads the system clock; callers pass
// "now" explicitly.
package budget

import "bilancio/internal/core"

// Buckets is the result of Classify: a mutually exclusive, jointly
// exhaustive partition of the input expenses.
type Buckets struct {
	Loans         []core.Expense
	Transfers     []core.Expense
	Subscriptions []core.Expense
	Utilities     []core.Expense
	Variable      []core.Expense
}

// Len returns the total number of classified expenses.
func (b Buckets) Len() int {
	return len(b.Loans) + len(b.Transfers) + len(b.Subscriptions) + len(b.Utilities) + len(b.Variable)
}

// Classify routes every expense into exactly one bucket. Priority
// order: utility bill type, loan installment, family transfer,
// subscription, variable. A utility bill paid in installments is still
// a utility: the explicit bill type outranks the description heuristic.
func Classify(expenses []core.Expense) Buckets {
	var b Buckets
	for _, e := range expenses {
		switch {
		case e.BillType.Utility():
			b.Utilities = append(b.Utilities, e)
		case IsLoanPayment(e):
			b.Loans = append(b.Loans, e)
		case IsFamilyTransfer(e):
			b.Transfers = append(b.Transfers, e)
		case IsSubscription(e):
			b.Subscriptions = append(b.Subscriptions, e)
		default:
			b.Variable = append(b.Variable, e)
		}
	}
	return b
}
