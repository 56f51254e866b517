package budget

import (
	"strings"
	"time"

	"bilancio/internal/core"
)

// ExpensesSummary is the canonical "how much do I spend per month"
// figure: fixed obligations plus the progressive variable average, with
// utilities added once at the end. Each input expense contributes to
// exactly one of the partial totals.
type ExpensesSummary struct {
	MonthlyLoans         core.Money
	MonthlyTransfers     core.Money
	MonthlySubscriptions core.Money
	TotalMonthlyFixed    core.Money
	MonthlyUtilities     core.Money

	VariableMonthlyAverage float64 // euros
	TotalMonthlyExpenses   float64 // fixed + variable average
	TotalWithUtilities     float64

	Loans     []LoanSummary
	Transfers []TransferSummary
	Average   ProgressiveAverageResult
}

// Summarize composes the groupers and the progressive average into the
// monthly totals. Utilities are excluded from the variable average's
// input and added separately, so nothing is counted twice.
func Summarize(expenses []core.Expense, profile core.Profile, now time.Time) ExpensesSummary {
	buckets := Classify(expenses)

	s := ExpensesSummary{
		Loans:     GroupLoanPayments(buckets.Loans, now),
		Transfers: GroupFamilyTransfers(buckets.Transfers),
		Average:   CalculateProgressiveVariableAverage(buckets.Variable, profile.CreatedAt, profile.VariableMonthsLookback, now),
	}

	for _, l := range s.Loans {
		s.MonthlyLoans = s.MonthlyLoans.Add(l.MonthlyAmount)
	}
	for _, t := range s.Transfers {
		s.MonthlyTransfers = s.MonthlyTransfers.Add(t.MonthlyAmount)
	}
	s.MonthlySubscriptions = monthlyFixedTotal(buckets.Subscriptions, subscriptionKey)
	s.MonthlyUtilities = monthlyFixedTotal(buckets.Utilities, utilityKey)

	s.TotalMonthlyFixed = s.MonthlyLoans.Add(s.MonthlyTransfers).Add(s.MonthlySubscriptions)
	s.VariableMonthlyAverage = s.Average.VariableMonthlyAverage
	s.TotalMonthlyExpenses = s.TotalMonthlyFixed.Euros() + s.VariableMonthlyAverage
	s.TotalWithUtilities = s.TotalMonthlyExpenses + s.MonthlyUtilities.Euros()
	return s
}

// monthlyFixedTotal sums one representative amount per recurring
// charge: the most recent occurrence of each key. A subscription billed
// six times still counts once in the monthly figure.
func monthlyFixedTotal(expenses []core.Expense, keyFn func(core.Expense) string) core.Money {
	latest := make(map[string]core.Expense)
	for _, e := range expenses {
		cur, ok := latest[keyFn(e)]
		if !ok || e.Date.After(cur.Date) {
			latest[keyFn(e)] = e
		}
	}
	var total core.Money
	for _, e := range latest {
		total = total.Add(e.Amount)
	}
	return total
}

func subscriptionKey(e core.Expense) string {
	return strings.ToLower(strings.TrimSpace(e.Description))
}

func utilityKey(e core.Expense) string {
	return string(e.BillType) + "|" + strings.ToLower(strings.TrimSpace(e.BillProvider))
}
