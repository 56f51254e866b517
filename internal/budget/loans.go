package budget

import (
	"math"
	"sort"
	"time"

	"bilancio/internal/core"
)

// LoanSummary describes one inferred loan: its monthly installment, how
// much has been paid and what remains. Recomputed from scratch on every
// input change, never persisted.
type LoanSummary struct {
	Name              string
	MonthlyAmount     core.Money
	TotalPaid         core.Money
	TotalRemaining    core.Money
	PaidCount         int
	RemainingCount    int
	TotalCount        int
	CompletionPercent int
	PaidPayments      []core.Expense
	FuturePayments    []core.Expense
	FirstPayment      time.Time
	LastPayment       time.Time
}

// GroupLoanPayments groups installment expenses into per-loan
// summaries. Input is the classifier's loans bucket; expenses that do
// not yield a loan key are skipped. Summaries are sorted by descending
// monthly amount, payments chronologically within each summary.
func GroupLoanPayments(loans []core.Expense, now time.Time) []LoanSummary {
	groups := make(map[string][]core.Expense)
	var keys []string
	for _, e := range loans {
		key := LoanKey(e.Description)
		if key == "" {
			continue
		}
		key = CanonicalLoanKey(key, keys)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], e)
	}

	summaries := make([]LoanSummary, 0, len(groups))
	for _, key := range keys {
		summaries = append(summaries, buildLoanSummary(key, groups[key], now))
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].MonthlyAmount.Cents > summaries[j].MonthlyAmount.Cents
	})
	return summaries
}

func buildLoanSummary(key string, payments []core.Expense, now time.Time) LoanSummary {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Date.Before(payments[j].Date)
	})

	s := LoanSummary{
		Name:         "Rata " + key,
		TotalCount:   len(payments),
		FirstPayment: payments[0].Date,
		LastPayment:  payments[len(payments)-1].Date,
	}
	for _, p := range payments {
		if paymentSettled(p, now) {
			s.PaidPayments = append(s.PaidPayments, p)
			s.TotalPaid = s.TotalPaid.Add(p.Amount)
		} else {
			s.FuturePayments = append(s.FuturePayments, p)
			s.TotalRemaining = s.TotalRemaining.Add(p.Amount)
		}
	}
	s.PaidCount = len(s.PaidPayments)
	s.RemainingCount = len(s.FuturePayments)
	s.MonthlyAmount = installmentAmount(payments)
	if s.TotalCount > 0 {
		s.CompletionPercent = int(math.Round(float64(s.PaidCount) / float64(s.TotalCount) * 100))
	}
	return s
}

// paymentSettled: an explicit paid state wins; otherwise a payment
// dated today or earlier counts as settled.
func paymentSettled(e core.Expense, now time.Time) bool {
	switch e.Paid {
	case core.Paid:
		return true
	case core.Unpaid:
		return false
	}
	return !e.Date.After(now)
}

// installmentAmount picks the loan's representative monthly amount: the
// most frequent installment amount, ties broken by the most recent
// payment. Installments are assumed constant; a final balloon payment
// does not displace the regular amount.
func installmentAmount(payments []core.Expense) core.Money {
	counts := make(map[int64]int)
	lastSeen := make(map[int64]int)
	for i, p := range payments {
		counts[p.Amount.Cents]++
		lastSeen[p.Amount.Cents] = i
	}
	var best int64
	bestCount := -1
	for cents, count := range counts {
		if count > bestCount || (count == bestCount && lastSeen[cents] > lastSeen[best]) {
			best = cents
			bestCount = count
		}
	}
	return core.Money{Cents: best}
}
