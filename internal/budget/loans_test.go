package budget

import (
	"testing"

	"bilancio/internal/core"
)

func TestGroupLoanPayments(t *testing.T) {
	// 24-installment loan: 8 paid, 16 future.
	var payments []core.Expense
	for i := 0; i < 24; i++ {
		payments = append(payments, loanExpense(day(2025, 1, 5).AddDate(0, i, 0), "Rata YOUNITED", 15000))
	}

	summaries := GroupLoanPayments(payments, testNow)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]

	if s.Name != "Rata YOUNITED" {
		t.Errorf("Name = %q", s.Name)
	}
	if s.TotalCount != 24 {
		t.Errorf("TotalCount = %d", s.TotalCount)
	}
	// testNow is 2025-08-15: installments Jan..Aug are settled.
	if s.PaidCount != 8 || s.RemainingCount != 16 {
		t.Errorf("paid/remaining = %d/%d, want 8/16", s.PaidCount, s.RemainingCount)
	}
	if s.PaidCount+s.RemainingCount != s.TotalCount {
		t.Error("paid + remaining != total")
	}
	if s.MonthlyAmount.Cents != 15000 {
		t.Errorf("MonthlyAmount = %d", s.MonthlyAmount.Cents)
	}
	if s.TotalPaid.Cents != 8*15000 || s.TotalRemaining.Cents != 16*15000 {
		t.Errorf("TotalPaid/TotalRemaining = %d/%d", s.TotalPaid.Cents, s.TotalRemaining.Cents)
	}
	if s.TotalPaid.Cents+s.TotalRemaining.Cents != 24*15000 {
		t.Error("paid + remaining amounts do not conserve the group sum")
	}
	if s.CompletionPercent != 33 { // round(8/24*100)
		t.Errorf("CompletionPercent = %d, want 33", s.CompletionPercent)
	}
	if !s.FirstPayment.Equal(day(2025, 1, 5)) || !s.LastPayment.Equal(day(2026, 12, 5)) {
		t.Errorf("first/last = %v/%v", s.FirstPayment, s.LastPayment)
	}
	for i := 1; i < len(s.PaidPayments); i++ {
		if s.PaidPayments[i].Date.Before(s.PaidPayments[i-1].Date) {
			t.Fatal("paid payments not chronological")
		}
	}
}

func TestGroupLoanPaymentsCompletionBounds(t *testing.T) {
	// Fully settled loan: completion pegged at 100.
	done := []core.Expense{
		loanExpense(day(2024, 1, 5), "Rata Agos", 10000),
		loanExpense(day(2024, 2, 5), "Rata Agos", 10000),
	}
	summaries := GroupLoanPayments(done, testNow)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	if summaries[0].CompletionPercent != 100 || summaries[0].RemainingCount != 0 {
		t.Errorf("completed loan: percent=%d remaining=%d", summaries[0].CompletionPercent, summaries[0].RemainingCount)
	}

	for _, s := range summaries {
		if s.CompletionPercent < 0 || s.CompletionPercent > 100 {
			t.Errorf("completion out of bounds: %d", s.CompletionPercent)
		}
	}
}

func TestGroupLoanPaymentsExplicitPaidStateWins(t *testing.T) {
	future := loanExpense(day(2025, 9, 5), "Rata Compass", 8000)
	future.Paid = core.Paid // paid early
	past := loanExpense(day(2025, 7, 5), "Rata Compass", 8000)
	past.Paid = core.Unpaid // bounced

	summaries := GroupLoanPayments([]core.Expense{future, past}, testNow)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	s := summaries[0]
	if s.PaidCount != 1 || s.RemainingCount != 1 {
		t.Errorf("paid/remaining = %d/%d, want 1/1", s.PaidCount, s.RemainingCount)
	}
	if !s.PaidPayments[0].Date.Equal(day(2025, 9, 5)) {
		t.Error("explicitly paid future installment should be in paidPayments")
	}
}

func TestGroupLoanPaymentsBalloonPayment(t *testing.T) {
	// Final balloon payment must not displace the regular installment.
	payments := []core.Expense{
		loanExpense(day(2025, 5, 5), "Rata Findomestic", 20000),
		loanExpense(day(2025, 6, 5), "Rata Findomestic", 20000),
		loanExpense(day(2025, 7, 5), "Rata Findomestic", 20000),
		loanExpense(day(2025, 8, 5), "Rata Findomestic", 55000),
	}
	summaries := GroupLoanPayments(payments, testNow)
	if summaries[0].MonthlyAmount.Cents != 20000 {
		t.Errorf("MonthlyAmount = %d, want the mode 20000", summaries[0].MonthlyAmount.Cents)
	}
}

func TestGroupLoanPaymentsSortedByMonthlyAmount(t *testing.T) {
	payments := []core.Expense{
		loanExpense(day(2025, 7, 5), "Rata Agos", 5000),
		loanExpense(day(2025, 7, 10), "Rata YOUNITED", 15000),
		loanExpense(day(2025, 7, 15), "Mutuo Intesa", 90000),
	}
	summaries := GroupLoanPayments(payments, testNow)
	if len(summaries) != 3 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	for i := 1; i < len(summaries); i++ {
		if summaries[i].MonthlyAmount.Cents > summaries[i-1].MonthlyAmount.Cents {
			t.Fatal("summaries not sorted by descending monthly amount")
		}
	}
}

func TestGroupLoanPaymentsSingleOccurrenceKept(t *testing.T) {
	// A single ambiguous occurrence is still reported so the user can
	// fix the classification downstream.
	one := []core.Expense{loanExpense(day(2025, 8, 1), "Rata Sella", 7000)}
	summaries := GroupLoanPayments(one, testNow)
	if len(summaries) != 1 {
		t.Fatalf("single occurrence dropped")
	}
	if summaries[0].CompletionPercent != 100 {
		t.Errorf("settled single payment: percent = %d", summaries[0].CompletionPercent)
	}
}

func TestGroupLoanPaymentsMergesNearIdenticalKeys(t *testing.T) {
	payments := []core.Expense{
		loanExpense(day(2025, 6, 5), "Rata YOUNITED", 15000),
		loanExpense(day(2025, 7, 5), "Rata YOUNITEDD", 15000), // export typo
	}
	summaries := GroupLoanPayments(payments, testNow)
	if len(summaries) != 1 {
		t.Fatalf("near-identical keys should merge, got %d groups", len(summaries))
	}
	if summaries[0].TotalCount != 2 {
		t.Errorf("merged group TotalCount = %d", summaries[0].TotalCount)
	}
}

func TestGroupLoanPaymentsEmpty(t *testing.T) {
	if got := GroupLoanPayments(nil, testNow); len(got) != 0 {
		t.Fatalf("empty input should yield no summaries, got %d", len(got))
	}
}
