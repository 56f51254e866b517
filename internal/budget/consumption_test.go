package budget

import (
	"math"
	"testing"
	"time"

	"bilancio/internal/core"
)

func meteredExpense(date time.Time, billType core.BillType, provider string, cents int64, value float64, unit string, periodDays int) core.Expense {
	e := utilityBill(date, billType, provider, cents)
	e.ConsumptionValue = value
	e.ConsumptionUnit = unit
	if periodDays > 0 {
		e.BillPeriodStart = date.AddDate(0, 0, -periodDays)
		e.BillPeriodEnd = date
	}
	return e
}

func TestAnalyzeConsumptionNormalization(t *testing.T) {
	// 280 kWh over 28 days normalizes to 300 kWh per 30 days.
	bill := meteredExpense(day(2025, 7, 15), core.BillLuce, "Enel", 9000, 280, "kWh", 28)

	summaries := AnalyzeConsumption([]core.Expense{bill}, testNow)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	s := summaries[0]
	if math.Abs(s.AvgMonthlyConsumption-300) > 1e-9 {
		t.Errorf("AvgMonthlyConsumption = %v, want 300", s.AvgMonthlyConsumption)
	}
	if s.Unit != "kWh" {
		t.Errorf("Unit = %q", s.Unit)
	}
}

func TestAnalyzeConsumptionThirtyDayPeriodIsIdentity(t *testing.T) {
	bill := meteredExpense(day(2025, 7, 15), core.BillGas, "Eni", 12000, 95, "Smc", 30)

	summaries := AnalyzeConsumption([]core.Expense{bill}, testNow)
	if got := summaries[0].AvgMonthlyConsumption; math.Abs(got-95) > 1e-9 {
		t.Errorf("30-day period must normalize to itself, got %v", got)
	}
}

func TestAnalyzeConsumptionMissingPeriodDefaultsToThirtyDays(t *testing.T) {
	bill := meteredExpense(day(2025, 7, 15), core.BillAcqua, "Acea", 4000, 12, "mc", 0)

	summaries := AnalyzeConsumption([]core.Expense{bill}, testNow)
	if got := summaries[0].AvgMonthlyConsumption; math.Abs(got-12) > 1e-9 {
		t.Errorf("missing period should assume 30 days, got %v", got)
	}
}

func TestAnalyzeConsumptionYearOverYear(t *testing.T) {
	bills := []core.Expense{
		// Previous year, within the capped window (month <= August).
		meteredExpense(day(2024, 3, 10), core.BillLuce, "Enel", 8000, 250, "kWh", 30),
		meteredExpense(day(2024, 6, 10), core.BillLuce, "Enel", 7000, 200, "kWh", 30),
		// Previous year but past the cap: excluded from the comparison.
		meteredExpense(day(2024, 11, 10), core.BillLuce, "Enel", 9000, 310, "kWh", 30),
		// Current year.
		meteredExpense(day(2025, 3, 10), core.BillLuce, "Enel", 9500, 270, "kWh", 30),
		meteredExpense(day(2025, 6, 10), core.BillLuce, "Enel", 8500, 230, "kWh", 30),
	}

	summaries := AnalyzeConsumption(bills, testNow)
	s := summaries[0]

	if s.CurrentYearBillCount != 2 || s.PreviousYearBillCount != 2 {
		t.Fatalf("bill counts = %d/%d, want 2/2", s.CurrentYearBillCount, s.PreviousYearBillCount)
	}
	if s.CurrentYearCost.Cents != 18000 || s.PreviousYearCost.Cents != 15000 {
		t.Errorf("costs = %d/%d", s.CurrentYearCost.Cents, s.PreviousYearCost.Cents)
	}
	if s.CurrentYearConsumption != 500 || s.PreviousYearConsumption != 450 {
		t.Errorf("consumption = %v/%v", s.CurrentYearConsumption, s.PreviousYearConsumption)
	}
	if math.Abs(s.CostVariation-20) > 1e-9 { // (180-150)/150
		t.Errorf("CostVariation = %v, want 20", s.CostVariation)
	}
	wantConsumptionVar := (500.0 - 450.0) / 450.0 * 100
	if math.Abs(s.ConsumptionVariation-wantConsumptionVar) > 1e-9 {
		t.Errorf("ConsumptionVariation = %v, want %v", s.ConsumptionVariation, wantConsumptionVar)
	}
}

func TestAnalyzeConsumptionVariationZeroBase(t *testing.T) {
	// First year with this provider: no previous history, variation 0.
	bill := meteredExpense(day(2025, 5, 10), core.BillLuce, "Octopus", 6000, 180, "kWh", 30)

	s := AnalyzeConsumption([]core.Expense{bill}, testNow)[0]
	if s.CostVariation != 0 || s.ConsumptionVariation != 0 {
		t.Errorf("zero base must give 0 variation, got %v/%v", s.CostVariation, s.ConsumptionVariation)
	}
	if math.IsInf(s.CostVariation, 0) || math.IsNaN(s.CostVariation) {
		t.Error("variation must be finite")
	}
}

func TestAnalyzeConsumptionEstimatedNextBill(t *testing.T) {
	// Two identical bills: 300 kWh per 30 days at 0.30 euro/kWh gives a
	// 90 euro forecast.
	bills := []core.Expense{
		meteredExpense(day(2025, 5, 10), core.BillLuce, "Enel", 9000, 300, "kWh", 30),
		meteredExpense(day(2025, 6, 10), core.BillLuce, "Enel", 9000, 300, "kWh", 30),
	}

	s := AnalyzeConsumption(bills, testNow)[0]
	if math.Abs(s.AvgPricePerUnit-0.30) > 1e-9 {
		t.Errorf("AvgPricePerUnit = %v, want 0.30", s.AvgPricePerUnit)
	}
	if math.Abs(s.EstimatedNextBill-90) > 1e-9 {
		t.Errorf("EstimatedNextBill = %v, want 90", s.EstimatedNextBill)
	}
	if s.AvgBillAmount.Cents != 9000 {
		t.Errorf("AvgBillAmount = %d", s.AvgBillAmount.Cents)
	}
}

func TestAnalyzeConsumptionFiltersNonMetered(t *testing.T) {
	unpaid := meteredExpense(day(2025, 6, 10), core.BillLuce, "Enel", 9000, 300, "kWh", 30)
	unpaid.Paid = core.Unpaid
	noReading := utilityBill(day(2025, 6, 12), core.BillGas, "Eni", 7000)
	internet := meteredExpense(day(2025, 6, 15), core.BillInternet, "Fastweb", 2990, 100, "GB", 30)

	summaries := AnalyzeConsumption([]core.Expense{unpaid, noReading, internet}, testNow)
	if len(summaries) != 0 {
		t.Fatalf("unpaid, reading-less and non-metered bills must be skipped, got %d summaries", len(summaries))
	}
}

func TestAnalyzeConsumptionGroupsByTypeAndProvider(t *testing.T) {
	bills := []core.Expense{
		meteredExpense(day(2025, 5, 10), core.BillLuce, "Enel", 9000, 300, "kWh", 30),
		meteredExpense(day(2025, 5, 12), core.BillGas, "Enel", 7000, 80, "Smc", 30),
		meteredExpense(day(2025, 5, 14), core.BillLuce, "Octopus", 6000, 180, "kWh", 30),
	}

	summaries := AnalyzeConsumption(bills, testNow)
	if len(summaries) != 3 {
		t.Fatalf("got %d groups, want 3", len(summaries))
	}
	// Sorted by bill type, then provider.
	if summaries[0].BillType != core.BillGas {
		t.Errorf("first group = %s/%s", summaries[0].BillType, summaries[0].Provider)
	}
	if summaries[1].Provider != "Enel" || summaries[2].Provider != "Octopus" {
		t.Errorf("luce groups out of order: %s, %s", summaries[1].Provider, summaries[2].Provider)
	}
}
