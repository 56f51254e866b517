package budget

import (
	"sort"
	"time"

	"bilancio/internal/core"
)

// defaultPeriodDays stands in for bills whose provider did not state
// the billing period bounds.
const defaultPeriodDays = 30

// ProviderConsumptionSummary compares a provider's metered bills year
// over year and forecasts the next bill from normalized 30-day
// consumption. Only paid bills with a positive reading contribute.
type ProviderConsumptionSummary struct {
	BillType core.BillType
	Provider string
	Unit     string

	CurrentYearCost         core.Money
	PreviousYearCost        core.Money
	CurrentYearConsumption  float64
	PreviousYearConsumption float64
	CurrentYearBillCount    int
	PreviousYearBillCount   int

	// Variations are percentages; 0 when the previous-year total is 0.
	CostVariation        float64
	ConsumptionVariation float64

	AvgPricePerUnit       float64 // euros per unit, over the 2-year window
	AvgMonthlyConsumption float64 // normalized to 30 days
	AvgBillAmount         core.Money

	EstimatedNextBill float64 // euros
}

type meteredBill struct {
	expense    core.Expense
	periodDays int
	// normalized is the reading rescaled to a 30-day period so that
	// 28-day and 35-day billing cycles compare fairly.
	normalized   float64
	pricePerUnit float64
}

// AnalyzeConsumption produces one summary per (bill type, provider)
// pair. Year-over-year totals are both bounded by the current calendar
// month so a partial year is compared against an equally partial prior
// year. Averages run over all bills from the previous year onward.
func AnalyzeConsumption(expenses []core.Expense, now time.Time) []ProviderConsumptionSummary {
	type groupKey struct {
		billType core.BillType
		provider string
	}
	groups := make(map[groupKey][]meteredBill)
	for _, e := range expenses {
		if e.Paid != core.Paid || !e.BillType.Metered() || e.ConsumptionValue <= 0 {
			continue
		}
		groups[groupKey{e.BillType, e.BillProvider}] = append(groups[groupKey{e.BillType, e.BillProvider}], newMeteredBill(e))
	}

	summaries := make([]ProviderConsumptionSummary, 0, len(groups))
	for key, bills := range groups {
		summaries = append(summaries, summarizeProvider(key.billType, key.provider, bills, now))
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].BillType != summaries[j].BillType {
			return summaries[i].BillType < summaries[j].BillType
		}
		return summaries[i].Provider < summaries[j].Provider
	})
	return summaries
}

func newMeteredBill(e core.Expense) meteredBill {
	days := defaultPeriodDays
	if !e.BillPeriodStart.IsZero() && !e.BillPeriodEnd.IsZero() {
		if d := int(e.BillPeriodEnd.Sub(e.BillPeriodStart).Hours() / 24); d > 0 {
			days = d
		}
	}
	return meteredBill{
		expense:      e,
		periodDays:   days,
		normalized:   e.ConsumptionValue / float64(days) * 30,
		pricePerUnit: e.Amount.Euros() / e.ConsumptionValue,
	}
}

func summarizeProvider(billType core.BillType, provider string, bills []meteredBill, now time.Time) ProviderConsumptionSummary {
	s := ProviderConsumptionSummary{
		BillType: billType,
		Provider: provider,
	}
	currentYear := now.Year()
	currentMonth := now.Month()

	var windowCount int
	var windowPriceSum, windowNormalizedSum float64
	var windowAmountSum int64

	for _, b := range bills {
		e := b.expense
		if s.Unit == "" {
			s.Unit = e.ConsumptionUnit
		}

		// Year-over-year totals, both capped at the current month.
		if e.Date.Month() <= currentMonth {
			switch e.Date.Year() {
			case currentYear:
				s.CurrentYearCost = s.CurrentYearCost.Add(e.Amount)
				s.CurrentYearConsumption += e.ConsumptionValue
				s.CurrentYearBillCount++
			case currentYear - 1:
				s.PreviousYearCost = s.PreviousYearCost.Add(e.Amount)
				s.PreviousYearConsumption += e.ConsumptionValue
				s.PreviousYearBillCount++
			}
		}

		// Averages over the rolling 2-year window.
		if e.Date.Year() >= currentYear-1 {
			windowCount++
			windowPriceSum += b.pricePerUnit
			windowNormalizedSum += b.normalized
			windowAmountSum += e.Amount.Cents
		}
	}

	s.CostVariation = variationPercent(s.CurrentYearCost.Euros(), s.PreviousYearCost.Euros())
	s.ConsumptionVariation = variationPercent(s.CurrentYearConsumption, s.PreviousYearConsumption)

	if windowCount > 0 {
		s.AvgPricePerUnit = windowPriceSum / float64(windowCount)
		s.AvgMonthlyConsumption = windowNormalizedSum / float64(windowCount)
		s.AvgBillAmount = core.Money{Cents: windowAmountSum / int64(windowCount)}
		s.EstimatedNextBill = s.AvgMonthlyConsumption * s.AvgPricePerUnit
	}
	return s
}

// variationPercent guards against a zero base: a provider with no
// previous-year history reports 0, never +Inf.
func variationPercent(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
