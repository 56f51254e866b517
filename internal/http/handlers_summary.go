package http

import (
	"log/slog"
	"net/http"
	"time"

	"bilancio/internal/budget"
)

type loanView struct {
	Name              string `json:"name"`
	MonthlyAmount     string `json:"monthlyAmount"`
	TotalPaid         string `json:"totalPaid"`
	TotalRemaining    string `json:"totalRemaining"`
	PaidCount         int    `json:"paidCount"`
	RemainingCount    int    `json:"remainingCount"`
	TotalCount        int    `json:"totalCount"`
	CompletionPercent int    `json:"completionPercent"`
	FirstPayment      string `json:"firstPayment"`
	LastPayment       string `json:"lastPayment"`
}

func toLoanView(l budget.LoanSummary) loanView {
	return loanView{
		Name:              l.Name,
		MonthlyAmount:     l.MonthlyAmount.String(),
		TotalPaid:         l.TotalPaid.String(),
		TotalRemaining:    l.TotalRemaining.String(),
		PaidCount:         l.PaidCount,
		RemainingCount:    l.RemainingCount,
		TotalCount:        l.TotalCount,
		CompletionPercent: l.CompletionPercent,
		FirstPayment:      l.FirstPayment.Format(dateLayout),
		LastPayment:       l.LastPayment.Format(dateLayout),
	}
}

type transferView struct {
	Counterpart   string `json:"counterpart"`
	MonthlyAmount string `json:"monthlyAmount"`
	TotalAmount   string `json:"totalAmount"`
	Count         int    `json:"count"`
}

func toTransferView(t budget.TransferSummary) transferView {
	return transferView{
		Counterpart:   t.Counterpart,
		MonthlyAmount: t.MonthlyAmount.String(),
		TotalAmount:   t.TotalAmount.String(),
		Count:         t.Count,
	}
}

type averageView struct {
	VariableMonthlyAverage float64          `json:"variableMonthlyAverage"`
	MonthsConsidered       int              `json:"monthsConsidered"`
	ProfileAgeMonths       int              `json:"profileAgeMonths"`
	IsEstimated            bool             `json:"isEstimated"`
	VariableByMonth        []monthTotalView `json:"variableByMonth"`
}

type monthTotalView struct {
	Month string `json:"month"`
	Total string `json:"total"`
}

func toAverageView(a budget.ProgressiveAverageResult) averageView {
	v := averageView{
		VariableMonthlyAverage: a.VariableMonthlyAverage,
		MonthsConsidered:       a.MonthsConsidered,
		ProfileAgeMonths:       a.ProfileAgeMonths,
		IsEstimated:            a.IsEstimated,
	}
	for _, m := range a.VariableByMonth {
		v.VariableByMonth = append(v.VariableByMonth, monthTotalView{
			Month: m.Month.Format("2006-01"),
			Total: m.Total.String(),
		})
	}
	return v
}

type summaryView struct {
	MonthlyLoans           string         `json:"monthlyLoans"`
	MonthlyTransfers       string         `json:"monthlyTransfers"`
	MonthlySubscriptions   string         `json:"monthlySubscriptions"`
	TotalMonthlyFixed      string         `json:"totalMonthlyFixed"`
	MonthlyUtilities       string         `json:"monthlyUtilities"`
	VariableMonthlyAverage float64        `json:"variableMonthlyAverage"`
	TotalMonthlyExpenses   float64        `json:"totalMonthlyExpenses"`
	TotalWithUtilities     float64        `json:"totalWithUtilities"`
	Loans                  []loanView     `json:"loans"`
	Transfers              []transferView `json:"transfers"`
	Average                averageView    `json:"average"`
}

func toSummaryView(s budget.ExpensesSummary) summaryView {
	v := summaryView{
		MonthlyLoans:           s.MonthlyLoans.String(),
		MonthlyTransfers:       s.MonthlyTransfers.String(),
		MonthlySubscriptions:   s.MonthlySubscriptions.String(),
		TotalMonthlyFixed:      s.TotalMonthlyFixed.String(),
		MonthlyUtilities:       s.MonthlyUtilities.String(),
		VariableMonthlyAverage: s.VariableMonthlyAverage,
		TotalMonthlyExpenses:   s.TotalMonthlyExpenses,
		TotalWithUtilities:     s.TotalWithUtilities,
		Loans:                  make([]loanView, 0, len(s.Loans)),
		Transfers:              make([]transferView, 0, len(s.Transfers)),
		Average:                toAverageView(s.Average),
	}
	for _, l := range s.Loans {
		v.Loans = append(v.Loans, toLoanView(l))
	}
	for _, t := range s.Transfers {
		v.Transfers = append(v.Transfers, toTransferView(t))
	}
	return v
}

type consumptionView struct {
	BillType                string  `json:"billType"`
	Provider                string  `json:"provider"`
	Unit                    string  `json:"unit"`
	CurrentYearCost         string  `json:"currentYearCost"`
	PreviousYearCost        string  `json:"previousYearCost"`
	CurrentYearConsumption  float64 `json:"currentYearConsumption"`
	PreviousYearConsumption float64 `json:"previousYearConsumption"`
	CurrentYearBillCount    int     `json:"currentYearBillCount"`
	PreviousYearBillCount   int     `json:"previousYearBillCount"`
	CostVariation           float64 `json:"costVariation"`
	ConsumptionVariation    float64 `json:"consumptionVariation"`
	AvgPricePerUnit         float64 `json:"avgPricePerUnit"`
	AvgMonthlyConsumption   float64 `json:"avgMonthlyConsumption"`
	AvgBillAmount           string  `json:"avgBillAmount"`
	EstimatedNextBill       float64 `json:"estimatedNextBill"`
}

func toConsumptionView(c budget.ProviderConsumptionSummary) consumptionView {
	return consumptionView{
		BillType:                string(c.BillType),
		Provider:                c.Provider,
		Unit:                    c.Unit,
		CurrentYearCost:         c.CurrentYearCost.String(),
		PreviousYearCost:        c.PreviousYearCost.String(),
		CurrentYearConsumption:  c.CurrentYearConsumption,
		PreviousYearConsumption: c.PreviousYearConsumption,
		CurrentYearBillCount:    c.CurrentYearBillCount,
		PreviousYearBillCount:   c.PreviousYearBillCount,
		CostVariation:           c.CostVariation,
		ConsumptionVariation:    c.ConsumptionVariation,
		AvgPricePerUnit:         c.AvgPricePerUnit,
		AvgMonthlyConsumption:   c.AvgMonthlyConsumption,
		AvgBillAmount:           c.AvgBillAmount.String(),
		EstimatedNextBill:       c.EstimatedNextBill,
	}
}

// handleSummary returns the full monthly budget picture.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.loadSummary(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toSummaryView(summary))
}

// handleLoans returns the loan groups only.
func (s *Server) handleLoans(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.loadSummary(w, r)
	if !ok {
		return
	}
	views := make([]loanView, 0, len(summary.Loans))
	for _, l := range summary.Loans {
		views = append(views, toLoanView(l))
	}
	writeJSON(r.Context(), w, http.StatusOK, views)
}

// handleTransfers returns the family transfer groups only.
func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.loadSummary(w, r)
	if !ok {
		return
	}
	views := make([]transferView, 0, len(summary.Transfers))
	for _, t := range summary.Transfers {
		views = append(views, toTransferView(t))
	}
	writeJSON(r.Context(), w, http.StatusOK, views)
}

// handleAverage returns the progressive variable average only.
func (s *Server) handleAverage(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.loadSummary(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toAverageView(summary.Average))
}

// handleConsumption returns per-provider utility consumption.
func (s *Server) handleConsumption(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	ctx, cancel := contextWithHandlerTimeout(r)
	defer cancel()

	summaries, err := s.summaries.Consumption(ctx, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to compute consumption", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "consumption failed")
		return
	}

	views := make([]consumptionView, 0, len(summaries))
	for _, c := range summaries {
		views = append(views, toConsumptionView(c))
	}
	writeJSON(ctx, w, http.StatusOK, views)
}

func (s *Server) loadSummary(w http.ResponseWriter, r *http.Request) (budget.ExpensesSummary, bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return budget.ExpensesSummary{}, false
	}

	ctx, cancel := contextWithHandlerTimeout(r)
	defer cancel()

	summary, err := s.summaries.Summary(ctx, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to compute summary", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "summary failed")
		return budget.ExpensesSummary{}, false
	}
	return summary, true
}
