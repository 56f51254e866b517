package http

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"bilancio/internal/core"
)

const dateLayout = "2006-01-02"

// expenseRequest is the JSON body for creating or updating an expense.
// Amounts arrive as decimal strings ("12,34" or "12.34") so clients
// never deal in cents.
type expenseRequest struct {
	Date             string  `json:"date"`
	Description      string  `json:"description"`
	Amount           string  `json:"amount"`
	Parent           string  `json:"parent"`
	Child            string  `json:"child"`
	Recurring        bool    `json:"recurring"`
	BillType         string  `json:"billType"`
	BillProvider     string  `json:"billProvider"`
	ConsumptionValue float64 `json:"consumptionValue"`
	ConsumptionUnit  string  `json:"consumptionUnit"`
	BillPeriodStart  string  `json:"billPeriodStart"`
	BillPeriodEnd    string  `json:"billPeriodEnd"`
	Paid             string  `json:"paid"`
}

func parseExpenseRequest(body io.Reader) (core.Expense, error) {
	var req expenseRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return core.Expense{}, fmt.Errorf("decode request: %w", err)
	}

	var e core.Expense
	var err error

	if e.Date, err = parseRequiredDate(req.Date, "date"); err != nil {
		return core.Expense{}, err
	}
	e.Description = strings.TrimSpace(req.Description)

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount: %w", err)
	}
	e.Amount = core.Money{Cents: cents}

	e.Parent = strings.TrimSpace(req.Parent)
	e.Child = strings.TrimSpace(req.Child)
	e.Recurring = req.Recurring

	if req.BillType != "" {
		if e.BillType, err = core.ParseBillType(req.BillType); err != nil {
			return core.Expense{}, err
		}
	}
	e.BillProvider = strings.TrimSpace(req.BillProvider)
	e.ConsumptionValue = req.ConsumptionValue
	e.ConsumptionUnit = strings.TrimSpace(req.ConsumptionUnit)

	if e.BillPeriodStart, err = parseOptionalDate(req.BillPeriodStart, "billPeriodStart"); err != nil {
		return core.Expense{}, err
	}
	if e.BillPeriodEnd, err = parseOptionalDate(req.BillPeriodEnd, "billPeriodEnd"); err != nil {
		return core.Expense{}, err
	}

	switch req.Paid {
	case "", string(core.Paid), string(core.Unpaid):
		e.Paid = core.PaidState(req.Paid)
	default:
		return core.Expense{}, fmt.Errorf("invalid paid state: %s", req.Paid)
	}

	return e, nil
}

// templateRequest is the JSON body for creating a recurring template.
type templateRequest struct {
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Every        string `json:"every"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
	Parent       string `json:"parent"`
	Child        string `json:"child"`
	BillType     string `json:"billType"`
	BillProvider string `json:"billProvider"`
}

func parseTemplateRequest(body io.Reader) (core.RecurringTemplate, error) {
	var req templateRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("decode request: %w", err)
	}

	var t core.RecurringTemplate
	var err error

	if t.StartDate, err = parseRequiredDate(req.StartDate, "startDate"); err != nil {
		return core.RecurringTemplate{}, err
	}
	if t.EndDate, err = parseOptionalDate(req.EndDate, "endDate"); err != nil {
		return core.RecurringTemplate{}, err
	}

	t.Every = core.RepetitionTypes(req.Every)
	t.Description = strings.TrimSpace(req.Description)

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("amount: %w", err)
	}
	t.Amount = core.Money{Cents: cents}

	t.Parent = strings.TrimSpace(req.Parent)
	t.Child = strings.TrimSpace(req.Child)
	if req.BillType != "" {
		if t.BillType, err = core.ParseBillType(req.BillType); err != nil {
			return core.RecurringTemplate{}, err
		}
	}
	t.BillProvider = strings.TrimSpace(req.BillProvider)

	return t, nil
}

func parseRequiredDate(s, field string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing %s", field)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %s", field, s)
	}
	return t, nil
}

func parseOptionalDate(s, field string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseRequiredDate(s, field)
}
