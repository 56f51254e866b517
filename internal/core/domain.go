package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
)

// Bill types recognized for utility classification. The metered ones
// (luce, gas, acqua) carry consumption readings.
const (
	BillLuce       BillType = "luce"
	BillGas        BillType = "gas"
	BillAcqua      BillType = "acqua"
	BillInternet   BillType = "internet"
	BillTelefono   BillType = "telefono"
	BillCondominio BillType = "condominio"
	BillRifiuti    BillType = "rifiuti"
	BillAltro      BillType = "altro"
)

// Paid state of an expense. Unknown means the record predates payment
// tracking; consumers fall back to the expense date.
const (
	PaidUnknown PaidState = ""
	Paid        PaidState = "paid"
	Unpaid      PaidState = "unpaid"
)

type (
	RepetitionTypes string
	BillType        string
	PaidState       string

	Money struct {
		Cents int64
	}

	// Expense is the read-only input record of the budget engine.
	// Dates and period bounds are assumed well formed by the storage
	// layer; the engine does not re-validate them.
	Expense struct {
		ID          string
		Date        time.Time
		Description string
		Amount      Money
		Category    string // legacy flat tag, kept for old rows
		Parent      string // hierarchical category, primary level
		Child       string // hierarchical category, secondary level
		Recurring   bool

		BillType     BillType
		BillProvider string
		// Consumption reading for metered bills (kWh, Smc, m3).
		ConsumptionValue float64
		ConsumptionUnit  string
		// Billing period bounds; zero when the provider did not state them.
		BillPeriodStart time.Time
		BillPeriodEnd   time.Time

		Paid PaidState
	}

	// Profile carries the per-household settings the engine needs.
	Profile struct {
		CreatedAt time.Time
		// VariableMonthsLookback overrides the default averaging window
		// when > 0.
		VariableMonthsLookback int
	}

	// RecurringTemplate is a repeating expense definition that the
	// recurring worker materializes into concrete expenses.
	RecurringTemplate struct {
		ID            int64
		StartDate     time.Time
		EndDate       time.Time
		Every         RepetitionTypes
		Description   string
		Amount        Money
		Parent        string
		Child         string
		BillType      BillType
		BillProvider  string
		LastExecution time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
)

// Metered reports whether the bill type carries a consumption reading.
func (b BillType) Metered() bool {
	switch b {
	case BillLuce, BillGas, BillAcqua:
		return true
	}
	return false
}

// Utility reports whether the bill type counts as a recurring utility.
// BillAltro is a catch-all and is not treated as a utility.
func (b BillType) Utility() bool {
	switch b {
	case BillLuce, BillGas, BillAcqua, BillInternet, BillTelefono, BillCondominio, BillRifiuti:
		return true
	}
	return false
}

// ParseBillType validates a bill type string coming from the API layer.
func ParseBillType(s string) (BillType, error) {
	b := BillType(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case "", BillLuce, BillGas, BillAcqua, BillInternet, BillTelefono, BillCondominio, BillRifiuti, BillAltro:
		return b, nil
	}
	return "", errors.New("unknown bill type: " + s)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.ConsumptionValue < 0 {
		return errors.New("negative consumption reading")
	}
	if !e.BillPeriodStart.IsZero() && !e.BillPeriodEnd.IsZero() && e.BillPeriodEnd.Before(e.BillPeriodStart) {
		return errors.New("bill period end before start")
	}
	return nil
}

func (rt RecurringTemplate) Validate() error {
	if rt.StartDate.IsZero() {
		return errors.New("invalid start date")
	}
	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate) {
		return errors.New("end date must be after start date")
	}
	switch rt.Every {
	case Monthly, Yearly:
	default:
		return errors.New("invalid repetition type")
	}
	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	return rt.Amount.Validate()
}
