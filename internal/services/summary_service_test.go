package services

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
)

type fakeReader struct {
	expenses []core.Expense
	profile  core.Profile
	listed   int
}

func (f *fakeReader) ListExpenses(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	f.listed++
	return f.expenses, nil
}

func (f *fakeReader) GetProfile(ctx context.Context) (core.Profile, error) {
	return f.profile, nil
}

func testReader() *fakeReader {
	return &fakeReader{
		expenses: []core.Expense{
			{
				ID:          "e1",
				Date:        date(2025, 8, 5),
				Description: "Rata YOUNITED",
				Amount:      core.Money{Cents: 5000},
				Recurring:   true,
			},
			{
				ID:          "e2",
				Date:        date(2025, 8, 7),
				Description: "Trasferimento a Mamy",
				Amount:      core.Money{Cents: 3000},
			},
			{
				ID:          "e3",
				Date:        date(2025, 8, 9),
				Description: "Supermercato Conad",
				Amount:      core.Money{Cents: 2000},
			},
		},
		profile: core.Profile{CreatedAt: date(2025, 7, 15)},
	}
}

func TestSummaryService(t *testing.T) {
	reader := testReader()
	svc := NewSummaryService(reader, 16, time.Minute, 0)
	now := date(2025, 8, 15)

	s, err := svc.Summary(context.Background(), now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.MonthlyLoans.Cents != 5000 {
		t.Errorf("MonthlyLoans = %d", s.MonthlyLoans.Cents)
	}
	if s.MonthlyTransfers.Cents != 3000 {
		t.Errorf("MonthlyTransfers = %d", s.MonthlyTransfers.Cents)
	}
	if s.VariableMonthlyAverage != 20 {
		t.Errorf("VariableMonthlyAverage = %v", s.VariableMonthlyAverage)
	}
	if !s.Average.IsEstimated {
		t.Error("one-month profile should be estimated")
	}
}

func TestSummaryServiceCaches(t *testing.T) {
	reader := testReader()
	svc := NewSummaryService(reader, 16, time.Minute, 0)
	now := date(2025, 8, 15)

	if _, err := svc.Summary(context.Background(), now); err != nil {
		t.Fatalf("first summary: %v", err)
	}
	if _, err := svc.Summary(context.Background(), now); err != nil {
		t.Fatalf("second summary: %v", err)
	}
	if reader.listed != 1 {
		t.Errorf("reader hit %d times, want 1 (cached)", reader.listed)
	}

	svc.Invalidate()
	if _, err := svc.Summary(context.Background(), now); err != nil {
		t.Fatalf("post-invalidate summary: %v", err)
	}
	if reader.listed != 2 {
		t.Errorf("reader hit %d times after invalidate, want 2", reader.listed)
	}
}

func TestSummaryServiceConfiguredLookbackOverridesProfile(t *testing.T) {
	reader := testReader()
	reader.profile = core.Profile{
		CreatedAt:              date(2024, 1, 1),
		VariableMonthsLookback: 12,
	}
	// Spread variable spend over four months so the window can grow.
	reader.expenses = nil
	for i := 0; i < 4; i++ {
		reader.expenses = append(reader.expenses, core.Expense{
			ID:          "e",
			Date:        date(2025, 5+i, 10),
			Description: "Spesa",
			Amount:      core.Money{Cents: 10000},
		})
	}

	svc := NewSummaryService(reader, 16, time.Minute, 2)
	s, err := svc.Summary(context.Background(), date(2025, 8, 15))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Average.MonthsConsidered != 2 {
		t.Errorf("MonthsConsidered = %d, want the configured 2", s.Average.MonthsConsidered)
	}
}

func TestSummaryServiceConsumption(t *testing.T) {
	reader := testReader()
	reader.expenses = append(reader.expenses, core.Expense{
		ID:               "b1",
		Date:             date(2025, 7, 15),
		Description:      "Bolletta Enel",
		Amount:           core.Money{Cents: 9000},
		BillType:         core.BillLuce,
		BillProvider:     "Enel",
		ConsumptionValue: 300,
		ConsumptionUnit:  "kWh",
		Paid:             core.Paid,
	})

	svc := NewSummaryService(reader, 16, time.Minute, 0)
	summaries, err := svc.Consumption(context.Background(), date(2025, 8, 15))
	if err != nil {
		t.Fatalf("consumption: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d provider summaries", len(summaries))
	}
	if summaries[0].Provider != "Enel" || summaries[0].BillType != core.BillLuce {
		t.Errorf("summary = %s/%s", summaries[0].BillType, summaries[0].Provider)
	}
}
