package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
)

type fakeTemplateStore struct {
	templates []core.RecurringTemplate
	executed  map[int64]time.Time
}

func (f *fakeTemplateStore) ListTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return f.templates, nil
}

func (f *fakeTemplateStore) MarkTemplateExecuted(ctx context.Context, id int64, at time.Time) error {
	if f.executed == nil {
		f.executed = make(map[int64]time.Time)
	}
	f.executed[id] = at
	return nil
}

type fakeExpenseCreator struct {
	created []core.Expense
	err     error
}

func (f *fakeExpenseCreator) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, e)
	return "id", nil
}

func TestProcessDueTemplates(t *testing.T) {
	now := date(2025, 8, 15)
	store := &fakeTemplateStore{templates: []core.RecurringTemplate{
		{
			ID:          1,
			StartDate:   date(2025, 1, 10),
			Every:       core.Monthly,
			Description: "Rata YOUNITED",
			Amount:      core.Money{Cents: 15000},
			Parent:      "Finanziamenti",
			Child:       "Rate",
			// Last ran in July: due again.
			LastExecution: date(2025, 7, 10),
		},
		{
			ID:          2,
			StartDate:   date(2025, 8, 1),
			Every:       core.Monthly,
			Description: "Netflix",
			Amount:      core.Money{Cents: 1299},
			// Already ran this month: not due.
			LastExecution: date(2025, 8, 1),
		},
		{
			ID:          3,
			StartDate:   date(2025, 9, 1),
			Every:       core.Monthly,
			Description: "Palestra",
			Amount:      core.Money{Cents: 4000},
			// Starts next month: inactive.
		},
	}}
	creator := &fakeExpenseCreator{}

	processed, err := NewRecurringProcessor(store, creator).ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
	if len(creator.created) != 1 {
		t.Fatalf("created %d expenses", len(creator.created))
	}

	e := creator.created[0]
	if e.Description != "Rata YOUNITED" || e.Amount.Cents != 15000 {
		t.Errorf("expense = %q %d", e.Description, e.Amount.Cents)
	}
	if !e.Recurring {
		t.Error("template-generated expense must be recurring")
	}
	if !e.Date.Equal(now) {
		t.Errorf("expense date = %v", e.Date)
	}
	if got := store.executed[1]; !got.Equal(now) {
		t.Errorf("last execution = %v", got)
	}
	if _, ok := store.executed[2]; ok {
		t.Error("template 2 should not have been marked")
	}
}

func TestProcessDueTemplatesEndedTemplateSkipped(t *testing.T) {
	store := &fakeTemplateStore{templates: []core.RecurringTemplate{{
		ID:            1,
		StartDate:     date(2024, 1, 10),
		EndDate:       date(2025, 6, 30),
		Every:         core.Monthly,
		Description:   "Rata Agos",
		Amount:        core.Money{Cents: 5000},
		LastExecution: date(2025, 6, 10),
	}}}
	creator := &fakeExpenseCreator{}

	processed, err := NewRecurringProcessor(store, creator).ProcessDueTemplates(context.Background(), date(2025, 8, 15))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed != 0 || len(creator.created) != 0 {
		t.Errorf("ended template still processed: %d created", len(creator.created))
	}
}

func TestProcessDueTemplatesCreateFailureDoesNotMark(t *testing.T) {
	store := &fakeTemplateStore{templates: []core.RecurringTemplate{{
		ID:          1,
		StartDate:   date(2025, 1, 10),
		Every:       core.Monthly,
		Description: "Rata YOUNITED",
		Amount:      core.Money{Cents: 15000},
	}}}
	creator := &fakeExpenseCreator{err: errors.New("storage down")}

	processed, err := NewRecurringProcessor(store, creator).ProcessDueTemplates(context.Background(), date(2025, 8, 15))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed != 0 {
		t.Errorf("processed = %d, want 0", processed)
	}
	if _, ok := store.executed[1]; ok {
		t.Error("failed creation must not advance last execution")
	}
}
