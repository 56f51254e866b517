package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// TemplateStore is the slice of the repository the processor needs.
type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]core.RecurringTemplate, error)
	MarkTemplateExecuted(ctx context.Context, id int64, at time.Time) error
}

// ExpenseCreator creates expenses. Satisfied by ExpenseService, so
// template-generated expenses flow through the same validation, cache
// invalidation and export path as manual ones.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, e core.Expense) (string, error)
}

// RecurringProcessor turns due recurring templates into real expenses.
type RecurringProcessor struct {
	templates TemplateStore
	expenses  ExpenseCreator
}

func NewRecurringProcessor(templates TemplateStore, expenses ExpenseCreator) *RecurringProcessor {
	return &RecurringProcessor{
		templates: templates,
		expenses:  expenses,
	}
}

// ProcessDueTemplates creates an expense for every template due at
// now and returns how many were created. One broken template never
// stops the rest.
func (p *RecurringProcessor) ProcessDueTemplates(ctx context.Context, now time.Time) (int, error) {
	if p.templates == nil || p.expenses == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.templates.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"total", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, t := range templates {
		if !p.isActive(t, now) {
			continue
		}

		checker, err := GetDuenessChecker(t.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping template with unknown frequency",
				"id", t.ID, "frequency", t.Every)
			continue
		}
		if !checker.IsDue(t.LastExecution, now, t.StartDate) {
			continue
		}

		expense := core.Expense{
			Date:         now,
			Description:  t.Description,
			Amount:       t.Amount,
			Parent:       t.Parent,
			Child:        t.Child,
			Recurring:    true,
			BillType:     t.BillType,
			BillProvider: t.BillProvider,
		}

		if _, err := p.expenses.CreateExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to create expense from template",
				"template_id", t.ID,
				"description", t.Description,
				"error", err)
			continue
		}

		if err := p.templates.MarkTemplateExecuted(ctx, t.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to update template last execution",
				"template_id", t.ID,
				"error", err)
			// The expense exists; the next run may duplicate it, which
			// the user can fix, unlike a silently missing installment.
		}

		processed++
		slog.InfoContext(ctx, "Created expense from recurring template",
			"template_id", t.ID,
			"description", t.Description,
			"amount_cents", t.Amount.Cents,
			"frequency", t.Every)
	}

	slog.InfoContext(ctx, "Recurring template processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}

func (p *RecurringProcessor) isActive(t core.RecurringTemplate, now time.Time) bool {
	if now.Before(t.StartDate) {
		return false
	}
	if !t.EndDate.IsZero() && now.After(t.EndDate) {
		return false
	}
	return true
}
