package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// ExpenseService orchestrates expense writes across SQLite, AMQP and
// the summary cache. SQLite is the source of truth: a failed publish
// never fails the request, the export worker catches up from the sync
// queue.
type ExpenseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	summaries  *SummaryService
}

func NewExpenseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, summaries *SummaryService) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
		summaries:  summaries,
	}
}

// CreateExpense validates and saves an expense, then notifies the
// export worker.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validate expense: %w", err)
	}

	id, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save expense: %w", err)
	}

	s.invalidate()
	s.publishChange(ctx, id, amqp.ChangeCreated)
	return id, nil
}

// UpdateExpense rewrites an existing expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}

	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	s.invalidate()
	s.publishChange(ctx, e.ID, amqp.ChangeUpdated)
	return nil
}

// DeleteExpense soft-deletes locally and notifies the export worker so
// the spreadsheet row goes too.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.invalidate()
	s.publishChange(ctx, id, amqp.ChangeDeleted)
	return nil
}

// GetExpense returns a single expense.
func (s *ExpenseService) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return s.storage.GetExpense(ctx, id)
}

// ListExpenses returns live expenses within the date range.
func (s *ExpenseService) ListExpenses(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx, from, to)
}

func (s *ExpenseService) invalidate() {
	if s.summaries != nil {
		s.summaries.Invalidate()
	}
}

func (s *ExpenseService) publishChange(ctx context.Context, id, change string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change message", "id", id)
		return
	}
	if err := s.amqpClient.PublishExpenseChanged(ctx, id, change); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"id", id, "change", change, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
