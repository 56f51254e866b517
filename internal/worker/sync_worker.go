// Package worker drains the expense sync queue into Google Sheets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// Exporter is what the worker needs from the Sheets client.
type Exporter interface {
	SyncExpense(ctx context.Context, e core.Expense) error
	RemoveExpense(ctx context.Context, id string) error
}

// SyncWorker mirrors expense changes to the spreadsheet. Messages only
// carry IDs; the worker always reads the current row, so out-of-order
// delivery cannot resurrect stale data.
type SyncWorker struct {
	repo      *storage.SQLiteRepository
	exporter  Exporter
	batchSize int
}

func NewSyncWorker(repo *storage.SQLiteRepository, exporter Exporter, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{
		repo:      repo,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleChangeMessage processes one AMQP change message. Returning an
// error requeues the message.
func (w *SyncWorker) HandleChangeMessage(msg *amqp.ExpenseChangedMessage) error {
	return w.syncOne(context.Background(), msg.ID)
}

// ProcessPendingExpenses sweeps the sync queue for rows whose messages
// were lost. Individual failures are flagged and skipped.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.repo.GetPendingSyncExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending sync expenses", "count", len(pending))

	for _, p := range pending {
		if err := w.syncOne(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending expense", "id", p.ID, "error", err)
			if markErr := w.repo.MarkSyncError(ctx, p.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to flag sync error", "id", p.ID, "error", markErr)
			}
		}
	}
	return nil
}

// syncOne pushes the current state of one expense to the sheet. A row
// that is gone locally is removed remotely.
func (w *SyncWorker) syncOne(ctx context.Context, id string) error {
	e, err := w.repo.GetExpense(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if err := w.exporter.RemoveExpense(ctx, id); err != nil {
			return fmt.Errorf("remove expense from sheet: %w", err)
		}
	case err != nil:
		return fmt.Errorf("load expense: %w", err)
	default:
		if err := w.exporter.SyncExpense(ctx, e); err != nil {
			return fmt.Errorf("sync expense to sheet: %w", err)
		}
	}

	if err := w.repo.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}
