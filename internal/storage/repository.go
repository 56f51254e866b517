package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or was soft-deleted.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `id, date, description, amount_cents, category, parent_category, child_category,
	recurring, bill_type, bill_provider, consumption_value, consumption_unit,
	bill_period_start, bill_period_end, paid`

// CreateExpense inserts the expense and returns its generated ID.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)`,
		e.ID, formatDate(e.Date), e.Description, e.Amount.Cents,
		e.Category, e.Parent, e.Child,
		boolToInt(e.Recurring), string(e.BillType), e.BillProvider,
		e.ConsumptionValue, e.ConsumptionUnit,
		formatDate(e.BillPeriodStart), formatDate(e.BillPeriodEnd),
		string(e.Paid), now, now)
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents)
	return e.ID, nil
}

// UpdateExpense rewrites every mutable column of an existing expense.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET
			date = ?, description = ?, amount_cents = ?,
			category = ?, parent_category = ?, child_category = ?,
			recurring = ?, bill_type = ?, bill_provider = ?,
			consumption_value = ?, consumption_unit = ?,
			bill_period_start = ?, bill_period_end = ?, paid = ?,
			sync_status = 'pending', updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		formatDate(e.Date), e.Description, e.Amount.Cents,
		e.Category, e.Parent, e.Child,
		boolToInt(e.Recurring), string(e.BillType), e.BillProvider,
		e.ConsumptionValue, e.ConsumptionUnit,
		formatDate(e.BillPeriodStart), formatDate(e.BillPeriodEnd),
		string(e.Paid), now, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

// DeleteExpense soft-deletes so the Sheets export can propagate the
// removal before the row disappears.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET deleted_at = ?, sync_status = 'pending', updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// GetExpense retrieves a single expense by ID.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE id = ? AND deleted_at IS NULL`, id)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns all live expenses dated within [from, to],
// oldest first. Zero bounds leave that side open.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE deleted_at IS NULL`
	var args []any
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatDate(from))
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatDate(to))
	}
	query += ` ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// GetProfile returns the singleton profile, creating it on first
// access so the progressive average always has a creation date.
func (r *SQLiteRepository) GetProfile(ctx context.Context) (core.Profile, error) {
	var p core.Profile
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at, variable_months_lookback FROM profile WHERE id = 1`).
		Scan(&createdAt, &p.VariableMonthsLookback)
	if errors.Is(err, sql.ErrNoRows) {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO profile (id, created_at, variable_months_lookback) VALUES (1, ?, 0)`,
			p.CreatedAt.Format(time.RFC3339))
		if err != nil {
			return core.Profile{}, fmt.Errorf("create profile: %w", err)
		}
		slog.InfoContext(ctx, "Profile created", "created_at", p.CreatedAt)
		return p, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.CreatedAt, err = parseDate(createdAt)
	if err != nil {
		return core.Profile{}, fmt.Errorf("parse profile created_at: %w", err)
	}
	return p, nil
}

// UpdateProfile persists the lookback override. CreatedAt is immutable.
func (r *SQLiteRepository) UpdateProfile(ctx context.Context, p core.Profile) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profile SET variable_months_lookback = ? WHERE id = 1`,
		p.VariableMonthsLookback)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

// CreateTemplate inserts a recurring template and returns its ID.
func (r *SQLiteRepository) CreateTemplate(ctx context.Context, t core.RecurringTemplate) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_templates
			(start_date, end_date, every, description, amount_cents,
			 parent_category, child_category, bill_type, bill_provider, last_execution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatDate(t.StartDate), formatDate(t.EndDate), string(t.Every),
		t.Description, t.Amount.Cents,
		t.Parent, t.Child, string(t.BillType), t.BillProvider,
		formatDate(t.LastExecution))
	if err != nil {
		return 0, fmt.Errorf("create template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("template id: %w", err)
	}
	return id, nil
}

// ListTemplates returns every recurring template.
func (r *SQLiteRepository) ListTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, every, description, amount_cents,
		       parent_category, child_category, bill_type, bill_provider, last_execution
		FROM recurring_templates ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurringTemplate
	for rows.Next() {
		var t core.RecurringTemplate
		var start, end, every, billType, lastExec string
		if err := rows.Scan(&t.ID, &start, &end, &every, &t.Description, &t.Amount.Cents,
			&t.Parent, &t.Child, &billType, &t.BillProvider, &lastExec); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		if t.StartDate, err = parseDate(start); err != nil {
			return nil, fmt.Errorf("parse template start date: %w", err)
		}
		if t.EndDate, err = parseDate(end); err != nil {
			return nil, fmt.Errorf("parse template end date: %w", err)
		}
		if t.LastExecution, err = parseDate(lastExec); err != nil {
			return nil, fmt.Errorf("parse template last execution: %w", err)
		}
		t.Every = core.RepetitionTypes(every)
		t.BillType = core.BillType(billType)
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// DeleteTemplate removes a recurring template.
func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return requireRow(res)
}

// MarkTemplateExecuted records when the template last produced an
// expense so the worker never duplicates a period.
func (r *SQLiteRepository) MarkTemplateExecuted(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_templates SET last_execution = ? WHERE id = ?`,
		formatDate(at), id)
	if err != nil {
		return fmt.Errorf("mark template executed: %w", err)
	}
	return requireRow(res)
}

// PendingSyncExpense is the minimal payload queued for the Sheets
// export worker.
type PendingSyncExpense struct {
	ID      string
	Deleted bool
}

// GetPendingSyncExpenses returns expenses awaiting export, deleted
// ones included.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]PendingSyncExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, deleted_at IS NOT NULL FROM expenses
		WHERE sync_status = 'pending'
		ORDER BY updated_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncExpense
	for rows.Next() {
		var p PendingSyncExpense
		if err := rows.Scan(&p.ID, &p.Deleted); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending expenses: %w", err)
	}
	return pending, nil
}

// MarkSynced marks an expense as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'synced' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError flags an expense whose export failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var e core.Expense
	var date, billType, periodStart, periodEnd, paid string
	var recurring int
	err := row.Scan(&e.ID, &date, &e.Description, &e.Amount.Cents,
		&e.Category, &e.Parent, &e.Child,
		&recurring, &billType, &e.BillProvider,
		&e.ConsumptionValue, &e.ConsumptionUnit,
		&periodStart, &periodEnd, &paid)
	if err != nil {
		return core.Expense{}, err
	}
	if e.Date, err = parseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date: %w", err)
	}
	if e.BillPeriodStart, err = parseDate(periodStart); err != nil {
		return core.Expense{}, fmt.Errorf("parse bill period start: %w", err)
	}
	if e.BillPeriodEnd, err = parseDate(periodEnd); err != nil {
		return core.Expense{}, fmt.Errorf("parse bill period end: %w", err)
	}
	e.Recurring = recurring != 0
	e.BillType = core.BillType(billType)
	e.Paid = core.PaidState(paid)

	// Rows imported before the category split carry only the legacy
	// tag; resolve it here so callers never see a half-migrated row.
	if e.Parent == "" && e.Category != "" {
		e.Parent, e.Child = core.MapLegacyCategory(e.Category)
	}
	return e, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
