// Package google mirrors expenses into a Google Sheets spreadsheet so
// the family can keep eyeballing the numbers where they always have.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
)

// Config selects the target spreadsheet and the service account used
// to reach it. Exactly one of CredentialsFile and CredentialsJSON must
// be set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Spese"
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		credentials, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return credentials, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// SyncExpense writes the expense to its row, keyed by ID in column A.
// An existing row is updated in place, a new one is appended, so
// replaying a change message is harmless.
func (x *Exporter) SyncExpense(ctx context.Context, e core.Expense) error {
	row, err := x.findRow(ctx, e.ID)
	if err != nil {
		return err
	}

	values := &gsheet.ValueRange{Values: [][]any{{
		e.ID,
		e.Date.Format("2006-01-02"),
		e.Description,
		e.Amount.Euros(),
		e.Parent,
		e.Child,
		string(e.BillType),
		e.BillProvider,
	}}}

	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:H%d", x.sheetName, row, row)
		_, err = x.svc.Spreadsheets.Values.Update(x.spreadsheetID, rng, values).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d in sheet %s: %w", row, x.sheetName, err)
		}
		slog.InfoContext(ctx, "Expense updated in sheet", "id", e.ID, "row", row)
		return nil
	}

	rng := fmt.Sprintf("%s!A:H", x.sheetName)
	_, err = x.svc.Spreadsheets.Values.Append(x.spreadsheetID, rng, values).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", x.sheetName, err)
	}
	slog.InfoContext(ctx, "Expense appended to sheet", "id", e.ID)
	return nil
}

// RemoveExpense clears the expense's row. A missing row is not an
// error: the expense may never have been exported.
func (x *Exporter) RemoveExpense(ctx context.Context, id string) error {
	row, err := x.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		slog.InfoContext(ctx, "Expense not present in sheet, nothing to remove", "id", id)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:H%d", x.sheetName, row, row)
	_, err = x.svc.Spreadsheets.Values.Clear(x.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", row, x.sheetName, err)
	}
	slog.InfoContext(ctx, "Expense removed from sheet", "id", id, "row", row)
	return nil
}

// findRow returns the 1-based row holding the expense ID, 0 when
// absent.
func (x *Exporter) findRow(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", x.sheetName)
	resp, err := x.svc.Spreadsheets.Values.Get(x.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read IDs from sheet %s: %w", x.sheetName, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}
