// Package importer loads bank statement CSV exports into the ledger.
//
// The expected format is a header row followed by one transaction per line:
//
//	date,description,amount,category[,cost_kind]
//
// Amounts are decimal strings; negative values import as expenses, positive
// values as income.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

const dateLayout = "2006-01-02"

// RowError records a statement line that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result reports what one import did.
type Result struct {
	Imported int
	Skipped  int
	Errors   []RowError
}

type Importer struct {
	store storage.LedgerStore
}

func NewImporter(store storage.LedgerStore) *Importer {
	return &Importer{store: store}
}

// columns maps header names to field positions.
type columns struct {
	date        int
	description int
	amount      int
	category    int
	costKind    int
}

func parseHeader(header []string) (columns, error) {
	cols := columns{date: -1, description: -1, amount: -1, category: -1, costKind: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			cols.date = i
		case "description":
			cols.description = i
		case "amount":
			cols.amount = i
		case "category":
			cols.category = i
		case "cost_kind":
			cols.costKind = i
		}
	}
	if cols.date < 0 || cols.description < 0 || cols.amount < 0 || cols.category < 0 {
		return cols, fmt.Errorf("header must contain date, description, amount and category columns, got %v", header)
	}
	return cols, nil
}

// Import reads the statement and inserts one transaction per valid line.
// Bad lines are skipped and reported in the result; only a malformed header
// or an unreadable stream fails the whole import.
func (im *Importer) Import(ctx context.Context, userID string, r io.Reader) (Result, error) {
	var result Result

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("read header: %w", err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return result, err
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return result, fmt.Errorf("read line %d: %w", line, err)
		}

		tx, err := parseRecord(record, cols, userID)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Line: line, Err: err})
			continue
		}

		if _, err := im.store.InsertTransaction(ctx, tx); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Line: line, Err: err})
			continue
		}
		result.Imported++
	}

	slog.InfoContext(ctx, "Statement import finished",
		"imported", result.Imported,
		"skipped", result.Skipped)

	return result, nil
}

func parseRecord(record []string, cols columns, userID string) (core.LedgerTransaction, error) {
	var tx core.LedgerTransaction

	get := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := time.Parse(dateLayout, get(cols.date))
	if err != nil {
		return tx, fmt.Errorf("parse date %q: %w", get(cols.date), err)
	}

	cents, negative, err := parseAmount(get(cols.amount))
	if err != nil {
		return tx, err
	}

	tx = core.LedgerTransaction{
		UserID:      userID,
		Description: get(cols.description),
		Amount:      core.Money{Cents: cents},
		Category:    get(cols.category),
		Date:        core.DateOf(date),
	}

	if negative {
		tx.Flow = core.Expense
		tx.Cost = core.Variable
		if kind := strings.ToLower(get(cols.costKind)); kind == string(core.Fixed) {
			tx.Cost = core.Fixed
		}
	} else {
		tx.Flow = core.Income
	}

	if err := tx.Validate(); err != nil {
		return tx, err
	}
	return tx, nil
}

// parseAmount converts a decimal string to non-negative cents plus a sign.
// Fractional cents round half up, matching bank statement conventions.
func parseAmount(s string) (cents int64, negative bool, err error) {
	if s == "" {
		return 0, false, fmt.Errorf("empty amount")
	}
	// Statements with decimal commas are common in European exports.
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false, fmt.Errorf("parse amount %q: %w", s, err)
	}

	negative = d.IsNegative()
	cents = d.Abs().Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if cents == 0 {
		return 0, false, fmt.Errorf("amount %q is zero", s)
	}
	return cents, negative, nil
}
