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
	_ "modernc.org/sqlite"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
)

const dateLayout = "2006-01-02"

// SQLiteStore is the file-backed LedgerStore used for local deployments.
type SQLiteStore struct {
	db *sql.DB
}

var _ LedgerStore = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) InsertObligation(ctx context.Context, o core.RecurringObligation) (string, error) {
	if err := o.Validate(); err != nil {
		return "", fmt.Errorf("validate obligation: %w", err)
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	var lastGenerated any
	if !o.LastGenerated.IsZero() {
		lastGenerated = o.LastGenerated.Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO obligations (id, user_id, description, amount_cents, category, day_of_month, active, last_generated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.Description, o.Amount.Cents, o.Category, o.DayOfMonth, boolToInt(o.Active), lastGenerated)
	if err != nil {
		return "", fmt.Errorf("insert obligation: %w", err)
	}

	slog.InfoContext(ctx, "Obligation saved",
		"id", o.ID,
		"description", o.Description,
		"amount_cents", o.Amount.Cents,
		"day_of_month", o.DayOfMonth)

	return o.ID, nil
}

const obligationColumns = `id, user_id, description, amount_cents, category, day_of_month, active, last_generated`

func (s *SQLiteStore) ListObligations(ctx context.Context, userID string) ([]core.RecurringObligation, error) {
	return s.queryObligations(ctx, `
		SELECT `+obligationColumns+` FROM obligations
		WHERE user_id = ? ORDER BY created_at`, userID)
}

func (s *SQLiteStore) ListActiveObligations(ctx context.Context, userID string) ([]core.RecurringObligation, error) {
	return s.queryObligations(ctx, `
		SELECT `+obligationColumns+` FROM obligations
		WHERE user_id = ? AND active = 1 ORDER BY created_at`, userID)
}

func (s *SQLiteStore) queryObligations(ctx context.Context, query string, args ...any) ([]core.RecurringObligation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query obligations: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringObligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(row rowScanner) (core.RecurringObligation, error) {
	var (
		o             core.RecurringObligation
		active        int
		lastGenerated sql.NullString
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Description, &o.Amount.Cents, &o.Category, &o.DayOfMonth, &active, &lastGenerated)
	if err != nil {
		return core.RecurringObligation{}, fmt.Errorf("scan obligation: %w", err)
	}
	o.Active = active != 0
	if lastGenerated.Valid {
		t, err := time.Parse(dateLayout, lastGenerated.String)
		if err != nil {
			return core.RecurringObligation{}, fmt.Errorf("parse last_generated %q: %w", lastGenerated.String, err)
		}
		o.LastGenerated = core.DateOf(t)
	}
	return o, nil
}

func (s *SQLiteStore) DeactivateObligation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE obligations SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate obligation %s: %w", id, err)
	}
	return requireRow(res, "obligation", id)
}

func (s *SQLiteStore) UpdateObligationMarker(ctx context.Context, obligationID string, generated core.Date) error {
	res, err := s.db.ExecContext(ctx, `UPDATE obligations SET last_generated = ? WHERE id = ?`,
		generated.Format(dateLayout), obligationID)
	if err != nil {
		return fmt.Errorf("update obligation marker %s: %w", obligationID, err)
	}
	return requireRow(res, "obligation", obligationID)
}

const transactionColumns = `id, user_id, description, amount_cents, flow, cost_kind, category, occurred_on, installment_index, installment_count, obligation_id`

func (s *SQLiteStore) InsertTransaction(ctx context.Context, tx core.LedgerTransaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := execInsertTransaction(ctx, s.db, tx); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"flow", string(tx.Flow),
		"date", tx.Date.Format(dateLayout))

	return tx.ID, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execInsertTransaction(ctx context.Context, db execer, tx core.LedgerTransaction) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Description, tx.Amount.Cents, string(tx.Flow), string(tx.Cost),
		tx.Category, tx.Date.Format(dateLayout), tx.InstallmentIndex, tx.InstallmentCount, tx.ObligationID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (core.LedgerTransaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerTransaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return tx, err
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, from, to core.Date) ([]core.LedgerTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? AND occurred_on >= ? AND occurred_on < ?
		ORDER BY occurred_on, created_at`,
		userID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (core.LedgerTransaction, error) {
	var (
		tx         core.LedgerTransaction
		flow, cost string
		occurredOn string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Description, &tx.Amount.Cents, &flow, &cost,
		&tx.Category, &occurredOn, &tx.InstallmentIndex, &tx.InstallmentCount, &tx.ObligationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.LedgerTransaction{}, err
		}
		return core.LedgerTransaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Flow = core.FlowDirection(flow)
	tx.Cost = core.CostKind(cost)
	t, err := time.Parse(dateLayout, occurredOn)
	if err != nil {
		return core.LedgerTransaction{}, fmt.Errorf("parse occurred_on %q: %w", occurredOn, err)
	}
	tx.Date = core.DateOf(t)
	return tx, nil
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

// GenerateFromObligation runs the insert and the marker stamp inside one SQL
// transaction. The marker update is guarded on the stored value so a
// concurrent run of the reconciler cannot double-materialize an obligation.
func (s *SQLiteStore) GenerateFromObligation(ctx context.Context, obligationID string, tx core.LedgerTransaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin generate transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := execInsertTransaction(ctx, dbTx, tx); err != nil {
		return "", err
	}

	monthStart, nextMonth := tx.Date.Period().Bounds()
	res, err := dbTx.ExecContext(ctx, `
		UPDATE obligations SET last_generated = ?
		WHERE id = ?
		  AND (last_generated IS NULL OR last_generated < ? OR last_generated >= ?)`,
		tx.Date.Format(dateLayout), obligationID,
		monthStart.Format(dateLayout), nextMonth.Format(dateLayout))
	if err != nil {
		return "", fmt.Errorf("stamp obligation %s: %w", obligationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("stamp obligation %s: %w", obligationID, err)
	}
	if n == 0 {
		return "", fmt.Errorf("obligation %s: %w", obligationID, ErrMarkerConflict)
	}

	if err := dbTx.Commit(); err != nil {
		return "", fmt.Errorf("commit generate for obligation %s: %w", obligationID, err)
	}
	return tx.ID, nil
}

func (s *SQLiteStore) ListUnsyncedTransactions(ctx context.Context, limit int) ([]core.LedgerTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE synced = 0 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsynced transactions: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkTransactionSynced(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET synced = 1, sync_error = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction synced %s: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

func (s *SQLiteStore) MarkTransactionSyncError(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET sync_error = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error %s: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
