package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
)

// PostgresStore is the hosted-database LedgerStore. Schema and semantics
// match the SQLite store; only placeholders differ.
type PostgresStore struct {
	db *sql.DB
}

var _ LedgerStore = (*PostgresStore)(nil)

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runPostgresMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func runPostgresMigrations(db *sql.DB) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) InsertObligation(ctx context.Context, o core.RecurringObligation) (string, error) {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.UserID, o.Description, o.Amount.Cents, o.Category, o.DayOfMonth, boolToInt(o.Active), lastGenerated)
	if err != nil {
		return "", fmt.Errorf("insert obligation: %w", err)
	}
	return o.ID, nil
}

func (s *PostgresStore) ListObligations(ctx context.Context, userID string) ([]core.RecurringObligation, error) {
	return s.queryObligations(ctx, `
		SELECT `+obligationColumns+` FROM obligations
		WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *PostgresStore) ListActiveObligations(ctx context.Context, userID string) ([]core.RecurringObligation, error) {
	return s.queryObligations(ctx, `
		SELECT `+obligationColumns+` FROM obligations
		WHERE user_id = $1 AND active = 1 ORDER BY created_at`, userID)
}

func (s *PostgresStore) queryObligations(ctx context.Context, query string, args ...any) ([]core.RecurringObligation, error) {
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

func (s *PostgresStore) DeactivateObligation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE obligations SET active = 0 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate obligation %s: %w", id, err)
	}
	return requireRow(res, "obligation", id)
}

func (s *PostgresStore) UpdateObligationMarker(ctx context.Context, obligationID string, generated core.Date) error {
	res, err := s.db.ExecContext(ctx, `UPDATE obligations SET last_generated = $1 WHERE id = $2`,
		generated.Format(dateLayout), obligationID)
	if err != nil {
		return fmt.Errorf("update obligation marker %s: %w", obligationID, err)
	}
	return requireRow(res, "obligation", obligationID)
}

func (s *PostgresStore) InsertTransaction(ctx context.Context, tx core.LedgerTransaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := pgInsertTransaction(ctx, s.db, tx); err != nil {
		return "", err
	}
	return tx.ID, nil
}

func pgInsertTransaction(ctx context.Context, db execer, tx core.LedgerTransaction) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tx.ID, tx.UserID, tx.Description, tx.Amount.Cents, string(tx.Flow), string(tx.Cost),
		tx.Category, tx.Date.Format(dateLayout), tx.InstallmentIndex, tx.InstallmentCount, tx.ObligationID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id string) (core.LedgerTransaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerTransaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return tx, err
}

func (s *PostgresStore) ListTransactions(ctx context.Context, userID string, from, to core.Date) ([]core.LedgerTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 AND occurred_on >= $2 AND occurred_on < $3
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

func (s *PostgresStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

func (s *PostgresStore) GenerateFromObligation(ctx context.Context, obligationID string, tx core.LedgerTransaction) (string, error) {
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

	if err := pgInsertTransaction(ctx, dbTx, tx); err != nil {
		return "", err
	}

	monthStart, nextMonth := tx.Date.Period().Bounds()
	res, err := dbTx.ExecContext(ctx, `
		UPDATE obligations SET last_generated = $1
		WHERE id = $2
		  AND (last_generated IS NULL OR last_generated < $3 OR last_generated >= $4)`,
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

func (s *PostgresStore) ListUnsyncedTransactions(ctx context.Context, limit int) ([]core.LedgerTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE synced = 0 ORDER BY created_at LIMIT $1`, limit)
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

func (s *PostgresStore) MarkTransactionSynced(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET synced = 1, sync_error = 0 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark transaction synced %s: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

func (s *PostgresStore) MarkTransactionSyncError(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET sync_error = 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error %s: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}
