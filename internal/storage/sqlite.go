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

	"pocketwatcher/internal/core"

	_ "modernc.org/sqlite"
)

const sqliteColumns = `id, owner_id, description, category, amount_cents, date, notes, created_at, updated_at`

// SQLiteRepository stores expenses in an embedded SQLite database.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements ExpenseStore.
func (r *SQLiteRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = ""
	e.CreatedAt = time.Time{}
	e, err := Prepare(e, r.now())
	if err != nil {
		return core.Expense{}, err
	}
	rec := toRecord(e)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.Description, rec.Category, rec.AmountCents, rec.Date, rec.Notes,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", rec.ID,
		"owner_id", rec.OwnerID,
		"amount_cents", rec.AmountCents,
		"date", rec.Date)
	return e, nil
}

// Get implements ExpenseStore.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// Update implements ExpenseStore.
func (r *SQLiteRepository) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	existing, err := r.Get(ctx, e.ID)
	if err != nil {
		return core.Expense{}, err
	}
	e.OwnerID = existing.OwnerID
	e.CreatedAt = existing.CreatedAt
	e, err = Prepare(e, r.now())
	if err != nil {
		return core.Expense{}, err
	}

	rec := toRecord(e)
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET description = ?, category = ?, amount_cents = ?, date = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		rec.Description, rec.Category, rec.AmountCents, rec.Date, rec.Notes, formatTime(rec.UpdatedAt), rec.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Expense{}, ErrNotFound
	}
	return e, nil
}

// Delete implements ExpenseStore.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner implements ExpenseStore.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sqliteColumns+`
		FROM expenses
		WHERE owner_id = ?
		ORDER BY date DESC, created_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(s scanner) (core.Expense, error) {
	var (
		rec                  record
		createdAt, updatedAt string
	)
	if err := s.Scan(&rec.ID, &rec.OwnerID, &rec.Description, &rec.Category, &rec.AmountCents,
		&rec.Date, &rec.Notes, &createdAt, &updatedAt); err != nil {
		return core.Expense{}, err
	}
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return core.Expense{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec.expense()
}

// formatTime uses a fixed-width layout so text ordering matches time ordering.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
