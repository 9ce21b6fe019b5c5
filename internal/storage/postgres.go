package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pocketwatcher/internal/core"
)

const pgColumns = `id::text, owner_id, description, category, amount_cents, to_char(date, 'YYYY-MM-DD'), notes, created_at, updated_at`

// PostgresRepository stores expenses in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgresRepository connects to databaseURL and applies migrations.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunPostgresMigrations(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewPostgresStorage(pool), nil
}

// NewPostgresStorage wraps an already migrated pool.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: pool, now: time.Now}
}

func (r *PostgresRepository) Close() error {
	r.db.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Create implements ExpenseStore.
func (r *PostgresRepository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = ""
	e.CreatedAt = time.Time{}
	e, err := Prepare(e, r.now())
	if err != nil {
		return core.Expense{}, err
	}
	rec := toRecord(e)
	_, err = r.db.Exec(ctx, `
		INSERT INTO expenses (id, owner_id, description, category, amount_cents, date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.OwnerID, rec.Description, rec.Category, rec.AmountCents, e.Date.Time, rec.Notes,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	slog.DebugContext(ctx, "Expense saved to Postgres", "id", rec.ID, "owner_id", rec.OwnerID)
	return e, nil
}

// Get implements ExpenseStore.
func (r *PostgresRepository) Get(ctx context.Context, id string) (core.Expense, error) {
	if !validUUID(id) {
		return core.Expense{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+pgColumns+` FROM expenses WHERE id = $1`, id)
	e, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// Update implements ExpenseStore.
func (r *PostgresRepository) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
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
	tag, err := r.db.Exec(ctx, `
		UPDATE expenses
		SET description = $1, category = $2, amount_cents = $3, date = $4, notes = $5, updated_at = $6
		WHERE id = $7`,
		rec.Description, rec.Category, rec.AmountCents, e.Date.Time, rec.Notes, rec.UpdatedAt, rec.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.Expense{}, ErrNotFound
	}
	return e, nil
}

// Delete implements ExpenseStore.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner implements ExpenseStore.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+pgColumns+`
		FROM expenses
		WHERE owner_id = $1
		ORDER BY date DESC, created_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanPostgres(rows)
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

func scanPostgres(s pgx.Row) (core.Expense, error) {
	var rec record
	if err := s.Scan(&rec.ID, &rec.OwnerID, &rec.Description, &rec.Category, &rec.AmountCents,
		&rec.Date, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return core.Expense{}, err
	}
	return rec.expense()
}

// Truncate removes every expense. Intended for test databases.
func (r *PostgresRepository) Truncate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `TRUNCATE expenses`); err != nil {
		return fmt.Errorf("truncate expenses: %w", err)
	}
	return nil
}
