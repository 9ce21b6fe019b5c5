package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded SQLite schema to the database at dbPath.
func RunMigrations(dbPath string) error {
	// Separate connection so closing the migrator does not close the store's.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	return up(driver, "sqlite", "migrations/sqlite")
}

// RunPostgresMigrations applies the embedded Postgres schema through pool.
func RunPostgresMigrations(pool *pgxpool.Pool) error {
	// Closing this handle does not close the pool.
	migrateDB := stdlib.OpenDBFromPool(pool)
	defer migrateDB.Close()

	driver, err := migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}
	return up(driver, "pgx5", "migrations/postgres")
}

func up(driver database.Driver, name, dir string) error {
	d, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, name, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
