package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketwatcher/internal/config"
	"pocketwatcher/internal/core"
	"pocketwatcher/internal/storage"
	"pocketwatcher/internal/storage/memory"
)

func testFactory() Factory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "postgres",
		SQLiteDBPath: "./data/x.db",
		DatabaseURL:  "postgres://localhost/pw",
	}
	bc, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, Config{Type: PostgresBackend, SQLiteDBPath: "./data/x.db", DatabaseURL: "postgres://localhost/pw"}, bc)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() = %v", err)
		})
	}
}

func TestGetBackendTypes(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		assert.True(t, bt.IsValid(), bt.String())
	}
	assert.False(t, BackendType("sheets").IsValid())
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := testFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Store)
	assert.NoError(t, res.Cleanup())
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "pocketwatcher.db")
	res, err := testFactory().CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	defer res.Cleanup()

	require.IsType(t, &storage.SQLiteRepository{}, res.Store)
	require.NoError(t, res.Store.Ping(context.Background()))

	created, err := res.Store.Create(context.Background(), core.Expense{
		OwnerID:     "u1",
		Description: "Coffee",
		Category:    core.CategoryFoodDining,
		Amount:      3.2,
		Date:        core.NewDate(2025, 3, 1),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := testFactory().CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)
}
