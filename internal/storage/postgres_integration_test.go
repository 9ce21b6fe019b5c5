//go:build integration

package storage_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"pocketwatcher/internal/storage"
	"pocketwatcher/internal/storage/storetest"
)

// Run with: POSTGRES_TEST_URL=postgres://... go test -tags=integration ./internal/storage
func TestPostgresRepositoryContract(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping integration test")
	}

	storetest.Run(t, func(t *testing.T) storage.ExpenseStore {
		ctx := context.Background()
		repo, err := storage.NewPostgresRepository(ctx, url)
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		require.NoError(t, repo.Truncate(ctx))
		return repo
	})
}
