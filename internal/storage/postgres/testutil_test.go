package postgres

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// tables are truncated between tests sharing the package container.
var tables = []string{
	"watch_queue",
	"token_projection",
	"daily_volume",
	"alpha_metric",
	"mover_wallet",
	"mover_transaction",
	"fear_greed_sample",
	"blockchain_volume_sample",
}

var shared struct {
	once sync.Once
	pool *Pool
	err  error
}

// setupTestDB returns a pool on a migrated, empty database.
// The container is started once per package run and reaped by testcontainers.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	shared.once.Do(func() {
		shared.pool, shared.err = startPostgres(context.Background())
	})
	require.NoError(t, shared.err, "start postgres container")

	ctx := context.Background()
	_, err := shared.pool.Exec(ctx, "TRUNCATE "+strings.Join(tables, ", "))
	require.NoError(t, err, "truncate tables")

	return shared.pool, func() {}
}

func startPostgres(ctx context.Context) (*Pool, error) {
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("alpha_move"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}
	pool, err := NewPool(ctx, dsn, 4)
	if err != nil {
		return nil, err
	}

	// The migrations package depends on this one, so the schema is read from disk.
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	schema := os.DirFS(filepath.Join(root, "internal", "storage", "migrations", "postgres"))
	files, err := fs.Glob(schema, "*.sql")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		sql, err := fs.ReadFile(schema, f)
		if err != nil {
			return nil, err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return nil, err
		}
	}
	return pool, nil
}

func projectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

func ptr[T any](v T) *T {
	return &v
}
