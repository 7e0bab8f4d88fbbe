//go:build integration

package containers

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/attendance-api/internal/config"
	"github.com/attendance-api/internal/database"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema migrated.
type PostgresContainer struct {
	Container testcontainers.Container
	Config    config.DatabaseConfig
	DB        *database.DB
}

// MigrationsPath returns the absolute path of the migrations directory
func MigrationsPath(t testing.TB) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine helper file path")
	}
	root := filepath.Dir(filepath.Dir(filepath.Dir(filepath.Dir(currentFile))))
	return filepath.Join(root, "migrations")
}

// NewPostgresContainer starts PostgreSQL, connects and runs all migrations.
// The container is terminated when the test finishes.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("attendance_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get postgres port: %v", err)
	}

	cfg := config.DatabaseConfig{
		Host:           host,
		Port:           port.Port(),
		User:           "postgres",
		Password:       "postgres",
		Name:           "attendance_test",
		SSLMode:        "disable",
		MaxOpenConns:   50,
		MaxIdleConns:   10,
		MaxLifetime:    time.Minute,
		MigrationsPath: MigrationsPath(t),
	}

	db, err := database.New(&cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		Config:    cfg,
		DB:        db,
	}
}

// Truncate removes all rows written by tests, keeping the seeded directory
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `TRUNCATE attendance, events, sessions, users CASCADE`)
	return err
}
