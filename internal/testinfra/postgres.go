//go:build integration

// Package testinfra provisions ephemeral Postgres containers for
// repository and service tests that need a real database rather than a
// mock, mirroring the docker-availability check the teacher's own
// container-backed import tests use before touching the network.
package testinfra

import (
	"context"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ryotgo/internal/database"
)

// SkipIfNoDocker skips the calling test if the Docker daemon isn't
// reachable, so the suite degrades gracefully on machines without it.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("skipping: docker not available")
	}
}

// OpenPostgres starts a throwaway Postgres container, runs the
// application's migrations against it via database.Open, and returns the
// connected DB. The container and connection are torn down automatically
// when the test completes.
func OpenPostgres(t *testing.T) *database.DB {
	t.Helper()
	SkipIfNoDocker(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ryot_test"),
		tcpostgres.WithUsername("ryot_test"),
		tcpostgres.WithPassword("ryot_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("resolve connection string: %v", err)
	}

	log := zerolog.New(io.Discard)
	db, err := database.Open(ctx, database.Config{DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 5}, log)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
