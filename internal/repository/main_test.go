package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
)

var (
	pool        *pgxpool.Pool
	postgresURL = os.Getenv("POSTGRES_URL")
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var container testcontainers.Container
	if postgresURL == "" {
		var err error
		container, postgresURL, err = startPostgresContainer(ctx)
		if err != nil {
			fmt.Printf("> postgres unavailable, repository tests will be skipped: %v\n", err)
		}
	}

	if postgresURL != "" {
		p, err := database.Connect(ctx, postgresURL)
		if err == nil {
			err = database.Migrate(ctx, p)
		}
		if err != nil {
			fmt.Printf("> postgres setup failed: %v\n", err)
		} else {
			pool = p
		}
	}

	code := m.Run()

	if pool != nil {
		pool.Close()
	}
	if container != nil {
		_ = container.Terminate(ctx)
	}
	os.Exit(code)
}

func startPostgresContainer(ctx context.Context) (c testcontainers.Container, connStr string, err error) {
	// testcontainers panics when no Docker host can be found.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start postgres container: %v", r)
		}
	}()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("eventbooking"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}

	connStr, err = container.ConnectionString(ctx, "sslmode=disable", "application_name=test")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, connStr, nil
}

func getPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if pool == nil {
		t.Skip("postgres is not available")
	}
	return pool
}
