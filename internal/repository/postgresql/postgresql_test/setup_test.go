//go:build integration

package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *database.DB

// TestMain runs against TEST_DATABASE_URL when set, otherwise against a throwaway
// postgres container.
func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn := os.Getenv("TEST_DATABASE_URL")
	var container *tcpostgres.PostgresContainer
	if dsn == "" {
		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("payroll_test"),
			tcpostgres.WithUsername("test"),
			tcpostgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "start postgres container: %v\n", err)
			os.Exit(1)
		}
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintf(os.Stderr, "container connection string: %v\n", err)
			_ = container.Terminate(ctx)
			os.Exit(1)
		}
	}

	code := run(ctx, m, dsn)

	if container != nil {
		_ = container.Terminate(ctx)
	}
	os.Exit(code)
}

func run(ctx context.Context, m *testing.M, dsn string) int {
	if err := database.Migrate(dsn); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return 1
	}
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 5, MinConns: 1})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		return 1
	}
	defer db.Close()
	testDB = db

	return m.Run()
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), `
		TRUNCATE outbox_events, payroll, attendance, overtime_rules,
		         salary_deduction_rules, work_schedules, employees, departments
		CASCADE
	`)
	require.NoError(t, err)
}

func seedEmployee(t *testing.T, status string, salary string) string {
	t.Helper()
	id := uuid.Must(uuid.NewV7()).String()
	_, err := testDB.Exec(context.Background(),
		`INSERT INTO employees (id, employee_code, full_name, monthly_salary, status) VALUES ($1, $2, $3, $4, $5)`,
		id, "EMP-"+id[len(id)-6:], "Employee "+id[len(id)-6:], decimal.RequireFromString(salary), status,
	)
	require.NoError(t, err)
	return id
}

func seedSchedule(t *testing.T, employeeID string, dayOfWeek int, from string, to *string) string {
	t.Helper()
	id := uuid.Must(uuid.NewV7()).String()
	_, err := testDB.Exec(context.Background(), `
		INSERT INTO work_schedules (id, employee_id, day_of_week, start_time, end_time, effective_from, effective_to)
		VALUES ($1, $2, $3, '09:00', '18:00', $4::date, $5::date)
	`, id, employeeID, dayOfWeek, from, to)
	require.NoError(t, err)
	return id
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T {
	return &v
}
