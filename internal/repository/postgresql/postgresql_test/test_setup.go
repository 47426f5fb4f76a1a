package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cmlabs-hris/geo-attendance/internal/pkg/database"
)

const testSchema = "geo_attendance_test"

// schemaDDL is the subset of the HR schema this service reads.
var schemaDDL = []string{
	`CREATE SCHEMA IF NOT EXISTS ` + testSchema,
	`CREATE TABLE IF NOT EXISTS branches (
		id TEXT PRIMARY KEY,
		timezone TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS work_schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		branch_id TEXT REFERENCES branches(id),
		work_schedule_id TEXT REFERENCES work_schedules(id),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS work_schedule_times (
		id SERIAL PRIMARY KEY,
		work_schedule_id TEXT NOT NULL REFERENCES work_schedules(id),
		day_of_week INT NOT NULL,
		clock_in_time TIME NOT NULL,
		clock_out_time TIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS work_schedule_locations (
		id TEXT PRIMARY KEY,
		work_schedule_id TEXT NOT NULL REFERENCES work_schedules(id),
		location_name TEXT NOT NULL,
		latitude NUMERIC(10, 8) NOT NULL,
		longitude NUMERIC(11, 8) NOT NULL,
		radius_meters INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS employee_schedule_assignments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		work_schedule_id TEXT NOT NULL REFERENCES work_schedules(id),
		start_date DATE NOT NULL,
		end_date DATE NOT NULL
	)`,
}

// TestDatabaseSetup owns a connection scoped to the test schema
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL. ok is false when it is unset.
func NewTestDatabase(ctx context.Context) (setup *TestDatabaseSetup, ok bool, err error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, false, nil
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := database.NewPostgreSQLDB(ctx, dsn+sep+"search_path="+testSchema, 4)
	if err != nil {
		return nil, true, fmt.Errorf("failed to connect to test database: %w", err)
	}

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(ctx, stmt); err != nil {
			db.Close()
			return nil, true, fmt.Errorf("failed to prepare schema: %w", err)
		}
	}

	return &TestDatabaseSetup{DB: db}, true, nil
}

// TruncateAllTables removes all rows from the test schema
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	_, err := t.DB.Exec(ctx, `TRUNCATE TABLE employee_schedule_assignments, work_schedule_locations,
		work_schedule_times, employees, work_schedules, branches CASCADE`)
	return err
}

func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
