package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	ctx := context.Background()

	setup, ok, err := NewTestDatabase(ctx)
	if !ok {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, err)
	t.Cleanup(setup.Close)

	require.NoError(t, setup.TruncateAllTables(ctx))
	return setup
}

func seedSchedules(t *testing.T, setup *TestDatabaseSetup) {
	t.Helper()
	ctx := context.Background()

	stmts := []string{
		`INSERT INTO branches (id, timezone) VALUES ('branch-jkt', 'Asia/Jakarta'), ('branch-none', NULL)`,
		`INSERT INTO work_schedules (id, name) VALUES ('ws-office', 'Office'), ('ws-night', 'Night shift')`,
		`INSERT INTO work_schedules (id, name, deleted_at) VALUES ('ws-deleted', 'Old', NOW())`,
		`INSERT INTO employees (id, branch_id, work_schedule_id) VALUES
			('emp-1', 'branch-jkt', 'ws-office'),
			('emp-2', 'branch-none', 'ws-office'),
			('emp-3', 'branch-jkt', NULL),
			('emp-4', 'branch-jkt', 'ws-deleted')`,
		`INSERT INTO work_schedule_times (work_schedule_id, day_of_week, clock_in_time, clock_out_time) VALUES
			('ws-office', 1, '08:00', '17:00'),
			('ws-office', 5, '08:00', '16:30'),
			('ws-night', 6, '22:00', '06:00')`,
		`INSERT INTO work_schedule_locations (id, work_schedule_id, location_name, latitude, longitude, radius_meters) VALUES
			('loc-hq', 'ws-office', 'Head Office', -6.20880000, 106.84560000, 100),
			('loc-wh', 'ws-office', 'Warehouse', -6.30000000, 106.90000000, 250),
			('loc-night', 'ws-night', 'Night Depot', -6.10000000, 106.80000000, 50)`,
		`INSERT INTO employee_schedule_assignments (id, employee_id, work_schedule_id, start_date, end_date) VALUES
			('asg-1', 'emp-2', 'ws-night', CURRENT_DATE - 1, CURRENT_DATE + 1)`,
	}
	for _, stmt := range stmts {
		_, err := setup.DB.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestWorkScheduleRepository_GetByEmployeeID(t *testing.T) {
	setup := setupTestDatabase(t)
	seedSchedules(t, setup)
	repo := postgresql.NewWorkScheduleRepository(setup.DB)
	ctx := context.Background()

	t.Run("default schedule with branch timezone", func(t *testing.T) {
		ws, err := repo.GetByEmployeeID(ctx, "emp-1")
		require.NoError(t, err)

		assert.Equal(t, "ws-office", ws.ID)
		assert.Equal(t, "emp-1", ws.EmployeeID)
		assert.Equal(t, "Asia/Jakarta", ws.Timezone)
		require.Len(t, ws.Days, 2)
		assert.Equal(t, schedule.DaySchedule{Start: schedule.MustClockTime("08:00"), End: schedule.MustClockTime("17:00"), Enabled: true}, ws.Day(time.Monday))
		assert.Equal(t, schedule.MustClockTime("16:30"), ws.Day(time.Friday).End)
		assert.False(t, ws.Day(time.Sunday).Enabled)
	})

	t.Run("assignment overrides default", func(t *testing.T) {
		ws, err := repo.GetByEmployeeID(ctx, "emp-2")
		require.NoError(t, err)

		assert.Equal(t, "ws-night", ws.ID)
		assert.Equal(t, "UTC", ws.Timezone)
		assert.Equal(t, schedule.MustClockTime("22:00"), ws.Day(time.Saturday).Start)
	})

	for _, id := range []string{"emp-3", "emp-4", "emp-missing"} {
		t.Run("not found "+id, func(t *testing.T) {
			_, err := repo.GetByEmployeeID(ctx, id)
			assert.ErrorIs(t, err, schedule.ErrWorkScheduleNotFound)
		})
	}
}

func TestZoneRepository_ListByEmployeeID(t *testing.T) {
	setup := setupTestDatabase(t)
	seedSchedules(t, setup)
	repo := postgresql.NewZoneRepository(setup.DB)
	ctx := context.Background()

	zones, err := repo.ListByEmployeeID(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "loc-hq", zones[0].ID)
	assert.Equal(t, "Head Office", zones[0].Name)
	assert.InDelta(t, -6.2088, zones[0].Latitude, 1e-9)
	assert.InDelta(t, 106.8456, zones[0].Longitude, 1e-9)
	assert.Equal(t, 100.0, zones[0].RadiusMeters)

	zones, err = repo.ListByEmployeeID(ctx, "emp-2")
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "loc-night", zones[0].ID)

	zones, err = repo.ListByEmployeeID(ctx, "emp-3")
	require.NoError(t, err)
	assert.Empty(t, zones)
}
