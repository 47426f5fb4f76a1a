package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/notification"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *database.KV {
	t.Helper()
	db, err := database.NewBadgerDB(database.InMemoryBadgerConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var base = time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)

func TestEntryRepository(t *testing.T) {
	repo := NewEntryRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.Load(ctx, "emp-1", "2024-01-08")
	assert.ErrorIs(t, err, attendance.ErrEntryNotFound)

	clockIn := base
	clockOut := base.Add(9*time.Hour + 5*time.Minute)
	entry := attendance.Entry{
		ID:            "entry-1",
		EmployeeID:    "emp-1",
		Date:          "2024-01-08",
		ClockIn:       &clockIn,
		ClockOut:      &clockOut,
		TotalHours:    decimal.RequireFromString("9.08"),
		OvertimeHours: decimal.RequireFromString("1.08"),
		LocationIn:    &location.Location{Latitude: -6.2088, Longitude: 106.8456, AccuracyMeters: 12},
		IsInGeofence:  true,
		IsAutomatic:   true,
		PunchType:     attendance.PunchTypeNormal,
		ZoneID:        "hq",
		Status:        attendance.StatusClockedOut,
		CreatedAt:     clockIn,
		UpdatedAt:     clockOut,
	}
	require.NoError(t, repo.Save(ctx, entry))

	got, err := repo.Load(ctx, "emp-1", "2024-01-08")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, attendance.StatusClockedOut, got.Status)
	assert.True(t, got.TotalHours.Equal(entry.TotalHours))
	assert.True(t, got.OvertimeHours.Equal(entry.OvertimeHours))
	require.NotNil(t, got.ClockOut)
	assert.True(t, got.ClockOut.Equal(clockOut))
	require.NotNil(t, got.LocationIn)
	assert.Equal(t, 12.0, got.LocationIn.AccuracyMeters)
	assert.Nil(t, got.LocationOut)

	// Save replaces the entry of the same day.
	entry.NeedsApproval = true
	require.NoError(t, repo.Save(ctx, entry))
	got, err = repo.Load(ctx, "emp-1", "2024-01-08")
	require.NoError(t, err)
	assert.True(t, got.NeedsApproval)
}

func TestEntryRepository_ListByEmployee(t *testing.T) {
	repo := NewEntryRepository(openTestDB(t))
	ctx := context.Background()

	for _, date := range []string{"2024-01-10", "2024-01-05", "2024-01-08", "2024-02-01"} {
		require.NoError(t, repo.Save(ctx, attendance.Entry{ID: date, EmployeeID: "emp-1", Date: date, Status: attendance.StatusWorking}))
	}
	require.NoError(t, repo.Save(ctx, attendance.Entry{ID: "other", EmployeeID: "emp-10", Date: "2024-01-08"}))

	tests := []struct {
		name      string
		start     string
		end       string
		wantDates []string
	}{
		{"whole month", "2024-01-01", "2024-01-31", []string{"2024-01-05", "2024-01-08", "2024-01-10"}},
		{"inclusive bounds", "2024-01-08", "2024-01-10", []string{"2024-01-08", "2024-01-10"}},
		{"single day", "2024-02-01", "2024-02-01", []string{"2024-02-01"}},
		{"empty range", "2024-03-01", "2024-03-31", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.ListByEmployee(ctx, "emp-1", tt.start, tt.end)
			require.NoError(t, err)

			var dates []string
			for _, e := range entries {
				assert.Equal(t, "emp-1", e.EmployeeID)
				dates = append(dates, e.Date)
			}
			assert.Equal(t, tt.wantDates, dates)
		})
	}
}

func TestNotificationRepository_RetentionAndOrder(t *testing.T) {
	repo := NewNotificationRepository(openTestDB(t), 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, notification.PunchNotification{
			ID:         fmt.Sprintf("n-%d", i),
			EmployeeID: "emp-1",
			Type:       attendance.PunchTypeNormal,
			Punch:      attendance.PunchClockIn,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Append(ctx, notification.PunchNotification{ID: "x", EmployeeID: "emp-2", Timestamp: base}))

	list, err := repo.ListByEmployee(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "n-4", list[0].ID)
	assert.Equal(t, "n-3", list[1].ID)
	assert.Equal(t, "n-2", list[2].ID)

	list, err = repo.ListByEmployee(ctx, "emp-1", 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n-4", list[0].ID)

	other, err := repo.ListByEmployee(ctx, "emp-2", 0)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	repo := NewNotificationRepository(openTestDB(t), 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(ctx, notification.PunchNotification{
			ID:         fmt.Sprintf("n-%d", i),
			EmployeeID: "emp-1",
			Timestamp:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	updated, err := repo.MarkAsRead(ctx, "emp-1", []string{"n-0", "n-2", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	// Another employee cannot mark someone else's notifications.
	updated, err = repo.MarkAsRead(ctx, "emp-2", []string{"n-1"})
	require.NoError(t, err)
	assert.Zero(t, updated)

	list, err := repo.ListByEmployee(ctx, "emp-1", 0)
	require.NoError(t, err)
	read := map[string]bool{}
	for _, n := range list {
		read[n.ID] = n.Read
	}
	assert.Equal(t, map[string]bool{"n-0": true, "n-1": false, "n-2": true}, read)
}

func TestActivityRepository(t *testing.T) {
	repo := NewActivityRepository(openTestDB(t))
	ctx := context.Background()

	distance := 42.5
	activities := []attendance.Activity{
		{
			ID: "a-1", EmployeeID: "emp-1", At: base, Description: "Clocked in",
			Location: &location.Location{Latitude: -6.2, Longitude: 106.8},
			Payload: attendance.ClockInPayload{
				EntryID: "entry-1", Type: attendance.PunchTypeNormal, Trigger: attendance.TriggerAutomatic,
				InGeofence: true, WithinSchedule: true, ZoneID: "hq", NearestDistance: &distance,
			},
		},
		{
			ID: "a-2", EmployeeID: "emp-1", At: base.Add(time.Hour), Description: "Location unavailable (timeout)",
			Payload: attendance.LocationErrorPayload{ErrorKind: "timeout", Message: "timed out", Trigger: attendance.TriggerAutomatic},
		},
		{
			ID: "a-3", EmployeeID: "emp-1", At: base.Add(9 * time.Hour), Description: "Clocked out",
			Payload: attendance.ClockOutPayload{
				EntryID: "entry-1", Type: attendance.PunchTypeNormal, Trigger: attendance.TriggerManualClockOut,
				TotalHours: decimal.NewFromInt(9), OvertimeHours: decimal.NewFromInt(1),
			},
		},
		{
			ID: "a-4", EmployeeID: "emp-2", At: base, Description: "Monitoring enabled",
			Payload: attendance.MonitoringPayload{Enabled: true, Hostname: "hris.example.com", ZoneCount: 2},
		},
	}
	for _, a := range activities {
		require.NoError(t, repo.Record(ctx, a))
	}

	list, err := repo.List(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []attendance.ActivityKind{
		attendance.ActivityClockOut, attendance.ActivityLocationError, attendance.ActivityClockIn,
	}, []attendance.ActivityKind{list[0].Kind(), list[1].Kind(), list[2].Kind()})

	out, ok := list[0].Payload.(attendance.ClockOutPayload)
	require.True(t, ok)
	assert.True(t, out.TotalHours.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, attendance.TriggerManualClockOut, out.Trigger)

	in, ok := list[2].Payload.(attendance.ClockInPayload)
	require.True(t, ok)
	require.NotNil(t, in.NearestDistance)
	assert.Equal(t, 42.5, *in.NearestDistance)
	require.NotNil(t, list[2].Location)

	limited, err := repo.List(ctx, "emp-1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	err = repo.Record(ctx, attendance.Activity{ID: "a-5", EmployeeID: "emp-1", At: base})
	assert.ErrorIs(t, err, attendance.ErrUnknownActivity)
}

func TestActivityRepository_PruneBefore(t *testing.T) {
	repo := NewActivityRepository(openTestDB(t))
	ctx := context.Background()

	for i, emp := range []string{"emp-1", "emp-1", "emp-2", "emp-2"} {
		require.NoError(t, repo.Record(ctx, attendance.Activity{
			ID:         fmt.Sprintf("a-%d", i),
			EmployeeID: emp,
			At:         base.AddDate(0, 0, i*10),
			Payload:    attendance.MonitoringPayload{Enabled: true},
		}))
	}

	pruned, err := repo.PruneBefore(ctx, base.AddDate(0, 0, 15))
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	emp1, err := repo.List(ctx, "emp-1", 0)
	require.NoError(t, err)
	assert.Empty(t, emp1)

	emp2, err := repo.List(ctx, "emp-2", 0)
	require.NoError(t, err)
	assert.Len(t, emp2, 2)

	pruned, err = repo.PruneBefore(ctx, base)
	require.NoError(t, err)
	assert.Zero(t, pruned)
}
