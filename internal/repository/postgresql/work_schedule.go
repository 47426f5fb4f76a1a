package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// activeScheduleCTE resolves the schedule assigned to employee $1 today. A dated
// assignment overrides the employee's default schedule.
const activeScheduleCTE = `
WITH target_schedule AS (
    SELECT COALESCE(
        (
            SELECT work_schedule_id
            FROM employee_schedule_assignments
            WHERE employee_id = $1
              AND CURRENT_DATE BETWEEN start_date AND end_date
            ORDER BY start_date DESC
            LIMIT 1
        ),
        (
            SELECT work_schedule_id
            FROM employees
            WHERE id = $1 AND deleted_at IS NULL
        )
    ) AS id
)`

type workScheduleRepositoryImpl struct {
	db *database.DB
}

func NewWorkScheduleRepository(db *database.DB) schedule.WorkScheduleRepository {
	return &workScheduleRepositoryImpl{db: db}
}

// GetByEmployeeID implements schedule.WorkScheduleRepository.
func (w *workScheduleRepositoryImpl) GetByEmployeeID(ctx context.Context, employeeID string) (schedule.WorkSchedule, error) {
	query := activeScheduleCTE + `
		SELECT ws.id, ws.name, COALESCE(b.timezone, 'UTC')
		FROM target_schedule ts
		JOIN work_schedules ws ON ws.id = ts.id AND ws.deleted_at IS NULL
		JOIN employees e ON e.id = $1
		LEFT JOIN branches b ON b.id = e.branch_id
	`

	ws := schedule.WorkSchedule{EmployeeID: employeeID}

	// Header and times are read in one transaction so an admin edit in between
	// cannot produce a mixed schedule.
	err := WithTransaction(ctx, w.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query, employeeID).Scan(&ws.ID, &ws.Name, &ws.Timezone)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return schedule.ErrWorkScheduleNotFound
			}
			return fmt.Errorf("failed to get work schedule: %w", err)
		}

		days, err := w.days(ctx, tx, ws.ID)
		if err != nil {
			return err
		}
		ws.Days = days
		return nil
	})
	if err != nil {
		return schedule.WorkSchedule{}, err
	}

	return ws, nil
}

// days loads the weekly times of a schedule. Weekdays without a row stay disabled.
func (w *workScheduleRepositoryImpl) days(ctx context.Context, q database.Querier, workScheduleID string) (map[time.Weekday]schedule.DaySchedule, error) {
	query := `
		SELECT day_of_week,
			to_char(clock_in_time, 'HH24:MI'),
			to_char(clock_out_time, 'HH24:MI')
		FROM work_schedule_times
		WHERE work_schedule_id = $1
		ORDER BY day_of_week
	`

	rows, err := q.Query(ctx, query, workScheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work schedule times: %w", err)
	}
	defer rows.Close()

	days := make(map[time.Weekday]schedule.DaySchedule)
	for rows.Next() {
		var (
			dayOfWeek         int
			clockIn, clockOut string
		)
		if err := rows.Scan(&dayOfWeek, &clockIn, &clockOut); err != nil {
			return nil, fmt.Errorf("failed to scan work schedule time: %w", err)
		}

		weekday, err := schedule.ISODayOfWeek(dayOfWeek)
		if err != nil {
			return nil, err
		}
		start, err := schedule.ParseClockTime(clockIn)
		if err != nil {
			return nil, err
		}
		end, err := schedule.ParseClockTime(clockOut)
		if err != nil {
			return nil, err
		}
		days[weekday] = schedule.DaySchedule{Start: start, End: end, Enabled: true}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate work schedule times: %w", err)
	}

	return days, nil
}
