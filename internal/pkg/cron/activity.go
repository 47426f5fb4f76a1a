package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/metrics"
)

// DefaultActivityRetention is how long activity records are kept.
const DefaultActivityRetention = 90 * 24 * time.Hour

type ActivityJobs struct {
	activityRepo attendance.ActivityRepository
	retention    time.Duration
	now          func() time.Time
}

func NewActivityJobs(activityRepo attendance.ActivityRepository, retention time.Duration) *ActivityJobs {
	if retention <= 0 {
		retention = DefaultActivityRetention
	}
	return &ActivityJobs{
		activityRepo: activityRepo,
		retention:    retention,
		now:          time.Now,
	}
}

func (j *ActivityJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("prune_activity_log", 1*time.Hour, j.PruneActivityLog)
}

// PruneActivityLog deletes activity records older than the retention window.
// Attendance entries are never touched.
func (j *ActivityJobs) PruneActivityLog(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	pruned, err := j.activityRepo.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune activity log: %w", err)
	}

	if pruned > 0 {
		metrics.ActivityPruned.Add(float64(pruned))
		slog.Info("Cron: Pruned activity log", "count", pruned, "cutoff", cutoff)
	}
	return nil
}
