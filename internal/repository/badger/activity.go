package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/database"
	"github.com/dgraph-io/badger/v4"
)

// activityRecord stores the payload next to its kind so it can be decoded back
// into the concrete payload type.
type activityRecord struct {
	ID          string             `json:"id"`
	EmployeeID  string             `json:"employee_id"`
	At          time.Time          `json:"at"`
	Description string             `json:"description"`
	Location    *location.Location `json:"location,omitempty"`
	Kind        string             `json:"kind"`
	Payload     json.RawMessage    `json:"payload"`
}

func newActivityRecord(a attendance.Activity) (activityRecord, error) {
	if a.Payload == nil {
		return activityRecord{}, fmt.Errorf("%w: missing payload", attendance.ErrUnknownActivity)
	}
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return activityRecord{}, err
	}
	return activityRecord{
		ID:          a.ID,
		EmployeeID:  a.EmployeeID,
		At:          a.At,
		Description: a.Description,
		Location:    a.Location,
		Kind:        string(a.Kind()),
		Payload:     payload,
	}, nil
}

func (r activityRecord) toActivity() (attendance.Activity, error) {
	payload, err := decodePayload(attendance.ActivityKind(r.Kind), r.Payload)
	if err != nil {
		return attendance.Activity{}, err
	}
	return attendance.Activity{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		At:          r.At,
		Description: r.Description,
		Location:    r.Location,
		Payload:     payload,
	}, nil
}

func decodePayload(kind attendance.ActivityKind, raw json.RawMessage) (attendance.Payload, error) {
	switch kind {
	case attendance.ActivityClockIn:
		var p attendance.ClockInPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case attendance.ActivityClockOut:
		var p attendance.ClockOutPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case attendance.ActivityLocationError:
		var p attendance.LocationErrorPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case attendance.ActivityMonitoring:
		var p attendance.MonitoringPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	default:
		return nil, fmt.Errorf("%w: %q", attendance.ErrUnknownActivity, kind)
	}
}

type activityRepositoryImpl struct {
	db *database.KV
}

func NewActivityRepository(db *database.KV) attendance.ActivityRepository {
	return &activityRepositoryImpl{db: db}
}

// Record implements attendance.ActivityRepository.
func (r *activityRepositoryImpl) Record(ctx context.Context, activity attendance.Activity) error {
	rec, err := newActivityRecord(activity)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}

	err = r.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.Set(activityKey(activity.EmployeeID, activity.At, activity.ID), data)
	})
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// List implements attendance.ActivityRepository.
func (r *activityRepositoryImpl) List(ctx context.Context, employeeID string, limit int) ([]attendance.Activity, error) {
	var activities []attendance.Activity
	prefix := activityEmployeePrefix(employeeID)

	err := r.db.View(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, Reverse: true, PrefetchValues: true, PrefetchSize: 32})
		defer it.Close()

		for it.Seek(seekAfter(prefix)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(activities) == limit {
				break
			}
			var rec activityRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode activity %s: %w", it.Item().Key(), err)
			}
			activity, err := rec.toActivity()
			if err != nil {
				return err
			}
			activities = append(activities, activity)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// PruneBefore implements attendance.ActivityRepository.
func (r *activityRepositoryImpl) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var stale [][]byte
	prefix := []byte(activityPrefix)

	err := r.db.View(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			at, err := timestampOf(it.Item().Key())
			if err != nil {
				return err
			}
			if at.Before(cutoff) {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan activities: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("prune activities: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("prune activities: %w", err)
	}
	return len(stale), nil
}
