package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/location"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/database"
	"github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
)

type entryRecord struct {
	ID            string             `json:"id"`
	EmployeeID    string             `json:"employee_id"`
	Date          string             `json:"date"`
	ClockIn       *time.Time         `json:"clock_in,omitempty"`
	ClockOut      *time.Time         `json:"clock_out,omitempty"`
	TotalHours    decimal.Decimal    `json:"total_hours"`
	OvertimeHours decimal.Decimal    `json:"overtime_hours"`
	LocationIn    *location.Location `json:"location_in,omitempty"`
	LocationOut   *location.Location `json:"location_out,omitempty"`
	LastLocation  *location.Location `json:"last_location,omitempty"`
	LastSeenAt    *time.Time         `json:"last_seen_at,omitempty"`
	IsInGeofence  bool               `json:"is_in_geofence"`
	IsAutomatic   bool               `json:"is_automatic"`
	IsWeekend     bool               `json:"is_weekend"`
	NeedsApproval bool               `json:"needs_approval"`
	PunchType     string             `json:"punch_type"`
	ZoneID        string             `json:"zone_id,omitempty"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func newEntryRecord(e attendance.Entry) entryRecord {
	return entryRecord{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		Date:          e.Date,
		ClockIn:       e.ClockIn,
		ClockOut:      e.ClockOut,
		TotalHours:    e.TotalHours,
		OvertimeHours: e.OvertimeHours,
		LocationIn:    e.LocationIn,
		LocationOut:   e.LocationOut,
		LastLocation:  e.LastLocation,
		LastSeenAt:    e.LastSeenAt,
		IsInGeofence:  e.IsInGeofence,
		IsAutomatic:   e.IsAutomatic,
		IsWeekend:     e.IsWeekend,
		NeedsApproval: e.NeedsApproval,
		PunchType:     string(e.PunchType),
		ZoneID:        e.ZoneID,
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (r entryRecord) toEntry() attendance.Entry {
	return attendance.Entry{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		Date:          r.Date,
		ClockIn:       r.ClockIn,
		ClockOut:      r.ClockOut,
		TotalHours:    r.TotalHours,
		OvertimeHours: r.OvertimeHours,
		LocationIn:    r.LocationIn,
		LocationOut:   r.LocationOut,
		LastLocation:  r.LastLocation,
		LastSeenAt:    r.LastSeenAt,
		IsInGeofence:  r.IsInGeofence,
		IsAutomatic:   r.IsAutomatic,
		IsWeekend:     r.IsWeekend,
		NeedsApproval: r.NeedsApproval,
		PunchType:     attendance.PunchType(r.PunchType),
		ZoneID:        r.ZoneID,
		Status:        attendance.Status(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type entryRepositoryImpl struct {
	db *database.KV
}

func NewEntryRepository(db *database.KV) attendance.EntryRepository {
	return &entryRepositoryImpl{db: db}
}

// Save implements attendance.EntryRepository.
func (r *entryRepositoryImpl) Save(ctx context.Context, entry attendance.Entry) error {
	data, err := json.Marshal(newEntryRecord(entry))
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	err = r.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.EmployeeID, entry.Date), data)
	})
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

// Load implements attendance.EntryRepository.
func (r *entryRepositoryImpl) Load(ctx context.Context, employeeID string, date string) (attendance.Entry, error) {
	var rec entryRecord
	err := r.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(employeeID, date))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return attendance.Entry{}, attendance.ErrEntryNotFound
	}
	if err != nil {
		return attendance.Entry{}, fmt.Errorf("load entry: %w", err)
	}
	return rec.toEntry(), nil
}

// ListByEmployee implements attendance.EntryRepository.
func (r *entryRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, startDate, endDate string) ([]attendance.Entry, error) {
	var entries []attendance.Entry
	prefix := entryEmployeePrefix(employeeID)
	end := string(entryKey(employeeID, endDate))

	err := r.db.View(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 32})
		defer it.Close()

		for it.Seek(entryKey(employeeID, startDate)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if string(item.Key()) > end {
				break
			}
			var rec entryRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode entry %s: %w", item.Key(), err)
			}
			entries = append(entries, rec.toEntry())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}
