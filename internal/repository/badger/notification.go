package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/geo-attendance/internal/domain/notification"
	"github.com/cmlabs-hris/geo-attendance/internal/pkg/database"
	"github.com/dgraph-io/badger/v4"
)

type notificationRecord struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	EntryID    string    `json:"entry_id"`
	Type       string    `json:"type"`
	Punch      string    `json:"punch"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
}

func newNotificationRecord(n notification.PunchNotification) notificationRecord {
	return notificationRecord{
		ID:         n.ID,
		EmployeeID: n.EmployeeID,
		EntryID:    n.EntryID,
		Type:       string(n.Type),
		Punch:      string(n.Punch),
		Timestamp:  n.Timestamp,
		Message:    n.Message,
		Read:       n.Read,
	}
}

func (r notificationRecord) toNotification() notification.PunchNotification {
	return notification.PunchNotification{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		EntryID:    r.EntryID,
		Type:       attendance.PunchType(r.Type),
		Punch:      attendance.Punch(r.Punch),
		Timestamp:  r.Timestamp,
		Message:    r.Message,
		Read:       r.Read,
	}
}

type notificationRepositoryImpl struct {
	db        *database.KV
	retention int
}

// NewNotificationRepository keeps at most retention notifications per employee.
func NewNotificationRepository(db *database.KV, retention int) notification.Repository {
	if retention <= 0 {
		retention = notification.DefaultRetention
	}
	return &notificationRepositoryImpl{db: db, retention: retention}
}

// Append implements notification.Repository.
func (r *notificationRepositoryImpl) Append(ctx context.Context, n notification.PunchNotification) error {
	data, err := json.Marshal(newNotificationRecord(n))
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = r.db.Update(ctx, func(txn *badger.Txn) error {
		if err := txn.Set(notificationKey(n.EmployeeID, n.Timestamp, n.ID), data); err != nil {
			return err
		}
		return r.evict(txn, n.EmployeeID)
	})
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

// evict deletes the oldest notifications beyond the retention cap.
func (r *notificationRepositoryImpl) evict(txn *badger.Txn, employeeID string) error {
	prefix := notificationEmployeePrefix(employeeID)
	it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, Reverse: true})
	defer it.Close()

	var stale [][]byte
	seen := 0
	for it.Seek(seekAfter(prefix)); it.ValidForPrefix(prefix); it.Next() {
		seen++
		if seen > r.retention {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
	}
	for _, key := range stale {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// ListByEmployee implements notification.Repository.
func (r *notificationRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]notification.PunchNotification, error) {
	var list []notification.PunchNotification
	prefix := notificationEmployeePrefix(employeeID)

	err := r.db.View(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, Reverse: true, PrefetchValues: true, PrefetchSize: 32})
		defer it.Close()

		for it.Seek(seekAfter(prefix)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(list) == limit {
				break
			}
			var rec notificationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode notification %s: %w", it.Item().Key(), err)
			}
			list = append(list, rec.toNotification())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// MarkAsRead implements notification.Repository.
func (r *notificationRepositoryImpl) MarkAsRead(ctx context.Context, employeeID string, ids []string) (int, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var updated int
	prefix := notificationEmployeePrefix(employeeID)
	err := r.db.Update(ctx, func(txn *badger.Txn) error {
		updated = 0

		type change struct {
			key  []byte
			data []byte
		}
		var changes []change

		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var rec notificationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				it.Close()
				return fmt.Errorf("decode notification %s: %w", it.Item().Key(), err)
			}
			if _, ok := wanted[rec.ID]; !ok {
				continue
			}
			updated++
			if rec.Read {
				continue
			}
			rec.Read = true
			data, err := json.Marshal(rec)
			if err != nil {
				it.Close()
				return err
			}
			changes = append(changes, change{key: it.Item().KeyCopy(nil), data: data})
		}
		it.Close()

		for _, c := range changes {
			if err := txn.Set(c.key, c.data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark notifications as read: %w", err)
	}
	return updated, nil
}
