package badger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key layout. Timestamps are zero padded so lexical order is chronological.
//
//	entry:{employee_id}:{date}
//	notif:{employee_id}:{unix_nano}:{id}
//	activity:{employee_id}:{unix_nano}:{id}
const (
	entryPrefix        = "entry:"
	notificationPrefix = "notif:"
	activityPrefix     = "activity:"
)

func entryKey(employeeID, date string) []byte {
	return []byte(entryPrefix + employeeID + ":" + date)
}

func entryEmployeePrefix(employeeID string) []byte {
	return []byte(entryPrefix + employeeID + ":")
}

func notificationKey(employeeID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", notificationPrefix, employeeID, at.UnixNano(), id))
}

func notificationEmployeePrefix(employeeID string) []byte {
	return []byte(notificationPrefix + employeeID + ":")
}

func activityKey(employeeID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", activityPrefix, employeeID, at.UnixNano(), id))
}

func activityEmployeePrefix(employeeID string) []byte {
	return []byte(activityPrefix + employeeID + ":")
}

// timestampOf extracts the unix nano segment of a notif or activity key.
func timestampOf(key []byte) (time.Time, error) {
	parts := strings.Split(string(key), ":")
	if len(parts) < 4 {
		return time.Time{}, fmt.Errorf("malformed key %q", key)
	}
	nanos, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed key %q: %w", key, err)
	}
	return time.Unix(0, nanos).UTC(), nil
}

// seekAfter returns a key sorting after every key with prefix, for reverse iteration.
func seekAfter(prefix []byte) []byte {
	return append(append([]byte{}, prefix...), 0xFF)
}
