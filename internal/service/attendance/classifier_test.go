package attendance

import (
	"testing"

	"github.com/cmlabs-hris/geo-attendance/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		in       attendance.PolicyInput
		wantType attendance.PunchType
		approval bool
	}{
		{"in zone in hours weekday", attendance.PolicyInput{InGeofence: true, WithinSchedule: true}, attendance.PunchTypeNormal, false},
		{"outside zone", attendance.PolicyInput{InGeofence: false, WithinSchedule: true}, attendance.PunchTypeRemoteWork, true},
		{"out of hours", attendance.PolicyInput{InGeofence: true, WithinSchedule: false}, attendance.PunchTypeOutOfHours, true},
		{"outside zone and out of hours", attendance.PolicyInput{}, attendance.PunchTypeRemoteWork, true},
		{"weekend in zone in hours", attendance.PolicyInput{InGeofence: true, WithinSchedule: true, IsWeekend: true}, attendance.PunchTypeWeekendWork, true},
		{"weekend outside zone", attendance.PolicyInput{IsWeekend: true, WithinSchedule: true}, attendance.PunchTypeWeekendWork, true},
		{"weekend everything off", attendance.PolicyInput{IsWeekend: true}, attendance.PunchTypeWeekendWork, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.in)
			assert.Equal(t, c.wantType, got.Type)
			assert.Equal(t, c.approval, got.NeedsApproval)
		})
	}
}
