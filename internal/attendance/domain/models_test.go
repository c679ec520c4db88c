package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
)

func TestUniqueKey_Deterministic(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rec := AttendanceRecord{
		CustomerName:   "Jane Doe",
		EventTimestamp: ts,
		MembershipName: "10 Session Pack",
		Instructors:    "Alex",
		Status:         "Attended",
		ClassType:      "Boxing",
	}

	assert.Equal(t, rec.UniqueKey(), rec.UniqueKey())

	// Normalization-insensitive for text fields.
	shouted := rec
	shouted.CustomerName = "JANE   DOE"
	assert.Equal(t, rec.UniqueKey(), shouted.UniqueKey())
}

func TestUniqueKey_ChangesWithIdentityFields(t *testing.T) {
	base := AttendanceRecord{
		CustomerName:   "Jane Doe",
		EventTimestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		MembershipName: "10 Session Pack",
		Instructors:    "Alex",
		Status:         "Attended",
		ClassType:      "Boxing",
	}

	variants := []AttendanceRecord{base, base, base, base, base, base}
	variants[0].EventTimestamp = base.EventTimestamp.Add(time.Hour)
	variants[1].CustomerName = "John Doe"
	variants[2].MembershipName = "20 Session Pack"
	variants[3].Instructors = "Sam"
	variants[4].Status = "Late Cancel"
	variants[5].ClassType = "Pilates"

	for i, v := range variants {
		assert.NotEqual(t, base.UniqueKey(), v.UniqueKey(), "variant %d", i)
	}
}

func TestSessionType(t *testing.T) {
	assert.Equal(t, rulesdomain.SessionTypePrivate, AttendanceRecord{OfferingType: "Private Appointment"}.SessionType())
	assert.Equal(t, rulesdomain.SessionTypeGroup, AttendanceRecord{OfferingType: "Group Class"}.SessionType())
}
