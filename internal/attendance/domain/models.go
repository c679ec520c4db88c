// Package domain contains the attendance input records.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/studioledger/studioledger/internal/normalize"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
)

// AttendanceRecord is one class booking, supplied fresh each run by the
// external store. Immutable input.
type AttendanceRecord struct {
	CustomerName   string
	EventTimestamp time.Time
	MembershipName string
	OfferingType   string
	Instructors    string
	Status         string
	ClassType      string
}

// SessionType classifies the record from its offering type.
func (r AttendanceRecord) SessionType() rulesdomain.SessionType {
	return rulesdomain.ClassifySessionType(r.OfferingType)
}

// UniqueKey derives the record's identity for idempotent re-runs. Any change
// to (timestamp, customer, membership, instructors, status, classType)
// changes the key.
func (r AttendanceRecord) UniqueKey() string {
	payload := fmt.Sprintf(
		"%s|%s|%s|%s|%s|%s",
		r.EventTimestamp.UTC().Format(time.RFC3339),
		normalize.Normalize(r.CustomerName),
		normalize.Normalize(r.MembershipName),
		normalize.Normalize(r.Instructors),
		normalize.Normalize(r.Status),
		normalize.Normalize(r.ClassType),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
