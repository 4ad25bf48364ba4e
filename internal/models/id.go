package models

import (
	"strings"

	"github.com/google/uuid"
)

// Entity IDs are a short type prefix plus the first uuid group, uppercased.
// They stay copy-paste friendly for support staff while remaining unique
// enough for the fleet sizes involved.

func newID(prefix string) string {
	return prefix + strings.ToUpper(uuid.New().String()[:8])
}

func NewPassengerID() string  { return newID("S") }
func NewTripID() string       { return newID("T") }
func NewBookingID() string    { return newID("B") }
func NewAssignmentID() string { return newID("TA") }
func NewReportID() string     { return newID("MR") }
