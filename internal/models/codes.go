package models

import "fmt"

// AttendeeCode formats the n-th attendee code: ATT001, ATT002, ...
func AttendeeCode(n int) string {
	return fmt.Sprintf("ATT%03d", n)
}

// EventAttendeeCode prefixes an attendee code with an event id, for rosters
// shared between events: "<event>_ATT007".
func EventAttendeeCode(eventID string, n int) string {
	return eventID + "_" + AttendeeCode(n)
}
