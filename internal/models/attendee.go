// Package models defines the attendance domain types shared by the server
// and the scanner station.
package models

import (
	"strings"
	"time"
)

// Presence is either "not checked in" or "checked in at a given time".
// The zero value is NotCheckedIn.
type Presence struct {
	at *time.Time
}

// NotCheckedIn returns the absent presence state.
func NotCheckedIn() Presence {
	return Presence{}
}

// CheckedIn returns the present state recorded at at.
func CheckedIn(at time.Time) Presence {
	t := at
	return Presence{at: &t}
}

// PresenceFromNullable builds a Presence from an optional timestamp, as read
// from a nullable database column.
func PresenceFromNullable(at *time.Time) Presence {
	if at == nil {
		return NotCheckedIn()
	}
	return CheckedIn(*at)
}

// IsPresent reports whether the attendee has checked in.
func (p Presence) IsPresent() bool {
	return p.at != nil
}

// CheckInTime returns the check-in time and true, or the zero time and false.
func (p Presence) CheckInTime() (time.Time, bool) {
	if p.at == nil {
		return time.Time{}, false
	}
	return *p.at, true
}

// Nullable returns the check-in time as a pointer, nil when absent.
func (p Presence) Nullable() *time.Time {
	if p.at == nil {
		return nil
	}
	t := *p.at
	return &t
}

// Attendee is a registered person identified by a unique QR code.
type Attendee struct {
	ID           string
	Name         string
	Email        string
	QRCode       string
	RegisteredAt time.Time
	Presence     Presence
}

func (a Attendee) IsPresent() bool {
	return a.Presence.IsPresent()
}

// ScanRecord is one entry of the recently scanned log.
type ScanRecord struct {
	Attendee    Attendee
	StationID   string
	CheckedInAt time.Time
}

// StatusFilter selects attendees by presence.
type StatusFilter string

const (
	StatusAll     StatusFilter = "all"
	StatusPresent StatusFilter = "present"
	StatusAbsent  StatusFilter = "absent"
)

// ParseStatusFilter maps user input to a filter; unknown values mean all.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPresent:
		return StatusPresent
	case StatusAbsent:
		return StatusAbsent
	default:
		return StatusAll
	}
}

// ListFilter narrows an attendee listing. Search matches name, email and
// QR code case-insensitively.
type ListFilter struct {
	Status StatusFilter
	Search string
}

// Matches reports whether a passes the filter.
func (f ListFilter) Matches(a Attendee) bool {
	switch f.Status {
	case StatusPresent:
		if !a.IsPresent() {
			return false
		}
	case StatusAbsent:
		if a.IsPresent() {
			return false
		}
	}

	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Name), q) ||
		strings.Contains(strings.ToLower(a.Email), q) ||
		strings.Contains(strings.ToLower(a.QRCode), q)
}

// Stats summarises attendance.
type Stats struct {
	Total   int
	Present int
}

func (s Stats) Absent() int {
	return s.Total - s.Present
}

// Percent returns the rounded share of present attendees, 0 for an empty roster.
func (s Stats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Present*100 + s.Total/2) / s.Total
}
