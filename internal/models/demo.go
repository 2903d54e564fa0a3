package models

import (
	"time"

	"github.com/google/uuid"
)

// DemoRoster returns the sample roster used to try the system without a
// registration export. Two attendees are already checked in at now.
func DemoRoster(now time.Time) []Attendee {
	rows := []struct {
		name, email, code string
		present           bool
	}{
		{"John Doe", "john@example.com", "ATT001", false},
		{"Jane Smith", "jane@example.com", "ATT002", false},
		{"Bob Johnson", "bob@example.com", "ATT003", true},
		{"Alice Brown", "alice@example.com", "ATT004", false},
		{"Charlie Wilson", "charlie@example.com", "ATT005", true},
		{"Test User", "test@example.com", "1010993727", false},
		{"Test User 2", "test@example2.com", "10109937272", false},
	}

	out := make([]Attendee, 0, len(rows))
	for _, r := range rows {
		a := Attendee{
			ID:           uuid.NewString(),
			Name:         r.name,
			Email:        r.email,
			QRCode:       r.code,
			RegisteredAt: now,
		}
		if r.present {
			a.Presence = CheckedIn(now)
		}
		out = append(out, a)
	}
	return out
}
