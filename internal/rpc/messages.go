package rpc

import (
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}

// Attendee is the wire form of models.Attendee. CheckedInAt is nil while
// the attendee is absent.
type Attendee struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	QRCode       string     `json:"qr_code"`
	RegisteredAt time.Time  `json:"registered_at"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
}

func FromAttendee(a models.Attendee) Attendee {
	return Attendee{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		QRCode:       a.QRCode,
		RegisteredAt: a.RegisteredAt,
		CheckedInAt:  a.Presence.Nullable(),
	}
}

func FromAttendees(list []models.Attendee) []Attendee {
	out := make([]Attendee, 0, len(list))
	for _, a := range list {
		out = append(out, FromAttendee(a))
	}
	return out
}

func (a Attendee) Model() models.Attendee {
	return models.Attendee{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		QRCode:       a.QRCode,
		RegisteredAt: a.RegisteredAt,
		Presence:     models.PresenceFromNullable(a.CheckedInAt),
	}
}

type ListAttendeesRequest struct {
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
}

type ListAttendeesResponse struct {
	Attendees []Attendee `json:"attendees"`
}

type RegisterAttendeeRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	QRCode string `json:"qr_code,omitempty"`
}

type RegisterAttendeeResponse struct {
	Attendee Attendee `json:"attendee"`
}

type ValidateRequest struct {
	Code string `json:"code"`
}

// CheckInRequest checks a code in at At, or at server time when At is nil.
type CheckInRequest struct {
	Code      string     `json:"code"`
	StationID string     `json:"station_id"`
	At        *time.Time `json:"at,omitempty"`
}

// ValidationResult is the wire form of checkin.Result.
type ValidationResult struct {
	Valid      bool      `json:"valid"`
	Error      string    `json:"error,omitempty"`
	Message    string    `json:"message,omitempty"`
	AttendeeID string    `json:"attendee_id,omitempty"`
	Attendee   *Attendee `json:"attendee,omitempty"`
}

func FromResult(r checkin.Result) *ValidationResult {
	out := &ValidationResult{
		Valid:      r.Valid,
		Error:      string(r.Code),
		Message:    r.Message,
		AttendeeID: r.AttendeeID,
	}
	if r.Attendee != nil {
		a := FromAttendee(*r.Attendee)
		out.Attendee = &a
	}
	return out
}

func (v *ValidationResult) Result() checkin.Result {
	r := checkin.Result{
		Valid:      v.Valid,
		Code:       checkin.ErrorCode(v.Error),
		Message:    v.Message,
		AttendeeID: v.AttendeeID,
	}
	if v.Attendee != nil {
		a := v.Attendee.Model()
		r.Attendee = &a
	}
	return r
}

type StatsRequest struct{}

type StatsResponse struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Percent int `json:"percent"`
}

func FromStats(s models.Stats) *StatsResponse {
	return &StatsResponse{Total: s.Total, Present: s.Present, Absent: s.Absent(), Percent: s.Percent()}
}

func (s *StatsResponse) Model() models.Stats {
	return models.Stats{Total: s.Total, Present: s.Present}
}
