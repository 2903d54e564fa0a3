package checkin

import (
	"fmt"

	"github.com/dmitrijs2005/rollcall/internal/models"
)

// ErrorCode classifies a rejected code.
type ErrorCode string

const (
	CodeEmpty            ErrorCode = "EMPTY_CODE"
	CodeNotFound         ErrorCode = "ATTENDEE_NOT_FOUND"
	CodeAlreadyCheckedIn ErrorCode = "ALREADY_CHECKED_IN"
)

const (
	MsgEmptyCode = "QR code is empty"
	MsgNotFound  = "Attendee not found in registration list"

	// Fallbacks used when a rejection carries no message of its own.
	MsgInvalidCode   = "Invalid QR code"
	MsgCheckInFailed = "Failed to check in"
)

// AlreadyCheckedInMessage names the attendee that was already admitted.
func AlreadyCheckedInMessage(name string) string {
	return fmt.Sprintf("%s is already checked in", name)
}

// WelcomeMessage is shown after a successful check-in.
func WelcomeMessage(name string) string {
	return fmt.Sprintf("Welcome %s!", name)
}

// Result is the outcome of validating a code.
//
// AttendeeID holds the normalized code for valid results. Attendee is set for
// valid results and for CodeAlreadyCheckedIn, so callers can still show who.
type Result struct {
	Valid      bool
	Code       ErrorCode
	Message    string
	AttendeeID string
	Attendee   *models.Attendee
}

func valid(code string, a models.Attendee) Result {
	return Result{Valid: true, AttendeeID: code, Attendee: &a}
}

func invalid(code ErrorCode, msg string, a *models.Attendee) Result {
	return Result{Code: code, Message: msg, Attendee: a}
}

// MessageOr returns r.Message, or fallback when it is empty.
func (r Result) MessageOr(fallback string) string {
	if r.Message == "" {
		return fallback
	}
	return r.Message
}
