package checkin

import "strings"

// Normalize is the canonical form of a scanned or typed code. Matching is
// exact and case-sensitive after trimming.
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// ValidateFormat accepts any non-empty code after trimming.
func ValidateFormat(raw string) Result {
	code := Normalize(raw)
	if code == "" {
		return invalid(CodeEmpty, MsgEmptyCode, nil)
	}
	return Result{Valid: true, AttendeeID: code}
}
