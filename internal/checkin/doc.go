// Package checkin implements attendee check-in: turning a decoded QR string
// into at most one presence transition plus a user-facing notification.
//
// The pieces, leaf first:
//
//   - ValidateFormat trims the raw text and rejects empty codes.
//   - Directory is the roster: lookup by code (Lookup) and the single
//     presence mutation (Marker). Implementations live next to their storage
//     (in-memory on the station, PostgreSQL on the server).
//   - Validate composes the format check with a directory lookup. It never
//     mutates state and always reads the directory as it is now, so callers
//     may re-run it after a failed mutation to get an accurate message.
//   - Debouncer suppresses repeats of the most recent code inside a window.
//   - Pipeline chains debounce, validation, mutation and notification for
//     camera frames, and offers Submit for manual entry (no debounce).
//   - CameraSource abstracts the decoder producing frames.
//
// Every pipeline outcome is terminal; nothing is retried or queued.
package checkin
