// Package attendees persists the station's projection of the roster.
//
// # Overview
//
// The station keeps a full copy of the attendee list in SQLite so it can
// validate and admit attendees while the server is unreachable. Check-ins
// made offline are flagged pending until the sync service has pushed them.
//
// # Atomicity
//
// MarkCheckedIn is a compare-and-swap on checked_in_at: the UPDATE only
// matches a row that has not been checked in, so two writers racing on the
// same code cannot both succeed. Callers that also append to the scan log
// should run both statements in one dbx.WithTx.
//
// Timestamps are stored as RFC 3339 text in UTC.
//
// Typical Usage
//
//	repo := attendees.NewSQLiteRepository(db)
//	all, _ := repo.GetAll(ctx)
//	ok, _ := repo.MarkCheckedIn(ctx, "ATT001", time.Now(), true)
//	pending, _ := repo.GetPending(ctx)
package attendees
