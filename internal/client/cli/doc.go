// Package cli provides the interactive rollcall scanner station.
//
// It wires configuration, the local SQLite roster, the API client and the
// check-in pipeline into a REPL that keeps working when the server is gone.
// A background watcher pings the server and flips the station between online
// mode (check-ins go to the server and are mirrored locally) and offline mode
// (check-ins are recorded locally and pushed on the next sync).
//
// Key commands:
//   - login / logout
//   - scan (camera or keyboard-wedge scanner) and checkin <code>
//   - list / stats / recent
//   - register and badge for admins
//   - sync and seed
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
