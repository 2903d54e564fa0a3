// Package client contains the station's building blocks for talking to
// rollcalld and for opening the local database.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Login,
//     Ping, roster listing and registration, Validate, CheckIn and Stats.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, injects an access token via an interceptor, transparently
//     refreshes expired tokens, and maps gRPC status codes to sentinel errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations),
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, plus
// common.ErrAlreadyExists and common.ErrorNotFound passed through from the
// server.
//
// GRPCClient is safe for concurrent use: the ping watcher and the REPL share
// one instance.
package client
