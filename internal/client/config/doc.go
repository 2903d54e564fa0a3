// Package config loads runtime configuration for the rollcall scanner station.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string        address:port of the rollcalld gRPC endpoint
//	-i int           online status check interval (seconds)
//	-d string        SQLite database file
//	-station string  station identifier recorded with every scan
//	-w int           debounce window (milliseconds)
//	-camera string   decoder command line; empty reads codes from stdin
//	-badges string   directory badge PNGs are written to
//
// # JSON schema
//
// Durations accept strings like "2s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_url": "127.0.0.1:50051",
//	  "ping_interval": "3s",
//	  "database_dsn": "rollcall.db",
//	  "station_id": "gate-1",
//	  "debounce_window": "2s",
//	  "camera_command": "zbarcam --raw --nodisplay",
//	  "badge_dir": "badges"
//	}
package config
