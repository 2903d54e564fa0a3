// Package buildinfo carries version metadata injected at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/rollcall/internal/buildinfo.Version=v1.2.0"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version = "N/A"
	Commit  = "N/A"
	Date    = "N/A"
)

// Print writes the build banner for the named binary.
func Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s version: %s\n", name, Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
