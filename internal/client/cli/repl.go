package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Scan(ctx context.Context, args []string) error
	CheckIn(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
	Recent(ctx context.Context, args []string) error
	Register(ctx context.Context, args []string) error
	Badge(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Seed(ctx context.Context, args []string) error
}

func helpText(a execIface) string {
	cmds := []string{"scan", "checkin <code>", "list [all|present|absent] [search]", "stats", "recent [n]", "badge <code>", "seed", "status"}
	if a.isLoggedIn() {
		cmds = append(cmds, "sync")
		if a.isAdmin() {
			cmds = append(cmds, "register")
		}
		cmds = append(cmds, "logout")
	} else {
		cmds = append(cmds, "login")
	}
	cmds = append(cmds, "exit")
	return "Available commands: " + strings.Join(cmds, ", ")
}

// runREPL starts a simple read–eval–print loop for the station.
//
// It reads a line from the provided scanner, parses the first token as the
// command and passes the remaining tokens as arguments. Unknown commands are
// reported back to the user. The loop exits on scanner EOF, on ctx
// cancellation, or when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print their
// own messages. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("rollcall %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "?":
			printlnFn(helpText(a))

		case "login":
			_ = a.Login(ctx, args)

		case "logout":
			_ = a.Logout(ctx, args)

		case "status":
			_ = a.Status(ctx, args)

		case "s", "scan":
			_ = a.Scan(ctx, args)

		case "c", "checkin":
			_ = a.CheckIn(ctx, args)

		case "l", "list":
			_ = a.List(ctx, args)

		case "stats":
			_ = a.Stats(ctx, args)

		case "recent":
			_ = a.Recent(ctx, args)

		case "register":
			_ = a.Register(ctx, args)

		case "badge":
			_ = a.Badge(ctx, args)

		case "sync":
			_ = a.Sync(ctx, args)

		case "seed":
			_ = a.Seed(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
