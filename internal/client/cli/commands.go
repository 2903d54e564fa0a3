package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/badge"
	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

const defaultRecent = 10

var (
	errLoginRequired  = errors.New("login required")
	errAdminRequired  = errors.New("admin role required")
	errServerRequired = errors.New("server unavailable")
)

// lookPath and newCommandSource are test seams for the camera.
var (
	lookPath         = exec.LookPath
	newCommandSource = func(cmd string) (checkin.CameraSource, error) { return checkin.NewCommandSource(cmd) }
)

// Status prints the station state.
func (a *App) Status(ctx context.Context, _ []string) error {
	op := a.currentOperator()
	who := "not signed in"
	if op.Email != "" {
		who = fmt.Sprintf("%s (%s)", op.Email, op.Role)
	}

	pending, err := a.local.Pending(ctx)
	if err != nil {
		return err
	}
	last := "never"
	if t, ok, err := a.syncService.LastSync(ctx); err != nil {
		return err
	} else if ok {
		last = t.Local().Format(time.DateTime)
	}
	st := a.local.Stats()

	fmt.Fprintf(a.out, "Station:   %s\n", a.config.StationID)
	fmt.Fprintf(a.out, "Mode:      %s\n", a.currentMode())
	fmt.Fprintf(a.out, "Operator:  %s\n", who)
	fmt.Fprintf(a.out, "Roster:    %d attendees, %d present\n", st.Total, st.Present)
	fmt.Fprintf(a.out, "Pending:   %d\n", len(pending))
	fmt.Fprintf(a.out, "Last sync: %s\n", last)
	return nil
}

// CheckIn runs a manually entered code through the pipeline.
func (a *App) CheckIn(ctx context.Context, args []string) error {
	var code string
	if len(args) > 0 {
		code = args[0]
	} else {
		var err error
		if code, err = getSimpleText(a.lines, "Enter QR code", a.out); err != nil {
			return err
		}
	}
	out := a.pipeline.Submit(ctx, code)
	return out.Err
}

// Scan reads codes until the operator stops it. With a camera command
// available the decoder runs until Enter; otherwise every input line is a
// scanned code (keyboard-wedge scanners) and an empty line stops.
func (a *App) Scan(ctx context.Context, _ []string) error {
	command := strings.TrimSpace(a.config.CameraCommand)
	if command != "" {
		if _, err := lookPath(strings.Fields(command)[0]); err != nil {
			a.logger.Warn(ctx, "camera decoder not found", "command", command, "error", err)
			fmt.Fprintf(a.out, "Camera decoder %q not found, reading codes from input\n", command)
			command = ""
		}
	}

	if command == "" {
		fmt.Fprintln(a.out, "Scan codes, one per line. Empty line stops.")
		return a.pipeline.Run(ctx, checkin.NewScannerSource(a.lines, true))
	}

	src, err := newCommandSource(command)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- a.pipeline.Run(ctx, src) }()

	fmt.Fprintln(a.out, "Scanning. Press Enter to stop.")
	a.lines.Scan()
	cancel()

	if err := <-done; err != nil {
		fmt.Fprintf(a.out, "Camera error: %s\n", err)
		return err
	}
	return nil
}

// List prints attendees. Arguments: an optional status (all, present,
// absent) followed by an optional search text.
func (a *App) List(ctx context.Context, args []string) error {
	f := models.ListFilter{Status: models.StatusAll}
	if len(args) > 0 {
		switch s := models.StatusFilter(strings.ToLower(args[0])); s {
		case models.StatusAll, models.StatusPresent, models.StatusAbsent:
			f.Status = s
			args = args[1:]
		}
	}
	f.Search = strings.Join(args, " ")

	var list []models.Attendee
	if a.station.Online() && a.isLoggedIn() {
		var err error
		if list, err = a.api.ListAttendees(ctx, f); err != nil {
			a.logger.Warn(ctx, "listing on server failed, using local roster", "error", err)
			list = a.local.List(f)
		}
	} else {
		list = a.local.List(f)
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No attendees")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tEMAIL\tCHECKED IN")
	for _, at := range list {
		when := "-"
		if t, ok := at.Presence.CheckInTime(); ok {
			when = t.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", at.QRCode, at.Name, at.Email, when)
	}
	return tw.Flush()
}

// Stats prints attendance totals, from the server when possible.
func (a *App) Stats(ctx context.Context, _ []string) error {
	st := a.local.Stats()
	if a.station.Online() && a.isLoggedIn() {
		if remote, err := a.api.Stats(ctx); err == nil {
			st = remote
		} else {
			a.logger.Warn(ctx, "server stats failed, using local roster", "error", err)
		}
	}
	fmt.Fprintf(a.out, "Total: %d  Present: %d  Absent: %d  Rate: %d%%\n", st.Total, st.Present, st.Absent(), st.Percent())
	return nil
}

// Recent prints the station's latest check-ins, newest first.
func (a *App) Recent(_ context.Context, args []string) error {
	limit := defaultRecent
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintln(a.out, "Usage: recent [count]")
			return common.ErrInvalidArgument
		}
		limit = n
	}

	recs := a.local.Recent(limit)
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No check-ins yet")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(a.out, "%s  %-8s %s (%s)\n", r.CheckedInAt.Local().Format(time.TimeOnly), r.Attendee.QRCode, r.Attendee.Name, r.StationID)
	}
	return nil
}

// Register adds an attendee on the server and to the local roster. An empty
// code lets the server assign the next one.
func (a *App) Register(ctx context.Context, _ []string) error {
	if !a.isAdmin() {
		fmt.Fprintln(a.out, "Registering attendees needs an admin login")
		return errAdminRequired
	}
	if !a.station.Online() {
		fmt.Fprintln(a.out, "Registering attendees needs the server")
		return errServerRequired
	}

	name, err := getSimpleText(a.lines, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.lines, "Enter email (optional)", a.out)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.lines, fmt.Sprintf("Enter QR code (empty for next free, e.g. %s)", a.local.NextCode()), a.out)
	if err != nil {
		return err
	}

	at, err := a.api.RegisterAttendee(ctx, name, email, code)
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %s\n", err)
		return err
	}
	if err := a.local.Add(ctx, at); err != nil && !errors.Is(err, common.ErrAlreadyExists) {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s with code %s\n", at.Name, at.QRCode)
	return nil
}

// Badge writes the QR badge of an attendee to the badge directory.
func (a *App) Badge(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: badge <code>")
		return common.ErrInvalidArgument
	}
	at, err := a.local.FindByCode(ctx, args[0])
	if err != nil {
		fmt.Fprintln(a.out, checkin.MsgNotFound)
		return err
	}
	path, err := badge.WriteFile(a.config.BadgeDir, at)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Badge written to %s\n", path)
	return nil
}

// Sync pushes offline check-ins and pulls the roster.
func (a *App) Sync(ctx context.Context, _ []string) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Sync needs a login")
		return errLoginRequired
	}
	rep, err := a.syncService.Sync(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Sync failed: %s\n", err)
		return err
	}
	fmt.Fprintf(a.out, "Pushed %d, conflicts %d, rejected %d\n", rep.Pushed, rep.Conflicts, rep.Rejected)
	if rep.Deferred {
		fmt.Fprintln(a.out, "New check-ins arrived during sync; roster pull postponed")
	} else {
		fmt.Fprintf(a.out, "Roster: %d attendees\n", rep.Pulled)
	}
	return nil
}

// Seed loads the demo roster into the local store.
func (a *App) Seed(ctx context.Context, _ []string) error {
	n, err := a.local.SeedDemo(ctx, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %d demo attendees\n", n)
	return nil
}
