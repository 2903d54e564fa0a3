package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/client/config"
	"github.com/dmitrijs2005/rollcall/internal/client/directory"
	"github.com/dmitrijs2005/rollcall/internal/client/services"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)

// fakeAPI implements client.Client. Every call fails with PingErr when set,
// which makes the station look disconnected.
type fakeAPI struct {
	PingErr  error
	LoginRet client.Session
	LoginErr error
	Roster   []models.Attendee
	StatsRet models.Stats

	RegisterErr  error
	Registered   []models.Attendee
	CheckIns     []string
	Session      client.Session
	Closed       bool
	LastPassword string
}

var _ client.Client = (*fakeAPI)(nil)

func (f *fakeAPI) Close() error { f.Closed = true; return nil }

func (f *fakeAPI) Login(ctx context.Context, email, password string) (client.Session, error) {
	f.LastPassword = password
	return f.LoginRet, f.LoginErr
}

func (f *fakeAPI) SetSession(s client.Session) { f.Session = s }

func (f *fakeAPI) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeAPI) ListAttendees(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error) {
	if f.PingErr != nil {
		return nil, f.PingErr
	}
	var out []models.Attendee
	for _, a := range f.Roster {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAPI) RegisterAttendee(ctx context.Context, name, email, code string) (models.Attendee, error) {
	if f.RegisterErr != nil {
		return models.Attendee{}, f.RegisterErr
	}
	if code == "" {
		code = models.AttendeeCode(len(f.Roster) + 1)
	}
	a := models.Attendee{ID: "srv-" + code, Name: name, Email: email, QRCode: code, RegisteredAt: t0}
	f.Roster = append(f.Roster, a)
	f.Registered = append(f.Registered, a)
	return a, nil
}

func (f *fakeAPI) find(code string) (models.Attendee, int, bool) {
	for i, a := range f.Roster {
		if a.QRCode == checkin.Normalize(code) {
			return a, i, true
		}
	}
	return models.Attendee{}, -1, false
}

func (f *fakeAPI) Validate(ctx context.Context, code string) (checkin.Result, error) {
	if f.PingErr != nil {
		return checkin.Result{}, f.PingErr
	}
	a, _, ok := f.find(code)
	if !ok {
		return checkin.Result{Code: checkin.CodeNotFound, Message: checkin.MsgNotFound}, nil
	}
	if a.IsPresent() {
		return checkin.Result{Code: checkin.CodeAlreadyCheckedIn, Message: checkin.AlreadyCheckedInMessage(a.Name), Attendee: &a}, nil
	}
	return checkin.Result{Valid: true, AttendeeID: a.QRCode, Attendee: &a}, nil
}

func (f *fakeAPI) CheckIn(ctx context.Context, code, stationID string, at *time.Time) (checkin.Result, error) {
	if f.PingErr != nil {
		return checkin.Result{}, f.PingErr
	}
	f.CheckIns = append(f.CheckIns, code)
	res, _ := f.Validate(ctx, code)
	if res.Valid {
		_, i, _ := f.find(code)
		f.Roster[i].Presence = models.CheckedIn(*at)
		a := f.Roster[i]
		res.Attendee = &a
	}
	return res, nil
}

func (f *fakeAPI) Stats(ctx context.Context) (models.Stats, error) {
	return f.StatsRet, f.PingErr
}

type fixture struct {
	app   *App
	api   *fakeAPI
	local *directory.Directory
	out   *bytes.Buffer
}

// newFixture builds an App over an in-memory station database seeded with
// the demo roster. input feeds the REPL scanner.
func newFixture(t *testing.T, api *fakeAPI, input string) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	local := directory.New(db, "gate-1", logging.Nop())
	require.NoError(t, local.Load(ctx))
	_, err = local.SeedDemo(ctx, t0)
	require.NoError(t, err)

	if api.Roster == nil {
		api.Roster = models.DemoRoster(t0)
	}

	out := &bytes.Buffer{}
	cfg := &config.Config{StationID: "gate-1", BadgeDir: t.TempDir(), DebounceWindow: checkin.DefaultDebounceWindow, OnlineCheckInterval: time.Hour}

	a := &App{
		config:      cfg,
		logger:      logging.Nop(),
		db:          db,
		api:         api,
		authService: services.NewAuthService(api, db),
		syncService: services.NewSyncService(api, local, db, cfg.StationID, logging.Nop()),
		local:       local,
		station:     services.NewStationDirectory(api, local, cfg.StationID, logging.Nop()),
		lines:       bufio.NewScanner(strings.NewReader(input)),
		out:         out,
		mode:        ModeOffline,
	}
	a.pipeline = checkin.NewPipeline(a.station, newConsoleNotifier(out),
		checkin.WithClock(func() time.Time { return t0.Add(time.Hour) }))

	return &fixture{app: a, api: api, local: local, out: out}
}

func (f *fixture) online(t *testing.T) {
	t.Helper()
	f.app.setMode(context.Background(), ModeOnline)
	f.out.Reset()
}

func (f *fixture) login(t *testing.T, role string) {
	t.Helper()
	f.app.setOperator(services.Operator{Email: role + "@rlife.com", Role: role})
}

func stubInputs(t *testing.T, email string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Scanner, _ string, _ io.Writer) (string, error) { return email, nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return password, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}
