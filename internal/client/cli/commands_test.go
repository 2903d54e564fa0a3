package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIn_OfflineScenario(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "")
	ctx := context.Background()

	require.NoError(t, f.app.CheckIn(ctx, []string{"ATT001"}))
	assert.Contains(t, f.out.String(), "[OK]  Welcome John Doe!")

	f.out.Reset()
	require.NoError(t, f.app.CheckIn(ctx, []string{"ATT001"}))
	assert.Contains(t, f.out.String(), "[ERR] John Doe is already checked in")

	f.out.Reset()
	require.NoError(t, f.app.CheckIn(ctx, []string{"ATT999"}))
	assert.Contains(t, f.out.String(), "[ERR] "+checkin.MsgNotFound)
}

func TestCheckIn_PromptsWithoutArgs(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "ATT002\n")

	require.NoError(t, f.app.CheckIn(context.Background(), nil))
	assert.Contains(t, f.out.String(), "Welcome Jane Smith!")
}

func TestCheckIn_OnlineGoesToServer(t *testing.T) {
	api := &fakeAPI{}
	f := newFixture(t, api, "")
	f.online(t)
	ctx := context.Background()

	require.NoError(t, f.app.CheckIn(ctx, []string{"ATT004"}))
	assert.Equal(t, []string{"ATT004"}, api.CheckIns)

	a, err := f.local.FindByCode(ctx, "ATT004")
	require.NoError(t, err)
	assert.True(t, a.IsPresent())

	pending, err := f.local.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestScan_KeyboardWedge(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "ATT001\nATT001\nATT999\n\nnot read\n")
	f.app.config.CameraCommand = ""

	require.NoError(t, f.app.Scan(context.Background(), nil))

	out := f.out.String()
	assert.Contains(t, out, "Welcome John Doe!")
	assert.Contains(t, out, checkin.MsgNotFound)
	// the repeat inside the debounce window is suppressed
	assert.NotContains(t, out, "already checked in")

	require.True(t, f.app.lines.Scan())
	assert.Equal(t, "not read", f.app.lines.Text())
}

func TestScan_MissingDecoderFallsBackToInput(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "ATT002\n\n")
	f.app.config.CameraCommand = "zbarcam --raw"

	orig := lookPath
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	t.Cleanup(func() { lookPath = orig })

	require.NoError(t, f.app.Scan(context.Background(), nil))
	assert.Contains(t, f.out.String(), "not found, reading codes from input")
	assert.Contains(t, f.out.String(), "Welcome Jane Smith!")
}

// chanSource is a CameraSource fed by the test.
type chanSource struct {
	frames  chan string
	stopped chan struct{}
}

func (s *chanSource) Start(context.Context) (<-chan string, error) { return s.frames, nil }
func (s *chanSource) Stop() error {
	select {
	case <-s.stopped:
	default:
		close(s.stopped)
	}
	return nil
}

func TestScan_CameraRunsUntilEnter(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "\n")
	f.app.config.CameraCommand = "zbarcam --raw"

	src := &chanSource{frames: make(chan string), stopped: make(chan struct{})}
	origLook, origNew := lookPath, newCommandSource
	lookPath = func(string) (string, error) { return "/usr/bin/zbarcam", nil }
	newCommandSource = func(string) (checkin.CameraSource, error) { return src, nil }
	t.Cleanup(func() { lookPath, newCommandSource = origLook, origNew })

	require.NoError(t, f.app.Scan(context.Background(), nil))

	select {
	case <-src.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("camera not stopped")
	}
}

func TestList(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "")
	ctx := context.Background()

	require.NoError(t, f.app.List(ctx, []string{"present"}))
	out := f.out.String()
	assert.Contains(t, out, "Bob Johnson")
	assert.Contains(t, out, "Charlie Wilson")
	assert.NotContains(t, out, "John Doe")

	f.out.Reset()
	require.NoError(t, f.app.List(ctx, []string{"jane"}))
	assert.Contains(t, f.out.String(), "Jane Smith")
	assert.NotContains(t, f.out.String(), "Bob Johnson")

	f.out.Reset()
	require.NoError(t, f.app.List(ctx, []string{"absent", "nobody"}))
	assert.Contains(t, f.out.String(), "No attendees")
}

func TestList_OnlineUsesServer(t *testing.T) {
	api := &fakeAPI{Roster: []models.Attendee{{ID: "x", Name: "Server Only", QRCode: "ATT100"}}}
	f := newFixture(t, api, "")
	f.online(t)
	f.login(t, "scanner")

	require.NoError(t, f.app.List(context.Background(), nil))
	assert.Contains(t, f.out.String(), "Server Only")
	assert.NotContains(t, f.out.String(), "John Doe")
}

func TestStats(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "")

	require.NoError(t, f.app.Stats(context.Background(), nil))
	assert.Contains(t, f.out.String(), "Total: 7  Present: 2  Absent: 5  Rate: 29%")

	f.api.StatsRet = models.Stats{Total: 10, Present: 5}
	f.online(t)
	f.login(t, "scanner")
	require.NoError(t, f.app.Stats(context.Background(), nil))
	assert.Contains(t, f.out.String(), "Total: 10  Present: 5  Absent: 5  Rate: 50%")
}

func TestRecent(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "")
	ctx := context.Background()

	require.NoError(t, f.app.CheckIn(ctx, []string{"ATT002"}))
	f.out.Reset()

	require.NoError(t, f.app.Recent(ctx, []string{"1"}))
	assert.Contains(t, f.out.String(), "Jane Smith")
	assert.NotContains(t, f.out.String(), "Bob Johnson")

	require.ErrorIs(t, f.app.Recent(ctx, []string{"x"}), common.ErrInvalidArgument)
}

func TestRegister(t *testing.T) {
	api := &fakeAPI{}
	f := newFixture(t, api, "")
	ctx := context.Background()

	require.ErrorIs(t, f.app.Register(ctx, nil), errAdminRequired)

	f.login(t, "admin")
	require.ErrorIs(t, f.app.Register(ctx, nil), errServerRequired)

	f.online(t)
	f.app.lines = scannerOf("New Person\nnew@example.com\n\n")
	require.NoError(t, f.app.Register(ctx, nil))
	require.Len(t, api.Registered, 1)
	assert.Equal(t, "ATT008", api.Registered[0].QRCode)

	a, err := f.local.FindByCode(ctx, "ATT008")
	require.NoError(t, err)
	assert.Equal(t, "New Person", a.Name)
}

func TestRegister_ServerError(t *testing.T) {
	api := &fakeAPI{RegisterErr: common.ErrAlreadyExists}
	f := newFixture(t, api, "Dup\n\nATT001\n")
	f.online(t)
	f.login(t, "admin")

	require.ErrorIs(t, f.app.Register(context.Background(), nil), common.ErrAlreadyExists)
	assert.Contains(t, f.out.String(), "Registration failed")
}

func TestBadge(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "")
	ctx := context.Background()

	require.NoError(t, f.app.Badge(ctx, []string{"ATT001"}))
	path := filepath.Join(f.app.config.BadgeDir, "John Doe-ATT001.png")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.ErrorIs(t, f.app.Badge(ctx, nil), common.ErrInvalidArgument)
	require.ErrorIs(t, f.app.Badge(ctx, []string{"ATT999"}), common.ErrorNotFound)
}

func TestSync(t *testing.T) {
	api := &fakeAPI{}
	f := newFixture(t, api, "")
	ctx := context.Background()

	require.ErrorIs(t, f.app.Sync(ctx, nil), errLoginRequired)

	f.login(t, "scanner")
	require.NoError(t, f.app.CheckIn(ctx, []string{"ATT001"}))
	f.out.Reset()

	require.NoError(t, f.app.Sync(ctx, nil))
	assert.Contains(t, f.out.String(), "Pushed 1, conflicts 0, rejected 0")
	assert.Contains(t, f.out.String(), "Roster: 7 attendees")

	api.PingErr = client.ErrUnavailable
	require.NoError(t, f.app.CheckIn(ctx, []string{"ATT002"}))
	require.ErrorIs(t, f.app.Sync(ctx, nil), client.ErrUnavailable)
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "")

	require.NoError(t, f.app.Seed(context.Background(), nil))
	assert.Contains(t, f.out.String(), "Added 0 demo attendees")
}

func TestStatus(t *testing.T) {
	f := newFixture(t, &fakeAPI{}, "")
	ctx := context.Background()
	require.NoError(t, f.app.CheckIn(ctx, []string{"ATT001"}))
	f.out.Reset()

	require.NoError(t, f.app.Status(ctx, nil))
	out := f.out.String()
	assert.Contains(t, out, "Mode:      offline")
	assert.Contains(t, out, "Operator:  not signed in")
	assert.Contains(t, out, "Roster:    7 attendees, 3 present")
	assert.Contains(t, out, "Pending:   1")
	assert.Contains(t, out, "Last sync: never")
}
