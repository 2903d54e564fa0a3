package attendees

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/client/migrations"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, "."))
	return db
}

var registered = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func attendee(id, name, code string) models.Attendee {
	return models.Attendee{ID: id, Name: name, Email: id + "@example.com", QRCode: code, RegisteredAt: registered}
}

func TestCreateAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, attendee("a1", "John Doe", "ATT001")))

	got, err := r.GetByQRCode(ctx, "ATT001")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, "John Doe", got.Name)
	assert.Equal(t, "a1@example.com", got.Email)
	assert.True(t, registered.Equal(got.RegisteredAt))
	assert.False(t, got.IsPresent())

	_, err = r.GetByQRCode(ctx, "att001")
	assert.ErrorIs(t, err, common.ErrorNotFound, "lookup is case-sensitive")
}

func TestCreate_DuplicateCode(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, attendee("a1", "John Doe", "ATT001")))
	err := r.Create(ctx, attendee("a2", "Johnny", "ATT001"))
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestCreate_WithPresence(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	a := attendee("a3", "Bob Johnson", "ATT003")
	a.Presence = models.CheckedIn(registered.Add(time.Hour))
	require.NoError(t, r.Create(ctx, a))

	got, err := r.GetByQRCode(ctx, "ATT003")
	require.NoError(t, err)
	at, ok := got.Presence.CheckInTime()
	require.True(t, ok)
	assert.True(t, registered.Add(time.Hour).Equal(at))
}

func TestGetAll_KeepsRegistrationOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, a := range []models.Attendee{
		attendee("z", "Zed", "ATT010"),
		attendee("a", "Ann", "ATT002"),
		attendee("m", "Max", "ATT005"),
	} {
		require.NoError(t, r.Create(ctx, a))
	}

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"ATT010", "ATT002", "ATT005"}, []string{all[0].QRCode, all[1].QRCode, all[2].QRCode})
}

func TestMarkCheckedIn_CompareAndSwap(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, attendee("a1", "John Doe", "ATT001")))

	at := registered.Add(2 * time.Hour)

	ok, err := r.MarkCheckedIn(ctx, "ATT001", at, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.MarkCheckedIn(ctx, "ATT001", at.Add(time.Minute), true)
	require.NoError(t, err)
	assert.False(t, ok, "second check-in must not match")

	ok, err = r.MarkCheckedIn(ctx, "ATT999", at, true)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetByQRCode(ctx, "ATT001")
	require.NoError(t, err)
	first, _ := got.Presence.CheckInTime()
	assert.True(t, at.Equal(first), "the first check-in time is kept")
}

func TestPendingLifecycle(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, attendee("a1", "John Doe", "ATT001")))
	require.NoError(t, r.Create(ctx, attendee("a2", "Jane Smith", "ATT002")))

	_, err := r.MarkCheckedIn(ctx, "ATT001", registered.Add(time.Hour), true)
	require.NoError(t, err)
	_, err = r.MarkCheckedIn(ctx, "ATT002", registered.Add(time.Hour), false)
	require.NoError(t, err)

	pending, err := r.GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ATT001", pending[0].QRCode)
	assert.True(t, pending[0].IsPresent())

	require.NoError(t, r.ClearPending(ctx, "ATT001"))
	pending, err = r.GetPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReplaceAll(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, attendee("old", "Old", "OLD001")))

	err := r.ReplaceAll(ctx, []models.Attendee{
		attendee("a1", "John Doe", "ATT001"),
		attendee("a2", "Jane Smith", "ATT002"),
	})
	require.NoError(t, err)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ATT001", all[0].QRCode)

	err = r.ReplaceAll(ctx, []models.Attendee{
		attendee("b1", "X", "DUP"),
		attendee("b2", "Y", "DUP"),
	})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}
