package checkin

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

// memDir is a minimal Directory for tests.
type memDir struct {
	mu      sync.Mutex
	byCode  map[string]models.Attendee
	marks   int
	findErr error
	markErr error
}

func newMemDir(as ...models.Attendee) *memDir {
	d := &memDir{byCode: map[string]models.Attendee{}}
	for _, a := range as {
		d.byCode[a.QRCode] = a
	}
	return d
}

func (d *memDir) FindByCode(_ context.Context, code string) (models.Attendee, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.findErr != nil {
		return models.Attendee{}, d.findErr
	}
	a, ok := d.byCode[Normalize(code)]
	if !ok {
		return models.Attendee{}, common.ErrorNotFound
	}
	return a, nil
}

func (d *memDir) MarkPresent(_ context.Context, code string, at time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.markErr != nil {
		return false, d.markErr
	}
	code = Normalize(code)
	a, ok := d.byCode[code]
	if !ok || a.IsPresent() {
		return false, nil
	}
	a.Presence = models.CheckedIn(at)
	d.byCode[code] = a
	d.marks++
	return true, nil
}

// recorder collects notifications.
type recorder struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.got...)
}

func demoAttendees() []models.Attendee {
	reg := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return []models.Attendee{
		{ID: "1", Name: "John Doe", Email: "john@example.com", QRCode: "ATT001", RegisteredAt: reg},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", QRCode: "ATT002", RegisteredAt: reg},
		{ID: "3", Name: "Bob Johnson", Email: "bob@example.com", QRCode: "ATT003", RegisteredAt: reg, Presence: models.CheckedIn(reg)},
	}
}
