package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

// CheckInEvent is published after a check-in has been committed.
type CheckInEvent struct {
	Attendee  models.Attendee
	StationID string
	At        time.Time
}

// Broadcaster fans committed check-ins and rejected scans out to live
// listeners. Neither method may block.
type Broadcaster interface {
	checkin.Notifier
	Broadcast(ev CheckInEvent)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(CheckInEvent) {}

func (nopBroadcaster) Notify(context.Context, checkin.Notification) {}

// rejections passes error notifications to b. Accepted scans reach
// listeners as CheckInEvents instead.
func rejections(b Broadcaster) checkin.Notifier {
	return checkin.NotifierFunc(func(ctx context.Context, n checkin.Notification) {
		if n.Kind == checkin.KindError {
			b.Notify(ctx, n)
		}
	})
}
