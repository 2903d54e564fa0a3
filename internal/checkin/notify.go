package checkin

import "context"

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a toast-like message for the operator.
type Notification struct {
	Kind    Kind
	Message string
}

// Notifier receives pipeline notifications. Notify must not block for long;
// it runs on the scan path.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Notifiers fans a notification out to every member in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, n Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}
