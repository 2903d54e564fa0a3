package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
)

// lockedWriter serializes writes from the REPL, the scan pipeline and the
// connectivity watcher.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// consoleNotifier prints pipeline notifications as one-line toasts.
type consoleNotifier struct {
	w io.Writer
}

func newConsoleNotifier(w io.Writer) checkin.Notifier {
	return consoleNotifier{w: w}
}

func (n consoleNotifier) Notify(_ context.Context, note checkin.Notification) {
	mark := "[OK] "
	if note.Kind == checkin.KindError {
		mark = "[ERR]"
	}
	fmt.Fprintf(n.w, "%s %s\n", mark, note.Message)
}
