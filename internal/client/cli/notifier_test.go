package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/stretchr/testify/assert"
)

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := newConsoleNotifier(&buf)

	n.Notify(context.Background(), checkin.Notification{Kind: checkin.KindSuccess, Message: "Welcome John Doe!"})
	n.Notify(context.Background(), checkin.Notification{Kind: checkin.KindError, Message: "Invalid QR code"})

	assert.Equal(t, "[OK]  Welcome John Doe!\n[ERR] Invalid QR code\n", buf.String())
}

func TestLockedWriter_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	w := &lockedWriter{w: &buf}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Write([]byte("line\n"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50*len("line\n"), buf.Len())
}
