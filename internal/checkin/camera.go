package checkin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

var (
	ErrSourceStarted = errors.New("camera source already started")
	ErrSourceStopped = errors.New("camera source stopped")
)

// CameraSource produces decoded QR strings. A source is started once and
// cannot be restarted after Stop. Stop is idempotent and releases the
// underlying device.
type CameraSource interface {
	Start(ctx context.Context) (<-chan string, error)
	Stop() error
}

// Lines is the part of bufio.Scanner a LineSource needs.
type Lines interface {
	Scan() bool
	Text() string
}

// LineSource turns text lines into frames: keyboard-wedge barcode scanners,
// pipes from decoder tools, or a terminal.
type LineSource struct {
	lines       Lines
	stopOnBlank bool

	mu       sync.Mutex
	started  bool
	stopped  bool
	done     chan struct{}
	stopOnce sync.Once
}

// NewLineSource reads frames from r, one per line.
func NewLineSource(r io.Reader) *LineSource {
	return NewScannerSource(bufio.NewScanner(r), false)
}

// NewScannerSource reads frames from an existing scanner. With stopOnBlank an
// empty line ends the sequence, which lets a terminal user leave scan mode.
func NewScannerSource(lines Lines, stopOnBlank bool) *LineSource {
	return &LineSource{lines: lines, stopOnBlank: stopOnBlank, done: make(chan struct{})}
}

func (s *LineSource) Start(ctx context.Context) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, ErrSourceStopped
	}
	if s.started {
		return nil, ErrSourceStarted
	}
	s.started = true

	out := make(chan string)
	go func() {
		defer close(out)
		for s.lines.Scan() {
			line := strings.TrimRight(s.lines.Text(), "\r\n")
			if s.stopOnBlank && strings.TrimSpace(line) == "" {
				return
			}
			select {
			case out <- line:
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *LineSource) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.done)
	})
	return nil
}

// CommandSource runs an external decoder that prints one decoded code per
// line on stdout, such as "zbarcam --raw --nodisplay". Stopping the source
// kills the process, which releases the capture device.
type CommandSource struct {
	name string
	args []string

	mu       sync.Mutex
	cmd      *exec.Cmd
	lines    *LineSource
	started  bool
	stopped  bool
	stopOnce sync.Once
	stopErr  error
}

// NewCommandSource parses a command line such as "zbarcam --raw".
func NewCommandSource(commandLine string) (*CommandSource, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("empty camera command")
	}
	return &CommandSource{name: fields[0], args: fields[1:]}, nil
}

func (s *CommandSource) Start(ctx context.Context) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, ErrSourceStopped
	}
	if s.started {
		return nil, ErrSourceStarted
	}
	s.started = true

	cmd := exec.CommandContext(ctx, s.name, s.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("camera pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start camera %q: %w", s.name, err)
	}
	s.cmd = cmd
	s.lines = NewLineSource(stdout)
	return s.lines.Start(ctx)
}

func (s *CommandSource) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stopped = true

		if s.lines != nil {
			_ = s.lines.Stop()
		}
		if s.cmd == nil || s.cmd.Process == nil {
			return
		}
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.stopErr = err
		}
		_ = s.cmd.Wait()
	})
	return s.stopErr
}
