package speech

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// StubRecognizerConfig configures the stub recognizer behavior
type StubRecognizerConfig struct {
	// Events are pushed in order after Start
	Events []Event
	// EventDelay simulates time between events
	EventDelay time.Duration
	// DenyPermission makes CheckPermission fail
	DenyPermission bool
	// StartErr makes Start fail
	StartErr error
	// Hold keeps listening after the script until Stop instead of ending
	Hold bool
}

// DefaultStubRecognizerConfig returns a short scripted utterance
func DefaultStubRecognizerConfig() *StubRecognizerConfig {
	return &StubRecognizerConfig{
		Events: []Event{
			{Kind: EventPartial, Text: "where is"},
			{Kind: EventPartial, Text: "where is the station"},
			{Kind: EventFinal, Text: "Where is the station?"},
			{Kind: EventPartial, Text: "thank"},
			{Kind: EventFinal, Text: "Thank you."},
		},
	}
}

// StubRecognizer replays scripted events
type StubRecognizer struct {
	config *StubRecognizerConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	active bool
	starts int
	stops  int
}

// NewStubRecognizer creates a new stub recognizer with the given config
func NewStubRecognizer(config *StubRecognizerConfig) *StubRecognizer {
	if config == nil {
		config = DefaultStubRecognizerConfig()
	}
	return &StubRecognizer{config: config}
}

// CheckPermission reports the configured permission
func (s *StubRecognizer) CheckPermission(ctx context.Context) bool {
	return !s.config.DenyPermission
}

// Start begins replaying the script
func (s *StubRecognizer) Start(ctx context.Context, locale string) (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.StartErr != nil {
		return nil, s.config.StartErr
	}
	if s.active {
		return nil, ErrBusy
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.active = true
	s.starts++

	out := make(chan Event)
	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			s.active = false
			s.mu.Unlock()
			close(out)
			close(done)
		}()

		for _, ev := range s.config.Events {
			if s.config.EventDelay > 0 {
				select {
				case <-time.After(s.config.EventDelay):
				case <-runCtx.Done():
					return
				}
			}
			select {
			case out <- ev:
			case <-runCtx.Done():
				return
			}
		}

		if s.config.Hold {
			<-runCtx.Done()
			return
		}
		select {
		case out <- Event{Kind: EventEnd}:
		case <-runCtx.Done():
		}
	}()

	return out, nil
}

// Stop ends the current run and waits for it to finish. The event channel
// is closed and the recognizer can be started again once Stop returns.
func (s *StubRecognizer) Stop() error {
	s.mu.Lock()
	s.stops++
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}

// Listening reports whether a run is in progress
func (s *StubRecognizer) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stops returns how many times Stop was called
func (s *StubRecognizer) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// LineRecognizer treats each non-empty line of a reader as a final result
// and ends at EOF. It lets a terminal stand in for a microphone.
type LineRecognizer struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	lines   chan string
	cancel  context.CancelFunc
	done    chan struct{}
	active  bool
}

// NewLineRecognizer creates a recognizer reading from r
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{scanner: bufio.NewScanner(r)}
}

// CheckPermission always succeeds; reading a stream needs no permission
func (l *LineRecognizer) CheckPermission(ctx context.Context) bool {
	return true
}

// Start begins forwarding lines as final events
func (l *LineRecognizer) Start(ctx context.Context, locale string) (<-chan Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return nil, ErrBusy
	}

	// One reader goroutine per recognizer. A blocked read cannot be
	// interrupted, so it outlives Stop and serves the next Start.
	if l.lines == nil {
		l.lines = make(chan string)
		go func() {
			defer close(l.lines)
			for l.scanner.Scan() {
				l.lines <- l.scanner.Text()
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	l.active = true

	out := make(chan Event)
	go func() {
		defer func() {
			cancel()
			l.mu.Lock()
			l.active = false
			l.mu.Unlock()
			close(out)
			close(done)
		}()

		for {
			select {
			case <-runCtx.Done():
				return
			case line, ok := <-l.lines:
				ev := Event{Kind: EventEnd}
				if ok {
					line = strings.TrimSpace(line)
					if line == "" {
						continue
					}
					ev = Event{Kind: EventFinal, Text: line}
				}
				select {
				case out <- ev:
				case <-runCtx.Done():
					return
				}
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

// Stop ends the current run and waits for it to finish. A line already
// taken from the reader but not yet delivered is dropped.
func (l *LineRecognizer) Stop() error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}
