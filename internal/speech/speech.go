// Package speech turns a push-based speech recognizer into saved voice
// notes.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// EventKind classifies a recognizer event
type EventKind string

const (
	EventPartial EventKind = "partial"
	EventFinal   EventKind = "final"
	EventError   EventKind = "error"
	EventEnd     EventKind = "end"
)

// Event is pushed by a Recognizer while it listens
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Recognizer is a push-based speech recognizer. Start returns a channel
// that is closed once recognition ends, after Stop or ctx cancellation.
type Recognizer interface {
	CheckPermission(ctx context.Context) bool
	Start(ctx context.Context, locale string) (<-chan Event, error)
	Stop() error
}

var (
	// ErrEmptyTranscription is returned when saving a session that heard nothing
	ErrEmptyTranscription = errors.New("nothing was transcribed")

	// ErrBusy is returned when Start is called on a recognizer that is listening
	ErrBusy = errors.New("recognizer already listening")
)

// Session collects the final results of one listening run
type Session struct {
	ID      string
	Locale  string
	Started time.Time
	Ended   time.Time

	finals  []string
	partial string
	err     error
}

// NewSession creates a session with a fresh id
func NewSession(locale string) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Locale:  locale,
		Started: time.Now(),
	}
}

// Apply folds one event into the session and reports whether the session
// is over
func (s *Session) Apply(ev Event) bool {
	switch ev.Kind {
	case EventPartial:
		s.partial = ev.Text
	case EventFinal:
		s.partial = ""
		if text := strings.TrimSpace(ev.Text); text != "" {
			s.finals = append(s.finals, text)
		}
	case EventError:
		s.err = ev.Err
		if s.err == nil {
			s.err = errors.New("recognition failed")
		}
		s.Ended = time.Now()
		return true
	case EventEnd:
		s.Ended = time.Now()
		return true
	}
	return false
}

// Transcription joins the final results heard so far
func (s *Session) Transcription() string {
	return norm.NFC.String(strings.Join(s.finals, " "))
}

// Partial returns the latest in-progress hypothesis
func (s *Session) Partial() string {
	return s.partial
}

// Finals returns how many final results were heard
func (s *Session) Finals() int {
	return len(s.finals)
}

// Err returns the recognizer error that ended the session, if any
func (s *Session) Err() error {
	return s.err
}

// Save stores the transcription as a voice note. Nothing is written when
// the transcription is empty.
func (s *Session) Save(st *store.Store) (*store.VoiceNoteRecord, error) {
	text := s.Transcription()
	if text == "" {
		return nil, ErrEmptyTranscription
	}

	rec := &store.VoiceNoteRecord{Transcription: text}
	if _, err := st.InsertVoiceNote(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Listen runs one recognition session until the recognizer ends it or ctx
// is cancelled. Cancellation stops the recognizer and keeps whatever was
// heard; the session is returned with a nil error. onEvent, when set, sees
// every event.
func Listen(ctx context.Context, rec Recognizer, locale string, onEvent func(Event)) (*Session, error) {
	if !rec.CheckPermission(ctx) {
		return nil, fmt.Errorf("microphone: %w", util.ErrPermission)
	}

	events, err := rec.Start(ctx, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to start recognizer: %w", err)
	}

	session := NewSession(locale)
	util.DebugLog("Speech session %s started (%s)", session.ID, locale)

	for {
		select {
		case <-ctx.Done():
			if err := rec.Stop(); err != nil {
				util.WarnLog("Failed to stop recognizer: %v", err)
			}
			// Keep draining so results pushed before the stop are not lost
			drain(events, session, onEvent)
			if session.Ended.IsZero() {
				session.Ended = time.Now()
			}
			return session, nil

		case ev, ok := <-events:
			if !ok {
				if session.Ended.IsZero() {
					session.Ended = time.Now()
				}
				return session, session.Err()
			}
			if onEvent != nil {
				onEvent(ev)
			}
			if session.Apply(ev) {
				rec.Stop()
				return session, session.Err()
			}
		}
	}
}

func drain(events <-chan Event, session *Session, onEvent func(Event)) {
	for ev := range events {
		if onEvent != nil {
			onEvent(ev)
		}
		if session.Apply(ev) {
			return
		}
	}
}
