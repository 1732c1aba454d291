package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventSave        EventType = "save"
	EventDelete      EventType = "delete"
	EventClear       EventType = "clear"
	EventRouteFetch  EventType = "route_fetch"
	EventRecord      EventType = "record"
	EventTranslate   EventType = "translate"
	EventOCR         EventType = "ocr"
	EventSpeech      EventType = "speech"
	EventProfileSync EventType = "profile_sync"
	EventError       EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel maps a level name to an EventLevel, defaulting to info
func ParseLevel(s string) EventLevel {
	level := EventLevel(s)
	if _, ok := levelPriority[level]; ok {
		return level
	}
	return LevelInfo
}

// Event is one line of the audit trail
type Event struct {
	Timestamp   time.Time         `json:"ts"`
	Level       EventLevel        `json:"level"`
	Event       EventType         `json:"event"`
	Session     string            `json:"session,omitempty"`
	Kind        string            `json:"kind,omitempty"`
	RecordID    string            `json:"record_id,omitempty"`
	Name        string            `json:"name,omitempty"`
	Origin      string            `json:"origin,omitempty"`
	Destination string            `json:"destination,omitempty"`
	Points      int               `json:"points,omitempty"`
	Duration    int64             `json:"duration_ms,omitempty"`
	Error       string            `json:"error,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	session  string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event written through it carries the same session id.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	session := uuid.NewString()
	filename := fmt.Sprintf("events-%s-%s.jsonl", timestamp, session[:8])
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		session:  session,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Session == "" {
		event.Session = l.session
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

func levelFor(err error) (EventLevel, string) {
	if err != nil {
		return LevelError, err.Error()
	}
	return LevelInfo, ""
}

// LogSave logs a record written to the local store
func (l *EventLogger) LogSave(kind string, id int64, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level:    level,
		Event:    EventSave,
		Kind:     kind,
		RecordID: strconv.FormatInt(id, 10),
		Error:    errMsg,
	})
}

// LogDelete logs a record removed from the local store
func (l *EventLogger) LogDelete(kind, id string, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level:    level,
		Event:    EventDelete,
		Kind:     kind,
		RecordID: id,
		Error:    errMsg,
	})
}

// LogClear logs a full wipe of local data
func (l *EventLogger) LogClear(err error) error {
	level, errMsg := levelFor(err)
	if err == nil {
		level = LevelWarning
	}
	return l.Log(&Event{
		Level: level,
		Event: EventClear,
		Error: errMsg,
	})
}

// LogRouteFetch logs a directions lookup
func (l *EventLogger) LogRouteFetch(origin, destination string, points int, duration time.Duration, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level:       level,
		Event:       EventRouteFetch,
		Origin:      origin,
		Destination: destination,
		Points:      points,
		Duration:    duration.Milliseconds(),
		Error:       errMsg,
	})
}

// LogRecord logs the end of a breadcrumb recording
func (l *EventLogger) LogRecord(name string, points int, saved bool, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventRecord,
		Name:     name,
		Points:   points,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"saved": strconv.FormatBool(saved),
		},
	})
}

// LogTranslate logs a translation request
func (l *EventLogger) LogTranslate(source, target, via string, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level: level,
		Event: EventTranslate,
		Error: errMsg,
		Extra: map[string]string{
			"source": source,
			"target": target,
			"via":    via,
		},
	})
}

// LogOCR logs a text recognition attempt
func (l *EventLogger) LogOCR(imageRef string, chars int) error {
	level := LevelInfo
	if chars == 0 {
		level = LevelWarning
	}
	return l.Log(&Event{
		Level: level,
		Event: EventOCR,
		Name:  imageRef,
		Extra: map[string]string{
			"chars": strconv.Itoa(chars),
		},
	})
}

// LogSpeech logs a finished speech session
func (l *EventLogger) LogSpeech(sessionID string, finals int, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level:    level,
		Event:    EventSpeech,
		RecordID: sessionID,
		Error:    errMsg,
		Extra: map[string]string{
			"finals": strconv.Itoa(finals),
		},
	})
}

// LogProfileSync logs the remote half of a profile save
func (l *EventLogger) LogProfileSync(userID string, online bool, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}
	return l.Log(&Event{
		Level:    level,
		Event:    EventProfileSync,
		RecordID: userID,
		Error:    errMsg,
		Extra: map[string]string{
			"online": strconv.FormatBool(online),
		},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, name string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Name:  name,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Session returns the id stamped on every event of this run
func (l *EventLogger) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
