package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// readEvents closes the logger and decodes every line of its file
func readEvents(t *testing.T, logger *EventLogger) []Event {
	t.Helper()
	logger.Close()

	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", len(events)+1, err)
		}
		events = append(events, decoded)
	}
	return events
}

func newTestLogger(t *testing.T) *EventLogger {
	t.Helper()
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestNewEventLogger(t *testing.T) {
	logger := newTestLogger(t)

	if logger.path == "" {
		t.Error("EventLogger path is empty")
	}

	if _, err := os.Stat(logger.path); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.path)
	}

	filename := filepath.Base(logger.path)
	if !strings.HasPrefix(filename, "events-") || !strings.HasSuffix(filename, ".jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
	if !strings.Contains(filename, logger.Session()[:8]) {
		t.Errorf("Event log filename %s does not carry session prefix", filename)
	}
}

func TestEventLogger_Log(t *testing.T) {
	logger := newTestLogger(t)

	event := &Event{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Event:     EventSave,
		Kind:      "scan",
		RecordID:  "7",
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events := readEvents(t, logger)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Kind != "scan" {
		t.Errorf("Expected kind 'scan', got '%s'", events[0].Kind)
	}
	if events[0].RecordID != "7" {
		t.Errorf("Expected record_id '7', got '%s'", events[0].RecordID)
	}
}

func TestEventLogger_SessionStamped(t *testing.T) {
	logger := newTestLogger(t)

	logger.LogSave("scan", 1, nil)
	logger.LogDelete("route", "2", nil)

	events := readEvents(t, logger)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Session != logger.Session() {
			t.Errorf("Event %d: session %q, want %q", i, e.Session, logger.Session())
		}
	}

	other := newTestLogger(t)
	if other.Session() == logger.Session() {
		t.Error("Two loggers share a session id")
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	logger := newTestLogger(t)

	const numGoroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				event := &Event{
					Level: LevelInfo,
					Event: EventRecord,
					Extra: map[string]string{
						"goroutine": strconv.Itoa(id),
						"sequence":  strconv.Itoa(j),
					},
				}
				if err := logger.Log(event); err != nil {
					t.Errorf("Concurrent log failed: %v", err)
				}
			}
		}(i)
	}

	wg.Wait()

	events := readEvents(t, logger)
	expected := numGoroutines * eventsPerGoroutine
	if len(events) != expected {
		t.Errorf("Expected %d events, got %d", expected, len(events))
	}
}

func TestEventLogger_LogSave(t *testing.T) {
	logger := newTestLogger(t)

	if err := logger.LogSave("translation", 42, nil); err != nil {
		t.Fatalf("LogSave failed: %v", err)
	}
	if err := logger.LogSave("route", 0, errors.New("disk full")); err != nil {
		t.Fatalf("LogSave failed: %v", err)
	}

	events := readEvents(t, logger)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Event != EventSave || events[0].Level != LevelInfo {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
	if events[0].RecordID != "42" {
		t.Errorf("Expected record_id '42', got '%s'", events[0].RecordID)
	}
	if events[1].Level != LevelError || events[1].Error != "disk full" {
		t.Errorf("Unexpected failed save event: %+v", events[1])
	}
}

func TestEventLogger_LogRouteFetch(t *testing.T) {
	logger := newTestLogger(t)

	duration := 250 * time.Millisecond
	err := logger.LogRouteFetch("Sacramento", "Eureka", 3, duration, nil)
	if err != nil {
		t.Fatalf("LogRouteFetch failed: %v", err)
	}

	events := readEvents(t, logger)
	event := events[0]
	if event.Event != EventRouteFetch {
		t.Errorf("Expected event type 'route_fetch', got '%s'", event.Event)
	}
	if event.Origin != "Sacramento" || event.Destination != "Eureka" {
		t.Errorf("Unexpected endpoints: %s -> %s", event.Origin, event.Destination)
	}
	if event.Points != 3 {
		t.Errorf("Expected 3 points, got %d", event.Points)
	}
	if event.Duration != duration.Milliseconds() {
		t.Errorf("Expected duration %d ms, got %d ms", duration.Milliseconds(), event.Duration)
	}
}

func TestEventLogger_LogRecord(t *testing.T) {
	logger := newTestLogger(t)

	if err := logger.LogRecord("evening walk", 12, false, time.Minute); err != nil {
		t.Fatalf("LogRecord failed: %v", err)
	}

	event := readEvents(t, logger)[0]
	if event.Name != "evening walk" {
		t.Errorf("Expected name 'evening walk', got '%s'", event.Name)
	}
	if event.Extra["saved"] != "false" {
		t.Errorf("Expected saved 'false', got '%s'", event.Extra["saved"])
	}
}

func TestEventLogger_LogProfileSync(t *testing.T) {
	logger := newTestLogger(t)

	logger.LogProfileSync("user-1", true, nil)
	logger.LogProfileSync("user-1", false, errors.New("offline"))

	events := readEvents(t, logger)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Level != LevelInfo || events[0].Extra["online"] != "true" {
		t.Errorf("Unexpected online sync event: %+v", events[0])
	}
	if events[1].Level != LevelWarning || events[1].Error != "offline" {
		t.Errorf("Unexpected offline sync event: %+v", events[1])
	}
}

func TestEventLogger_LogOCREmpty(t *testing.T) {
	logger := newTestLogger(t)

	logger.LogOCR("menu.png", 0)
	logger.LogOCR("sign.png", 18)

	events := readEvents(t, logger)
	if events[0].Level != LevelWarning {
		t.Errorf("Empty OCR should be a warning, got '%s'", events[0].Level)
	}
	if events[1].Level != LevelInfo || events[1].Extra["chars"] != "18" {
		t.Errorf("Unexpected OCR event: %+v", events[1])
	}
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	if err := logger.Log(&Event{Level: LevelInfo, Event: EventSave}); err != nil {
		t.Errorf("NullLogger.Log should not return error, got: %v", err)
	}
	if err := logger.LogSave("scan", 1, nil); err != nil {
		t.Errorf("NullLogger.LogSave should not return error, got: %v", err)
	}
	if err := logger.LogClear(nil); err != nil {
		t.Errorf("NullLogger.LogClear should not return error, got: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("NullLogger.Close should not return error, got: %v", err)
	}
	if path := logger.Path(); path != "" {
		t.Errorf("NullLogger.Path should return empty string, got: %s", path)
	}
	if session := logger.Session(); session != "" {
		t.Errorf("NullLogger.Session should return empty string, got: %s", session)
	}
}

func TestEventLogger_AutoTimestamp(t *testing.T) {
	logger := newTestLogger(t)

	if err := logger.Log(&Event{Level: LevelInfo, Event: EventTranslate}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	decoded := readEvents(t, logger)[0]
	if decoded.Timestamp.IsZero() {
		t.Error("Expected timestamp to be auto-set, but it's zero")
	}
	if time.Since(decoded.Timestamp) > 5*time.Second {
		t.Errorf("Timestamp is too old: %v", decoded.Timestamp)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want EventLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarning},
		{"error", LevelError},
		{"", LevelInfo},
		{"loud", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEventLogger_LogLevelFiltering(t *testing.T) {
	all := []Event{
		{Level: LevelDebug, Event: EventOCR},
		{Level: LevelInfo, Event: EventSave},
		{Level: LevelWarning, Event: EventClear},
		{Level: LevelError, Event: EventError},
	}

	testCases := []struct {
		name          string
		minLevel      EventLevel
		expectedCount int
	}{
		{"LevelDebug logs all", LevelDebug, 4},
		{"LevelInfo skips debug", LevelInfo, 3},
		{"LevelWarning skips debug and info", LevelWarning, 2},
		{"LevelError only logs errors", LevelError, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewEventLogger(t.TempDir(), tc.minLevel)
			if err != nil {
				t.Fatalf("NewEventLogger failed: %v", err)
			}

			for _, e := range all {
				e := e
				if err := logger.Log(&e); err != nil {
					t.Fatalf("Log failed: %v", err)
				}
			}

			if got := len(readEvents(t, logger)); got != tc.expectedCount {
				t.Errorf("Expected %d events logged, got %d", tc.expectedCount, got)
			}
		})
	}
}
