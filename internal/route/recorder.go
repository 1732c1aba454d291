package route

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/franz/wayfarer/internal/polyline"
	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("recording already started")

	// ErrStillRecording is returned when saving before Stop
	ErrStillRecording = errors.New("recording still in progress")

	// ErrTooFewPoints is returned when saving a path shorter than two points
	ErrTooFewPoints = errors.New("a recorded route needs at least two points")
)

// MinRecordedPoints is the smallest path Save will store
const MinRecordedPoints = 2

// Recorder samples a LocationSource on a fixed interval and keeps the
// breadcrumb path in memory until it is saved or discarded
type Recorder struct {
	source   LocationSource
	interval time.Duration
	onPoint  func(p polyline.Point, n int)

	mu       sync.Mutex
	points   []polyline.Point
	cancel   context.CancelFunc
	done     chan struct{}
	started  time.Time
	finished time.Time
}

// NewRecorder creates a recorder. A non-positive interval uses
// util.DefaultRecordInterval.
func NewRecorder(source LocationSource, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = util.DefaultRecordInterval
	}
	return &Recorder{
		source:   source,
		interval: interval,
		points:   make([]polyline.Point, 0),
	}
}

// OnPoint registers a callback run after each accepted sample, with the
// running point count. Set it before Start.
func (r *Recorder) OnPoint(fn func(p polyline.Point, n int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPoint = fn
}

// Start launches the sampling goroutine. It runs until Stop, until ctx is
// cancelled, or until the source is exhausted.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.started = time.Now()

	go r.run(runCtx, r.done)

	util.DebugLog("Recording started, sampling every %s", r.interval)
	return nil
}

func (r *Recorder) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer func() {
		ticker.Stop()
		r.mu.Lock()
		r.finished = time.Now()
		r.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p, err := r.source.Current(ctx)
			if err != nil {
				if errors.Is(err, ErrSourceExhausted) {
					util.DebugLog("Location source exhausted, recording stopped")
					return
				}
				if ctx.Err() != nil {
					return
				}
				util.WarnLog("Location sample failed: %v", err)
				continue
			}

			r.mu.Lock()
			r.points = append(r.points, p)
			n := len(r.points)
			fn := r.onPoint
			r.mu.Unlock()

			if fn != nil {
				fn(p, n)
			}
		}
	}
}

// Stop ends sampling and waits for the goroutine to exit. It is safe to
// call more than once, and before Start.
func (r *Recorder) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed once sampling has ended for any reason
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		// Never started: nothing to wait for
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return r.done
}

// Recording reports whether the sampling goroutine is still running
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Points returns a snapshot of the accumulated path
func (r *Recorder) Points() []polyline.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]polyline.Point, len(r.points))
	copy(out, r.points)
	return out
}

// Elapsed returns how long the recorder has been (or was) sampling
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started.IsZero() {
		return 0
	}
	if r.finished.IsZero() {
		return time.Since(r.started)
	}
	return r.finished.Sub(r.started)
}

// Discard stops sampling and drops the accumulated path without writing
// anything
func (r *Recorder) Discard() {
	r.Stop()

	r.mu.Lock()
	n := len(r.points)
	r.points = make([]polyline.Point, 0)
	r.mu.Unlock()

	util.DebugLog("Discarded recording of %d points", n)
}

// Save stores the recorded path as a route. The recorder must be stopped
// and hold at least MinRecordedPoints points. On success the in-memory
// path is cleared so the same recording cannot be saved twice.
func (r *Recorder) Save(s *store.Store, name string) (*store.RouteRecord, error) {
	if r.Recording() {
		return nil, ErrStillRecording
	}

	r.mu.Lock()
	points := make([]polyline.Point, len(r.points))
	copy(points, r.points)
	started := r.started
	r.mu.Unlock()

	if len(points) < MinRecordedPoints {
		return nil, fmt.Errorf("%w: have %d", ErrTooFewPoints, len(points))
	}

	rec, err := RecordedRoute(points, name, started)
	if err != nil {
		return nil, err
	}
	if _, err := s.InsertRoute(rec); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.points = make([]polyline.Point, 0)
	r.mu.Unlock()

	util.SuccessLog("Saved recorded route %d (%d points)", rec.ID, len(points))
	return rec, nil
}

// RecordedRoute builds the record for a breadcrumb path. The geometry is
// stored as a JSON point list and distance/duration carry the recorded
// marker.
func RecordedRoute(points []polyline.Point, name string, started time.Time) (*store.RouteRecord, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: have 0", ErrTooFewPoints)
	}

	stored, err := polyline.RawPoints(points).Stored()
	if err != nil {
		return nil, fmt.Errorf("failed to encode recorded path: %w", err)
	}

	if name = strings.TrimSpace(name); name == "" {
		if started.IsZero() {
			started = time.Now()
		}
		name = "Recorded route " + started.Format("2006-01-02 15:04")
	}

	first, last := points[0], points[len(points)-1]
	return &store.RouteRecord{
		Name:     name,
		StartLat: first.Latitude,
		StartLng: first.Longitude,
		EndLat:   last.Latitude,
		EndLng:   last.Longitude,
		Polyline: stored,
		Steps:    "[]",
		Distance: store.DistanceRecorded,
		Duration: store.DistanceRecorded,
	}, nil
}
