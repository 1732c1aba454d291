package route

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/franz/wayfarer/internal/polyline"
)

// ErrSourceExhausted is returned by a replay source with no points left
var ErrSourceExhausted = errors.New("location source exhausted")

// LocationSource yields the device's current position
type LocationSource interface {
	Current(ctx context.Context) (polyline.Point, error)
}

// StaticSource always reports the same position
type StaticSource struct {
	Point polyline.Point
}

// Current returns the fixed point
func (s StaticSource) Current(ctx context.Context) (polyline.Point, error) {
	if err := ctx.Err(); err != nil {
		return polyline.Point{}, err
	}
	return s.Point, nil
}

// ReplaySource replays a recorded track one point per call
type ReplaySource struct {
	mu     sync.Mutex
	points []polyline.Point
	next   int
	loop   bool
}

// NewReplaySource creates a source over points. When loop is set the track
// restarts instead of running out.
func NewReplaySource(points []polyline.Point, loop bool) *ReplaySource {
	cp := make([]polyline.Point, len(points))
	copy(cp, points)
	return &ReplaySource{points: cp, loop: loop}
}

// Current returns the next point of the track
func (s *ReplaySource) Current(ctx context.Context) (polyline.Point, error) {
	if err := ctx.Err(); err != nil {
		return polyline.Point{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.points) {
		if !s.loop || len(s.points) == 0 {
			return polyline.Point{}, ErrSourceExhausted
		}
		s.next = 0
	}
	p := s.points[s.next]
	s.next++
	return p, nil
}

// Remaining returns how many points are left before the source runs out
func (s *ReplaySource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points) - s.next
}

// LoadTrackFile reads a track from a file, see LoadTrack
func LoadTrackFile(path string) ([]polyline.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track: %w", err)
	}
	defer f.Close()
	return LoadTrack(f)
}

// LoadTrack reads a track in one of three layouts: a JSON array of
// {latitude, longitude} objects, one such object per line, or one
// "lat,lng" pair per line. Blank lines and lines starting with '#' are
// skipped.
func LoadTrack(r io.Reader) ([]polyline.Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read track: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var points []polyline.Point
		if err := json.Unmarshal(trimmed, &points); err != nil {
			return nil, fmt.Errorf("invalid track: %w", err)
		}
		for i, p := range points {
			if err := validatePoint(p); err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
		}
		return points, nil
	}

	points := make([]polyline.Point, 0)
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p, err := parseTrackLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read track: %w", err)
	}

	return points, nil
}

func parseTrackLine(line string) (polyline.Point, error) {
	var p polyline.Point
	if strings.HasPrefix(line, "{") {
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return p, fmt.Errorf("invalid point: %w", err)
		}
		return p, validatePoint(p)
	}

	lat, lng, ok := strings.Cut(line, ",")
	if !ok {
		return p, fmt.Errorf("expected \"lat,lng\", got %q", line)
	}
	var err error
	if p.Latitude, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return p, fmt.Errorf("invalid latitude: %w", err)
	}
	if p.Longitude, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return p, fmt.Errorf("invalid longitude: %w", err)
	}
	return p, validatePoint(p)
}

func validatePoint(p polyline.Point) error {
	if !p.Finite() {
		return fmt.Errorf("coordinate %v,%v is not finite", p.Latitude, p.Longitude)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", p.Longitude)
	}
	return nil
}
