package polyline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Encoding identifies how a stored route path is represented
type Encoding int

const (
	// EncodingGoogle is a Google-encoded polyline string (fetched routes)
	EncodingGoogle Encoding = iota
	// EncodingRawPoints is a JSON list of points (recorded breadcrumb paths)
	EncodingRawPoints
)

func (e Encoding) String() string {
	switch e {
	case EncodingGoogle:
		return "google"
	case EncodingRawPoints:
		return "points"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Path is the geometry of a saved route: either a Google-encoded polyline or
// a raw point list. On disk both share one text column; ParseStored tells
// them apart by the first character.
type Path struct {
	encoding Encoding
	encoded  string
	points   []Point
}

// GoogleEncoded wraps an encoded polyline string
func GoogleEncoded(encoded string) Path {
	return Path{encoding: EncodingGoogle, encoded: encoded}
}

// RawPoints wraps an ordered point list
func RawPoints(points []Point) Path {
	return Path{encoding: EncodingRawPoints, points: points}
}

// Kind reports which representation the path carries
func (p Path) Kind() Encoding {
	return p.encoding
}

// Points returns the decoded geometry
func (p Path) Points() ([]Point, error) {
	if p.encoding == EncodingRawPoints {
		out := make([]Point, len(p.points))
		copy(out, p.points)
		return out, nil
	}
	return Decode(p.encoded)
}

// Stored renders the on-disk text form of the path
func (p Path) Stored() (string, error) {
	if p.encoding == EncodingGoogle {
		return p.encoded, nil
	}

	points := p.points
	if points == nil {
		points = []Point{}
	}
	data, err := json.Marshal(points)
	if err != nil {
		return "", fmt.Errorf("failed to encode points: %w", err)
	}
	return string(data), nil
}

// ParseStored interprets a stored polyline column.
// Values starting with '[' are JSON point lists, anything else is a
// Google-encoded polyline.
func ParseStored(stored string) (Path, error) {
	if !strings.HasPrefix(stored, "[") {
		return GoogleEncoded(stored), nil
	}

	var points []Point
	if err := json.Unmarshal([]byte(stored), &points); err != nil {
		return Path{}, fmt.Errorf("%w: invalid point list: %v", ErrMalformedPolyline, err)
	}
	return RawPoints(points), nil
}
