// Package polyline implements Google's encoded polyline algorithm format and
// the stored route-path representation built on top of it.
package polyline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// precision is the fixed-point scale of the encoding (5 decimal places)
const precision = 1e5

// maxShift bounds the number of 5-bit groups accepted for a single value
const maxShift = 60

// ErrMalformedPolyline is returned when encoded input violates the 5-bit
// group / continuation-bit grammar
var ErrMalformedPolyline = errors.New("malformed polyline")

// Point is a geographic coordinate in decimal degrees
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Finite reports whether both coordinates are real numbers
func (p Point) Finite() bool {
	return !math.IsNaN(p.Latitude) && !math.IsInf(p.Latitude, 0) &&
		!math.IsNaN(p.Longitude) && !math.IsInf(p.Longitude, 0)
}

// DecodeError describes where decoding stopped
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", ErrMalformedPolyline, e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformedPolyline
}

// Decode converts an encoded polyline string into its ordered points.
// An empty string yields an empty slice.
func Decode(encoded string) ([]Point, error) {
	points := make([]Point, 0, len(encoded)/4)

	var lat, lng int64
	pos := 0
	for pos < len(encoded) {
		dlat, next, err := decodeValue(encoded, pos)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, &DecodeError{Offset: next, Reason: "latitude without longitude"}
		}

		dlng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}

		lat += dlat
		lng += dlng
		points = append(points, Point{
			Latitude:  float64(lat) / precision,
			Longitude: float64(lng) / precision,
		})
		pos = next
	}

	return points, nil
}

// decodeValue reads one zig-zag encoded value starting at pos and returns it
// together with the offset of the next unread byte
func decodeValue(encoded string, pos int) (int64, int, error) {
	start := pos
	var result int64
	var shift uint

	for {
		if pos >= len(encoded) {
			return 0, pos, &DecodeError{Offset: start, Reason: "unterminated value"}
		}
		if shift >= maxShift {
			return 0, pos, &DecodeError{Offset: start, Reason: "value overflow"}
		}

		b := int64(encoded[pos]) - 63
		if b < 0 || b > 63 {
			return 0, pos, &DecodeError{Offset: pos, Reason: fmt.Sprintf("invalid character %q", encoded[pos])}
		}
		pos++

		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}

// Encode converts points into an encoded polyline string.
// Coordinates are rounded to 5 decimal places. Points with a NaN or
// infinite coordinate have no encoding and are skipped.
func Encode(points []Point) string {
	var b strings.Builder
	b.Grow(len(points) * 8)

	var prevLat, prevLng int64
	for _, p := range points {
		if !p.Finite() {
			continue
		}
		lat := int64(math.Round(p.Latitude * precision))
		lng := int64(math.Round(p.Longitude * precision))

		encodeValue(&b, lat-prevLat)
		encodeValue(&b, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return b.String()
}

func encodeValue(b *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		b.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	b.WriteByte(byte(u + 63))
}
