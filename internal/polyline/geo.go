package polyline

import "math"

// earthRadiusMeters is the mean Earth radius
const earthRadiusMeters = 6371008.8

// Box is a latitude/longitude bounding box
type Box struct {
	SouthWest Point
	NorthEast Point
}

// Bounds returns the smallest box containing all points.
// ok is false for an empty slice.
func Bounds(points []Point) (box Box, ok bool) {
	if len(points) == 0 {
		return Box{}, false
	}

	box = Box{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		box.SouthWest.Latitude = math.Min(box.SouthWest.Latitude, p.Latitude)
		box.SouthWest.Longitude = math.Min(box.SouthWest.Longitude, p.Longitude)
		box.NorthEast.Latitude = math.Max(box.NorthEast.Latitude, p.Latitude)
		box.NorthEast.Longitude = math.Max(box.NorthEast.Longitude, p.Longitude)
	}
	return box, true
}

// Distance returns the great-circle distance between a and b in meters
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Length returns the total path length in meters
func Length(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
