package compliance

import (
	"fmt"
	"math"

	"rpascore/pkg/domain"
)

// EarthRadiusNM is the mean earth radius in nautical miles.
const EarthRadiusNM = 3440.065

// ValidateCoordinate checks that a point carries finite coordinates with
// latitude in [-90, 90] and longitude in [-180, 180].
func ValidateCoordinate(p domain.LatLon) error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return domain.InvalidGeometryError{Reason: "coordinate is not finite"}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return domain.InvalidGeometryError{Reason: fmt.Sprintf("latitude %v outside [-90, 90]", p.Lat)}
	}
	if p.Lon < -180 || p.Lon > 180 {
		return domain.InvalidGeometryError{Reason: fmt.Sprintf("longitude %v outside [-180, 180]", p.Lon)}
	}
	return nil
}

// ValidateRing checks that r is a usable polygon boundary: every coordinate
// valid, explicitly closed, at least three distinct vertices, no repeated
// consecutive vertices, and no self-intersection.
func ValidateRing(r domain.Ring) error {
	if len(r) == 0 {
		return domain.InvalidGeometryError{Reason: "ring is empty"}
	}
	for i, p := range r {
		if err := ValidateCoordinate(p); err != nil {
			return domain.InvalidGeometryError{Reason: fmt.Sprintf("vertex %d: %s", i, geometryReason(err))}
		}
	}
	if len(r) < 4 {
		return domain.InvalidGeometryError{Reason: "ring needs at least three distinct vertices plus closure"}
	}
	if r[0] != r[len(r)-1] {
		return domain.InvalidGeometryError{Reason: "ring is not closed"}
	}
	for i := 0; i < len(r)-1; i++ {
		if r[i] == r[i+1] {
			return domain.InvalidGeometryError{Reason: fmt.Sprintf("ring repeats vertex %d", i)}
		}
	}
	segments := len(r) - 1
	for i := 0; i < segments; i++ {
		for j := i + 1; j < segments; j++ {
			if j == i+1 {
				continue
			}
			if i == 0 && j == segments-1 {
				continue
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return domain.InvalidGeometryError{Reason: "ring is self-intersecting"}
			}
		}
	}
	return nil
}

// RingContains reports whether p lies inside the ring, counting boundary
// points as inside. The test is planar ray casting over the coordinate grid;
// rings are expected to be small relative to the globe and to not cross the
// antimeridian.
func RingContains(r domain.Ring, p domain.LatLon) bool {
	if len(r) < 4 {
		return false
	}
	inside := false
	for i := 0; i < len(r)-1; i++ {
		a, b := r[i], r[i+1]
		if orientation(a, b, p) == 0 && onSegment(a, b, p) {
			return true
		}
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			lon := a.Lon + (p.Lat-a.Lat)*(b.Lon-a.Lon)/(b.Lat-a.Lat)
			if p.Lon < lon {
				inside = !inside
			}
		}
	}
	return inside
}

// RingsIntersect reports whether two rings share any area: an edge of one
// crosses an edge of the other, or one ring lies entirely within the other.
// The test is symmetric in its arguments.
func RingsIntersect(a, b domain.Ring) bool {
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return RingContains(a, b[0]) || RingContains(b, a[0])
}

// DistanceNM returns the great-circle distance between two coordinates in
// nautical miles using the haversine formula.
func DistanceNM(a, b domain.LatLon) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusNM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func geometryReason(err error) string {
	if ge, ok := err.(domain.InvalidGeometryError); ok {
		return ge.Reason
	}
	return err.Error()
}

// orientation returns the turn direction of the triple (p, q, r): positive
// for counterclockwise, negative for clockwise, zero for collinear.
func orientation(p, q, r domain.LatLon) int {
	cross := (q.Lon-p.Lon)*(r.Lat-p.Lat) - (q.Lat-p.Lat)*(r.Lon-p.Lon)
	switch {
	case cross > 0:
		return 1
	case cross < 0:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether r, already known collinear with pq, lies within
// the segment's bounding box.
func onSegment(p, q, r domain.LatLon) bool {
	return math.Min(p.Lon, q.Lon) <= r.Lon && r.Lon <= math.Max(p.Lon, q.Lon) &&
		math.Min(p.Lat, q.Lat) <= r.Lat && r.Lat <= math.Max(p.Lat, q.Lat)
}

func segmentsIntersect(a1, a2, b1, b2 domain.LatLon) bool {
	o1 := orientation(a1, a2, b1)
	o2 := orientation(a1, a2, b2)
	o3 := orientation(b1, b2, a1)
	o4 := orientation(b1, b2, a2)
	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(a1, a2, b1) {
		return true
	}
	if o2 == 0 && onSegment(a1, a2, b2) {
		return true
	}
	if o3 == 0 && onSegment(b1, b2, a1) {
		return true
	}
	if o4 == 0 && onSegment(b1, b2, a2) {
		return true
	}
	return false
}
