// internal/app/system/geo/geo.go
package geo

import (
	"errors"
	"fmt"

	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Coordinate bounds.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

var (
	ErrInvalidPoint   = errors.New("invalid point")
	ErrInvalidPolygon = errors.New("invalid polygon")
	ErrNotContained   = errors.New("polygon is not contained in parent boundary")
)

// ValidatePoint checks the coordinate ranges of a GeoJSON point.
func ValidatePoint(p models.Point) error {
	lng, lat := p.Lng(), p.Lat()
	if lat < MinLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: latitude must be between %.0f and %.0f, got %f",
			ErrInvalidPoint, MinLatitude, MaxLatitude, lat)
	}
	if lng < MinLongitude || lng > MaxLongitude {
		return fmt.Errorf("%w: longitude must be between %.0f and %.0f, got %f",
			ErrInvalidPoint, MinLongitude, MaxLongitude, lng)
	}
	return nil
}

// ToOrb converts a stored polygon into orb's representation.
func ToOrb(p models.Polygon) orb.Polygon {
	out := make(orb.Polygon, 0, len(p.Coordinates))
	for _, ring := range p.Coordinates {
		r := make(orb.Ring, 0, len(ring))
		for _, c := range ring {
			r = append(r, orb.Point{c[0], c[1]})
		}
		out = append(out, r)
	}
	return out
}

// ValidatePolygon checks that every ring is closed, has at least four
// vertices, stays inside coordinate ranges, encloses a non-zero area and does
// not cross itself.
func ValidatePolygon(p models.Polygon) error {
	if p.Type != "" && p.Type != models.GeoPolygon {
		return fmt.Errorf("%w: type must be %q, got %q", ErrInvalidPolygon, models.GeoPolygon, p.Type)
	}
	if len(p.Coordinates) == 0 {
		return fmt.Errorf("%w: no rings", ErrInvalidPolygon)
	}
	for i, ring := range ToOrb(p) {
		if len(ring) < 4 {
			return fmt.Errorf("%w: ring %d has %d vertices, need at least 4", ErrInvalidPolygon, i, len(ring))
		}
		if !ring.Closed() {
			return fmt.Errorf("%w: ring %d is not closed", ErrInvalidPolygon, i)
		}
		for _, pt := range ring {
			if err := ValidatePoint(models.NewPoint(pt[0], pt[1])); err != nil {
				return fmt.Errorf("%w: ring %d: %v", ErrInvalidPolygon, i, err)
			}
		}
		if planar.Area(ring) == 0 {
			return fmt.Errorf("%w: ring %d has zero area", ErrInvalidPolygon, i)
		}
		if selfIntersects(ring) {
			return fmt.Errorf("%w: ring %d crosses itself", ErrInvalidPolygon, i)
		}
	}
	return nil
}

// Contains reports whether the point lies inside the polygon. Points on the
// boundary count as inside, matching $geoIntersects.
func Contains(poly models.Polygon, p models.Point) bool {
	op := ToOrb(poly)
	if len(op) == 0 {
		return false
	}
	return planar.PolygonContains(op, orb.Point{p.Lng(), p.Lat()})
}

// ContainsPolygon reports whether inner lies fully inside outer. Shared
// border segments are allowed, including edges of outer's holes. Any proper
// edge crossing fails, as does any inner vertex outside outer or any vertex
// of outer strictly inside inner.
func ContainsPolygon(outer, inner models.Polygon) bool {
	o := ToOrb(outer)
	in := ToOrb(inner)
	if len(o) == 0 || len(in) == 0 {
		return false
	}
	if !o.Bound().Contains(in.Bound().Min) || !o.Bound().Contains(in.Bound().Max) {
		return false
	}
	for i, pt := range in[0] {
		if !coveredBy(o, pt) {
			return false
		}
		// edges that slip out through a reflex vertex of outer
		if i > 0 {
			mid := orb.Point{(pt[0] + in[0][i-1][0]) / 2, (pt[1] + in[0][i-1][1]) / 2}
			if !coveredBy(o, mid) {
				return false
			}
		}
	}
	for _, oring := range o {
		if ringsCross(oring, in[0]) {
			return false
		}
	}
	// A reflex vertex of outer poking into inner only touches inner's edges,
	// so neither the vertex nor the crossing checks above see it.
	for _, oring := range o {
		for _, v := range oring {
			if planar.RingContains(in[0], v) && !onRing(in[0], v) {
				return false
			}
		}
	}
	// A hole of the outer polygon sitting wholly inside the inner ring would
	// pass the vertex and crossing checks above.
	for _, hole := range o[1:] {
		if len(hole) > 0 && planar.RingContains(in[0], hole[0]) && !onRing(in[0], hole[0]) {
			return false
		}
	}
	return true
}

// CheckContained returns ErrNotContained when inner is not inside outer.
func CheckContained(outer, inner models.Polygon) error {
	if !ContainsPolygon(outer, inner) {
		return ErrNotContained
	}
	return nil
}

// coveredBy is PolygonContains with hole borders counted as part of the
// polygon, so a zone may run along a hole's edge.
func coveredBy(p orb.Polygon, pt orb.Point) bool {
	if !planar.RingContains(p[0], pt) {
		return false
	}
	for _, hole := range p[1:] {
		if planar.RingContains(hole, pt) && !onRing(hole, pt) {
			return false
		}
	}
	return true
}

func selfIntersects(r orb.Ring) bool {
	n := len(r) - 1 // closed: last == first
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// adjacent edges share a vertex; first and last edge too
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}

// ringsCross reports a proper crossing between any edge of a and any edge of b.
// Touching at a vertex or overlapping collinear edges is not a crossing.
func ringsCross(a, b orb.Ring) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if properCross(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func onRing(r orb.Ring, p orb.Point) bool {
	for i := 0; i+1 < len(r); i++ {
		if orient(r[i], r[i+1], p) == 0 && onSegment(r[i], p, r[i+1]) {
			return true
		}
	}
	return false
}

func orient(a, b, c orb.Point) int {
	v := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// onSegment assumes a, p, b are collinear.
func onSegment(a, p, b orb.Point) bool {
	return p[0] >= min(a[0], b[0]) && p[0] <= max(a[0], b[0]) &&
		p[1] >= min(a[1], b[1]) && p[1] <= max(a[1], b[1])
}

func properCross(p1, p2, q1, q2 orb.Point) bool {
	o1 := orient(p1, p2, q1)
	o2 := orient(p1, p2, q2)
	o3 := orient(q1, q2, p1)
	o4 := orient(q1, q2, p2)
	return o1*o2 < 0 && o3*o4 < 0
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	o1 := orient(p1, p2, q1)
	o2 := orient(p1, p2, q2)
	o3 := orient(q1, q2, p1)
	o4 := orient(q1, q2, p2)
	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	return (o1 == 0 && onSegment(p1, q1, p2)) ||
		(o2 == 0 && onSegment(p1, q2, p2)) ||
		(o3 == 0 && onSegment(q1, p1, q2)) ||
		(o4 == 0 && onSegment(q1, p2, q2))
}
