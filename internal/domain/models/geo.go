// internal/domain/models/geo.go
package models

// GeoJSON type names stored alongside coordinates so 2dsphere indexes accept them.
const (
	GeoPoint   = "Point"
	GeoPolygon = "Polygon"
)

// Point is a GeoJSON point. Coordinates are [longitude, latitude].
type Point struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

// NewPoint builds a GeoJSON point from longitude and latitude.
func NewPoint(lng, lat float64) Point {
	return Point{Type: GeoPoint, Coordinates: [2]float64{lng, lat}}
}

func (p Point) Lng() float64 { return p.Coordinates[0] }
func (p Point) Lat() float64 { return p.Coordinates[1] }

// Polygon is a GeoJSON polygon. The first ring is the outer boundary and any
// further rings are holes. Each ring is closed (first vertex == last vertex).
type Polygon struct {
	Type        string         `bson:"type" json:"type"`
	Coordinates [][][2]float64 `bson:"coordinates" json:"coordinates"`
}

// NewPolygon wraps rings in a GeoJSON polygon.
func NewPolygon(rings ...[][2]float64) Polygon {
	return Polygon{Type: GeoPolygon, Coordinates: rings}
}
