// internal/app/store/zones/zonestore.go
package zonestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/cityfix/internal/app/system/geo"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrOutsideCity is returned when a zone boundary leaves its city's boundary.
	ErrOutsideCity = errors.New("zone boundary is not contained in the city boundary")
	// ErrCityNotFound is returned when the owning city does not exist.
	ErrCityNotFound = errors.New("city not found")
	ErrNameRequired = errors.New("zone name is required")
)

// resolveOrder is the deterministic order used whenever several zones match.
var resolveOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

type Store struct {
	c      *mongo.Collection
	cities *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("zones"),
		cities: db.Collection("cities"),
	}
}

// Create validates the boundary against the owning city and inserts the zone.
// Nothing is written when validation fails.
func (s *Store) Create(ctx context.Context, z models.Zone) (models.Zone, error) {
	if strings.TrimSpace(z.Name) == "" {
		return models.Zone{}, ErrNameRequired
	}
	if z.Boundary.Type == "" {
		z.Boundary.Type = models.GeoPolygon
	}
	if err := s.checkBoundary(ctx, z.CityID, z.Boundary); err != nil {
		return models.Zone{}, err
	}

	now := time.Now().UTC()
	z.ID = primitive.NewObjectID()
	z.NameCI = text.Fold(z.Name)
	z.CreatedAt = now
	z.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, z); err != nil {
		return models.Zone{}, err
	}
	return z, nil
}

// Update changes name, color and, when boundary is non-nil, the boundary.
// A new boundary is validated the same way as on Create. Complaints already
// tagged with this zone are not retagged.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, color string, boundary *models.Polygon) (models.Zone, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Zone{}, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	// Color can be cleared (set to empty)
	set["color"] = color
	if boundary != nil {
		if boundary.Type == "" {
			boundary.Type = models.GeoPolygon
		}
		if err := s.checkBoundary(ctx, cur.CityID, *boundary); err != nil {
			return models.Zone{}, err
		}
		set["boundary"] = *boundary
	}

	if _, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		return models.Zone{}, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a zone by ID. Complaints keep their zone_id.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Zone, error) {
	var z models.Zone
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&z); err != nil {
		return models.Zone{}, err
	}
	return z, nil
}

// ListByDepartment returns a department's zones, optionally limited to one city.
func (s *Store) ListByDepartment(ctx context.Context, deptID primitive.ObjectID, cityID *primitive.ObjectID) ([]models.Zone, error) {
	filter := bson.M{"department_id": deptID}
	if cityID != nil {
		filter["city_id"] = *cityID
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Zone
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindContaining returns every department zone whose boundary contains pt,
// earliest created first (ties broken by _id). Relies on the 2dsphere index
// on boundary.
func (s *Store) FindContaining(ctx context.Context, pt models.Point, deptID primitive.ObjectID, cityID *primitive.ObjectID) ([]models.Zone, error) {
	if pt.Type == "" {
		pt.Type = models.GeoPoint
	}
	filter := bson.M{
		"department_id": deptID,
		"boundary": bson.M{
			"$geoIntersects": bson.M{"$geometry": pt},
		},
	}
	if cityID != nil {
		filter["city_id"] = *cityID
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(resolveOrder))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Zone
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) checkBoundary(ctx context.Context, cityID primitive.ObjectID, boundary models.Polygon) error {
	if err := geo.ValidatePolygon(boundary); err != nil {
		return err
	}
	var city struct {
		Boundary models.Polygon `bson:"boundary"`
	}
	err := s.cities.FindOne(ctx, bson.M{"_id": cityID},
		options.FindOne().SetProjection(bson.M{"boundary": 1})).Decode(&city)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrCityNotFound
	}
	if err != nil {
		return fmt.Errorf("load city boundary: %w", err)
	}
	if err := geo.CheckContained(city.Boundary, boundary); err != nil {
		return fmt.Errorf("%w: %w", ErrOutsideCity, err)
	}
	return nil
}
