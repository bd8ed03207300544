// internal/app/store/cities/citystore.go
package citystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/cityfix/internal/app/system/geo"
	"github.com/dalemusser/cityfix/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateCityName = errors.New("a city with this name already exists")
	ErrNameRequired      = errors.New("city name is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cities")}
}

// Create validates the boundary and inserts the city.
func (s *Store) Create(ctx context.Context, c models.City) (models.City, error) {
	if strings.TrimSpace(c.Name) == "" {
		return models.City{}, ErrNameRequired
	}
	if c.Boundary.Type == "" {
		c.Boundary.Type = models.GeoPolygon
	}
	if err := geo.ValidatePolygon(c.Boundary); err != nil {
		return models.City{}, fmt.Errorf("city boundary: %w", err)
	}

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.City{}, ErrDuplicateCityName
		}
		return models.City{}, err
	}
	return c, nil
}

// GetByID returns mongo.ErrNoDocuments when the city does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.City, error) {
	var c models.City
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.City{}, err
	}
	return c, nil
}

// Boundary loads only the boundary of a city.
func (s *Store) Boundary(ctx context.Context, id primitive.ObjectID) (models.Polygon, error) {
	var doc struct {
		Boundary models.Polygon `bson:"boundary"`
	}
	opts := options.FindOne().SetProjection(bson.M{"boundary": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		return models.Polygon{}, err
	}
	return doc.Boundary, nil
}

// List returns all cities ordered by folded name.
func (s *Store) List(ctx context.Context) ([]models.City, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.City
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
