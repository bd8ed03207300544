// internal/domain/models/city.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// City is the top-level administrative area. Its boundary bounds every zone
// created inside it.
type City struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"`
	Boundary Polygon            `bson:"boundary" json:"boundary"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
