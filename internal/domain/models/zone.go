// internal/domain/models/zone.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Zone is a polygonal sub-region of a city owned by one department.
// Complaints filed inside it are routed to the zone's workers.
//
// Zones are allowed to overlap at the storage level; resolution picks the
// earliest created match.
type Zone struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"name_ci"`
	CityID       primitive.ObjectID `bson:"city_id" json:"city_id"`
	DepartmentID primitive.ObjectID `bson:"department_id" json:"department_id"`
	Boundary     Polygon            `bson:"boundary" json:"boundary"`
	Color        string             `bson:"color,omitempty" json:"color,omitempty"`
	CreatedBy    string             `bson:"created_by" json:"created_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
