// internal/domain/models/worker.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Worker duty states. Availability for new work is tracked separately by
// IsAvailable; Status describes the worker record itself.
const (
	WorkerActive   = "active"
	WorkerOnLeave  = "on_leave"
	WorkerInactive = "inactive"
)

// Worker is a field worker scoped to exactly one city, department and zone.
//
// AssignedCount is a cumulative workload counter. It only grows, and only
// inside an assignment transaction.
type Worker struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	UID          string             `bson:"uid" json:"uid"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	CityID       primitive.ObjectID `bson:"city_id" json:"city_id"`
	DepartmentID primitive.ObjectID `bson:"department_id" json:"department_id"`
	ZoneID       primitive.ObjectID `bson:"zone_id" json:"zone_id"`

	IsAvailable   bool    `bson:"is_available" json:"is_available"`
	AssignedCount int     `bson:"assigned_count" json:"assigned_count"`
	Rating        float64 `bson:"rating" json:"rating"`
	Status        string  `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WorkScope is the exact city/department/zone triple a worker must match to
// be a candidate for a complaint.
type WorkScope struct {
	CityID       primitive.ObjectID
	DepartmentID primitive.ObjectID
	ZoneID       primitive.ObjectID
}
