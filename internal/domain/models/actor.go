// internal/domain/models/actor.go
package models

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role identifies what an authenticated actor may do.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleWorker    Role = "worker"
	RoleDeptAdmin Role = "dept_admin"
	RoleCityAdmin Role = "city_admin"
)

var (
	ErrUnknownRole   = errors.New("unknown role")
	ErrScopeRequired = errors.New("role requires a city or department scope")
)

// Actor is the identity supplied by the upstream identity service. One record
// type serves every role; Scope only carries what the role needs.
type Actor struct {
	UID   string
	Email string
	Role  Role
	Scope Scope
}

// Scope is the administrative reach of an actor. Citizens have none, city
// admins carry a city, department admins and workers carry both.
type Scope struct {
	CityID       *primitive.ObjectID
	DepartmentID *primitive.ObjectID
}

// NewActor validates that the scope matches the role and drops anything the
// role does not use.
func NewActor(uid, email string, role Role, cityID, deptID *primitive.ObjectID) (Actor, error) {
	a := Actor{UID: uid, Email: email, Role: role}
	switch role {
	case RoleCitizen:
	case RoleCityAdmin:
		if cityID == nil {
			return Actor{}, ErrScopeRequired
		}
		a.Scope.CityID = cityID
	case RoleDeptAdmin, RoleWorker:
		if cityID == nil || deptID == nil {
			return Actor{}, ErrScopeRequired
		}
		a.Scope.CityID = cityID
		a.Scope.DepartmentID = deptID
	default:
		return Actor{}, ErrUnknownRole
	}
	return a, nil
}

// IsAdmin reports whether the actor administers a city or department.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleCityAdmin || a.Role == RoleDeptAdmin
}

// CanManage reports whether the actor administers records of the given city
// and department. A city admin without a city is the System actor.
func (a Actor) CanManage(cityID *primitive.ObjectID, deptID primitive.ObjectID) bool {
	switch a.Role {
	case RoleCityAdmin:
		if a.Scope.CityID == nil {
			return true
		}
		return cityID != nil && *cityID == *a.Scope.CityID
	case RoleDeptAdmin:
		if a.Scope.DepartmentID == nil || *a.Scope.DepartmentID != deptID {
			return false
		}
		return cityID == nil || a.Scope.CityID == nil || *cityID == *a.Scope.CityID
	}
	return false
}

// System is the actor recorded for work the service performs on its own.
var System = Actor{UID: "system", Role: RoleCityAdmin}
