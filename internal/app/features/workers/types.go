// internal/app/features/workers/types.go
package workers

import "go.mongodb.org/mongo-driver/bson"

type createRequest struct {
	UID         string  `json:"uid" validate:"notblank,max=128"`
	FullName    string  `json:"full_name" validate:"notblank,max=200"`
	Email       string  `json:"email,omitempty" validate:"omitempty,email"`
	ZoneID      string  `json:"zone_id" validate:"required,objectid"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	IsAvailable *bool   `json:"is_available,omitempty"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=active on_leave inactive"`
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active on_leave inactive"`
}

type listResponse struct {
	Items []bson.M `json:"items"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Total int64    `json:"total"`
}
