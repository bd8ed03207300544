// internal/app/features/complaints/types.go
package complaints

import (
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

type locationInput struct {
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
}

type attachmentInput struct {
	URL         string `json:"url" validate:"required,url"`
	ContentType string `json:"content_type,omitempty" validate:"omitempty,max=100"`
}

type createRequest struct {
	Title        string            `json:"title" validate:"notblank,max=200"`
	Description  string            `json:"description" validate:"max=5000"`
	Address      string            `json:"address,omitempty" validate:"omitempty,max=500"`
	DepartmentID string            `json:"department_id" validate:"required,objectid"`
	CityID       string            `json:"city_id,omitempty" validate:"omitempty,objectid"`
	Location     *locationInput    `json:"location" validate:"required"`
	Attachments  []attachmentInput `json:"attachments,omitempty" validate:"max=10,dive"`
}

type assignRequest struct {
	WorkerID string `json:"worker_id,omitempty" validate:"omitempty,objectid"`
}

type attachZoneRequest struct {
	ZoneID string `json:"zone_id" validate:"required,objectid"`
}

type noteRequest struct {
	Note string `json:"note" validate:"notblank,max=1000"`
}

type listResponse struct {
	Items []bson.M `json:"items"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Total int64    `json:"total"`
}

type voteResponse struct {
	Changed   bool `json:"changed"`
	VoteCount int  `json:"vote_count"`
}

type candidatesResponse struct {
	Candidates []models.Worker `json:"candidates"`
}
