// internal/app/features/zones/types.go
package zones

import (
	"github.com/dalemusser/cityfix/internal/app/system/paging"
	"github.com/dalemusser/cityfix/internal/domain/models"
)

// polygonInput is a GeoJSON polygon as sent by clients.
type polygonInput struct {
	Type        string         `json:"type" validate:"omitempty,eq=Polygon"`
	Coordinates [][][2]float64 `json:"coordinates" validate:"required,min=1"`
}

func (p polygonInput) model() models.Polygon {
	return models.NewPolygon(p.Coordinates...)
}

type createRequest struct {
	Name         string        `json:"name" validate:"notblank,max=200"`
	CityID       string        `json:"city_id" validate:"required,objectid"`
	DepartmentID string        `json:"department_id" validate:"required,objectid"`
	Color        string        `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Boundary     *polygonInput `json:"boundary" validate:"required"`
}

type updateRequest struct {
	Name     string        `json:"name,omitempty" validate:"omitempty,max=200"`
	Color    string        `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Boundary *polygonInput `json:"boundary,omitempty"`
}

type listResponse struct {
	Zones      []models.Zone `json:"zones"`
	PrevCursor string        `json:"prev_cursor,omitempty"`
	NextCursor string        `json:"next_cursor,omitempty"`
	paging.Result
}

type resolveResponse struct {
	Zone *models.Zone `json:"zone"`
}
