package zones

import (
	"errors"
	"fmt"
	"testing"

	zonestore "github.com/dalemusser/cityfix/internal/app/store/zones"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/geo"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStoreErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Code
	}{
		{"zone missing", mongo.ErrNoDocuments, apperr.NotFound},
		{"city missing", zonestore.ErrCityNotFound, apperr.FailedPrecondition},
		{"outside city", fmt.Errorf("%w: %w", zonestore.ErrOutsideCity, geo.ErrNotContained), apperr.InvalidArgument},
		{"no name", zonestore.ErrNameRequired, apperr.InvalidArgument},
		{"bad polygon", fmt.Errorf("%w: ring 0 is not closed", geo.ErrInvalidPolygon), apperr.InvalidArgument},
		{"store down", errors.New("connection refused"), apperr.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.CodeOf(storeErr(tt.err)))
		})
	}
}

func TestStoreErr_OutsideCityMessage(t *testing.T) {
	err := storeErr(fmt.Errorf("%w: %w", zonestore.ErrOutsideCity, geo.ErrNotContained))
	assert.Equal(t, zonestore.ErrOutsideCity.Error(), apperr.MessageOf(err))
}
