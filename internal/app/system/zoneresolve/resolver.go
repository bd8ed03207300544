// Package zoneresolve maps a reported location to the zone that owns it.
package zoneresolve

import (
	"bytes"
	"context"
	"sort"

	"github.com/dalemusser/cityfix/internal/app/system/geo"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ZoneFinder returns the zones of a department whose boundary contains pt.
// *zonestore.Store satisfies it.
type ZoneFinder interface {
	FindContaining(ctx context.Context, pt models.Point, deptID primitive.ObjectID, cityID *primitive.ObjectID) ([]models.Zone, error)
}

// Resolver resolves points to zones.
type Resolver struct {
	zones ZoneFinder
	log   *zap.Logger
}

// New creates a Resolver.
func New(zones ZoneFinder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{zones: zones, log: logger}
}

// Resolve returns the zone of deptID containing pt, or nil when the point is
// in no zone. Overlapping zones resolve to the oldest one, then the lowest
// id; the overlap is logged so an admin can fix the geometry.
func (r *Resolver) Resolve(ctx context.Context, pt models.Point, deptID primitive.ObjectID, cityID *primitive.ObjectID) (*models.Zone, error) {
	if err := geo.ValidatePoint(pt); err != nil {
		return nil, err
	}
	matches, err := r.zones.FindContaining(ctx, pt, deptID, cityID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		sort.SliceStable(matches, func(i, j int) bool { return before(matches[i], matches[j]) })
		ids := make([]string, len(matches))
		for i, z := range matches {
			ids[i] = z.ID.Hex()
		}
		r.log.Warn("point matches overlapping zones",
			zap.Float64("lng", pt.Lng()),
			zap.Float64("lat", pt.Lat()),
			zap.String("department_id", deptID.Hex()),
			zap.Strings("zone_ids", ids),
			zap.String("chosen", ids[0]))
	}
	z := matches[0]
	return &z, nil
}

// before orders zones the way the store index does: created_at, then _id.
func before(a, b models.Zone) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
