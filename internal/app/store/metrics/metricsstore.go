package metricsstore

import (
	"context"

	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Counts is the headline summary of one city.
type Counts struct {
	Zones            int64 `json:"zones"`
	Workers          int64 `json:"workers"`
	AvailableWorkers int64 `json:"available_workers"`
	Complaints       int64 `json:"complaints"`
	UnresolvedCount  int64 `json:"unresolved_complaints"`
	UntaggedCount    int64 `json:"untagged_complaints"`
}

// FetchCityCounts returns the headline counts for a city.
// Intentionally tolerant: on error it logs and returns 0 for that counter.
func FetchCityCounts(ctx context.Context, db *mongo.Database, cityID primitive.ObjectID, log *zap.Logger) Counts {
	var out Counts

	count := func(coll string, filter bson.M, dst *int64) {
		n, err := db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			log.Warn("city count failed",
				zap.String("collection", coll),
				zap.String("city_id", cityID.Hex()),
				zap.Error(err))
			return
		}
		*dst = n
	}

	count("zones", bson.M{"city_id": cityID}, &out.Zones)
	count("workers", bson.M{"city_id": cityID}, &out.Workers)
	count("workers", bson.M{"city_id": cityID, "is_available": true, "status": models.WorkerActive}, &out.AvailableWorkers)
	count("complaints", bson.M{"city_id": cityID}, &out.Complaints)
	count("complaints", bson.M{"city_id": cityID, "status": bson.M{"$ne": models.StatusResolved}}, &out.UnresolvedCount)

	// Untagged complaints carry no city; count those whose point falls
	// inside the city boundary.
	var city models.City
	if err := db.Collection("cities").FindOne(ctx, bson.M{"_id": cityID}).Decode(&city); err == nil {
		count("complaints", bson.M{
			"zone_id":  nil,
			"location": bson.M{"$geoWithin": bson.M{"$geometry": city.Boundary}},
		}, &out.UntaggedCount)
	}

	return out
}
