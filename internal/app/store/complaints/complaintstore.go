// internal/app/store/complaints/complaintstore.go
package complaintstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrTitleRequired = errors.New("complaint title is required")
	// ErrStatusChanged is returned by MarkInProgress when the complaint is no
	// longer in the expected status.
	ErrStatusChanged = errors.New("complaint status changed concurrently")
	// ErrAlreadyTagged is returned by AttachZone when the complaint already has a zone.
	ErrAlreadyTagged = errors.New("complaint already has a zone")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("complaints")}
}

// Collection exposes the underlying collection for read-only query builders.
func (s *Store) Collection() *mongo.Collection { return s.c }

// Create inserts a new OPEN complaint. When zone is non-nil its ID and city
// are copied onto the complaint as a one-time snapshot.
func (s *Store) Create(ctx context.Context, c models.Complaint, zone *models.Zone) (models.Complaint, error) {
	if strings.TrimSpace(c.Title) == "" {
		return models.Complaint{}, ErrTitleRequired
	}
	if c.Location.Type == "" {
		c.Location.Type = models.GeoPoint
	}

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Status = models.StatusOpen
	c.AssignedTo = nil
	c.ZoneID = nil
	c.CityID = nil
	if zone != nil {
		zid, cid := zone.ID, zone.CityID
		c.ZoneID = &zid
		c.CityID = &cid
	}
	c.Votes = []string{}
	c.History = []models.HistoryEntry{{
		Actor:     c.CreatedBy,
		Action:    models.ActionCreated,
		ToStatus:  models.StatusOpen,
		Timestamp: now,
	}}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Complaint{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Complaint, error) {
	var c models.Complaint
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Complaint{}, err
	}
	return c, nil
}

// MarkInProgress moves a complaint from `from` to IN_PROGRESS, records the
// worker and appends entry to the history. The status guard in the filter
// makes a concurrent transition surface as ErrStatusChanged instead of a
// double assignment. Callers run this inside the assignment transaction.
func (s *Store) MarkInProgress(ctx context.Context, id primitive.ObjectID, from models.ComplaintStatus, workerID primitive.ObjectID, entry models.HistoryEntry) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{
			"$set": bson.M{
				"status":      models.StatusInProgress,
				"assigned_to": workerID,
				"updated_at":  entry.Timestamp,
			},
			"$push": bson.M{"history": entry},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

// AttachZone tags an untagged complaint with a zone so it becomes assignable.
func (s *Store) AttachZone(ctx context.Context, id primitive.ObjectID, zone models.Zone, actor string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "zone_id": bson.M{"$exists": false}},
		bson.M{
			"$set": bson.M{
				"zone_id":    zone.ID,
				"city_id":    zone.CityID,
				"updated_at": now,
			},
			"$push": bson.M{"history": models.HistoryEntry{
				Actor:     actor,
				Action:    models.ActionZoneAttached,
				Note:      "zone " + zone.Name + " attached manually",
				Timestamp: now,
			}},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyTagged
	}
	return nil
}

// AppendHistory pushes one entry onto the complaint's history without
// touching its status. Returns mongo.ErrNoDocuments for an unknown id.
func (s *Store) AppendHistory(ctx context.Context, id primitive.ObjectID, entry models.HistoryEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"history": entry},
		"$set":  bson.M{"updated_at": entry.Timestamp},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Vote adds uid to the voter set. Returns false when uid had already voted.
func (s *Store) Vote(ctx context.Context, id primitive.ObjectID, uid string) (bool, error) {
	return s.changeVote(ctx, id, bson.M{"$addToSet": bson.M{"votes": uid}})
}

// Unvote removes uid from the voter set. Returns false when uid had not voted.
func (s *Store) Unvote(ctx context.Context, id primitive.ObjectID, uid string) (bool, error) {
	return s.changeVote(ctx, id, bson.M{"$pull": bson.M{"votes": uid}})
}

func (s *Store) changeVote(ctx context.Context, id primitive.ObjectID, update bson.M) (bool, error) {
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, mongo.ErrNoDocuments
	}
	return res.ModifiedCount == 1, nil
}

// Find runs a filtered query. Used by the direct mode of the query builder.
func (s *Store) Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]bson.M, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Aggregate runs a pipeline. Used by the pipeline mode of the query builder.
func (s *Store) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of complaints matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
