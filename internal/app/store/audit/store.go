// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAssignment = "assignment"
	CategoryAdmin      = "admin"
)

// Assignment actions
const (
	ActionComplaintAssigned = "complaint_assigned"
)

// Admin actions
const (
	ActionZoneCreated        = "zone_created"
	ActionZoneUpdated        = "zone_updated"
	ActionZoneDeleted        = "zone_deleted"
	ActionZoneAttached       = "zone_attached"
	ActionWorkerCreated      = "worker_created"
	ActionWorkerAvailability = "worker_availability_changed"
	ActionCityCreated        = "city_created"
)

// Event is an immutable record of one administrative action. The store
// exposes no update or delete path.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	Category string `bson:"category" json:"category"`
	Action   string `bson:"action" json:"action"`

	// Who
	Actor string `bson:"actor" json:"actor"` // UID of whoever performed the action
	Role  string `bson:"role" json:"role"`

	// What
	ComplaintID  *primitive.ObjectID `bson:"complaint_id,omitempty" json:"complaint_id,omitempty"`
	TargetUserID *primitive.ObjectID `bson:"target_user_id,omitempty" json:"target_user_id,omitempty"`

	// Action-specific values (e.g. selection mode, zone id)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
	// Request context (ip, user agent, request id)
	Meta map[string]string `bson:"meta,omitempty" json:"meta,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	Actor        string
	ComplaintID  *primitive.ObjectID
	TargetUserID *primitive.ObjectID
	Category     string
	Action       string
	StartTime    *time.Time
	EndTime      *time.Time
	Limit        int64
	Offset       int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) toBSON() bson.M {
	query := bson.M{}
	if f.Actor != "" {
		query["actor"] = f.Actor
	}
	if f.ComplaintID != nil {
		query["complaint_id"] = *f.ComplaintID
	}
	if f.TargetUserID != nil {
		query["target_user_id"] = *f.TargetUserID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Action != "" {
		query["action"] = f.Action
	}

	// Time range
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.toBSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.toBSON())
}

// GetByComplaint retrieves recent audit events for a complaint.
func (s *Store) GetByComplaint(ctx context.Context, complaintID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{ComplaintID: &complaintID, Limit: limit})
}

// GetByActor retrieves recent audit events performed by one actor.
func (s *Store) GetByActor(ctx context.Context, actor string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Actor: actor, Limit: limit})
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}
