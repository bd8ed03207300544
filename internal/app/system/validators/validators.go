// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/cityfix/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. Deployments without collMod/validator support are logged and
// skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("cities", citiesSchema())
	ensure("zones", zonesSchema())
	ensure("workers", workersSchema())
	ensure("complaints", complaintsSchema())

	// append-only; written by the audit logger, no validator
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func polygonSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"type", "coordinates"},
		"properties": bson.M{
			"type":        bson.M{"enum": bson.A{models.GeoPolygon}},
			"coordinates": bson.M{"bsonType": "array", "minItems": 1},
		},
	}
}

func pointSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"type", "coordinates"},
		"properties": bson.M{
			"type":        bson.M{"enum": bson.A{models.GeoPoint}},
			"coordinates": bson.M{"bsonType": "array", "minItems": 2, "maxItems": 2},
		},
	}
}

func citiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "boundary"},
			"properties": bson.M{
				"name":     nonBlank,
				"name_ci":  nonBlank,
				"boundary": polygonSchema(),
			},
		},
	}
}

func zonesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "city_id", "department_id", "boundary", "created_at"},
			"properties": bson.M{
				"name":          nonBlank,
				"city_id":       bson.M{"bsonType": "objectId"},
				"department_id": bson.M{"bsonType": "objectId"},
				"boundary":      polygonSchema(),
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func workersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"uid", "full_name", "city_id", "department_id", "zone_id", "is_available", "assigned_count", "rating", "status"},
			"properties": bson.M{
				"uid":            nonBlank,
				"full_name":      nonBlank,
				"city_id":        bson.M{"bsonType": "objectId"},
				"department_id":  bson.M{"bsonType": "objectId"},
				"zone_id":        bson.M{"bsonType": "objectId"},
				"is_available":   bson.M{"bsonType": "bool"},
				"assigned_count": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"rating":         bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0, "maximum": 5},
				"status":         bson.M{"enum": bson.A{models.WorkerActive, models.WorkerOnLeave, models.WorkerInactive}},
			},
		},
	}
}

func complaintsSchema() bson.M {
	statuses := bson.A{}
	for _, s := range models.AllStatuses {
		statuses = append(statuses, string(s))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "location", "department_id", "status", "created_by", "votes", "history", "created_at"},
			"properties": bson.M{
				"title":         nonBlank,
				"location":      pointSchema(),
				"department_id": bson.M{"bsonType": "objectId"},
				"zone_id":       bson.M{"bsonType": "objectId"},
				"city_id":       bson.M{"bsonType": "objectId"},
				"assigned_to":   bson.M{"bsonType": "objectId"},
				"status":        bson.M{"enum": statuses},
				"created_by":    nonBlank,
				"votes":         bson.M{"bsonType": "array", "uniqueItems": true, "items": bson.M{"bsonType": "string"}},
				"history":       bson.M{"bsonType": "array"},
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}
