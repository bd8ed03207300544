// internal/app/system/querybuilder/schema.go
package querybuilder

import (
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind is the value type of a filterable field.
type Kind int

const (
	KindString Kind = iota
	KindObjectID
	KindStatus
	KindTime
	KindFloat
	KindInt
	KindBool
)

// Field describes one allow-listed query key.
type Field struct {
	Path       string // stored document path
	Kind       Kind
	Filter     bool // key=value equality
	Range      bool // gte/gt/lte/lt suffixes
	Sortable   bool
	Selectable bool
}

// Schema is the allow-list for one collection. Keys not in Fields are
// rejected. Keys are the external names used in query strings.
type Schema struct {
	Fields map[string]Field
	// Search lists the paths matched by the search parameter.
	Search []string
	// Internal paths are hidden unless explicitly selected.
	Internal []string
	// DefaultSort applies when no sort is given.
	DefaultSort string
}

// ComplaintSchema is the allow-list for complaint listings.
var ComplaintSchema = &Schema{
	Fields: map[string]Field{
		"title":          {Path: "title", Kind: KindString, Sortable: true, Selectable: true},
		"description":    {Path: "description", Kind: KindString, Selectable: true},
		"address":        {Path: "address", Kind: KindString, Selectable: true},
		"location":       {Path: "location", Selectable: true},
		"status":         {Path: "status", Kind: KindStatus, Filter: true, Sortable: true, Selectable: true},
		"department_id":  {Path: "department_id", Kind: KindObjectID, Filter: true, Selectable: true},
		"zone_id":        {Path: "zone_id", Kind: KindObjectID, Filter: true, Selectable: true},
		"city_id":        {Path: "city_id", Kind: KindObjectID, Filter: true, Selectable: true},
		"assigned_to":    {Path: "assigned_to", Kind: KindObjectID, Filter: true, Selectable: true},
		"created_by":     {Path: "created_by", Kind: KindString, Filter: true, Selectable: true},
		"votes":          {Path: "votes", Selectable: true},
		"attachments":    {Path: "attachments", Selectable: true},
		"history":        {Path: "history", Selectable: true},
		"reporter_email": {Path: "reporter_email", Selectable: true},
		"created_at":     {Path: "created_at", Kind: KindTime, Filter: true, Range: true, Sortable: true, Selectable: true},
		"updated_at":     {Path: "updated_at", Kind: KindTime, Filter: true, Range: true, Sortable: true, Selectable: true},
	},
	Search:      []string{"title", "description", "address"},
	Internal:    []string{"history", "reporter_email"},
	DefaultSort: "-created_at",
}

// WorkerSchema is the allow-list for worker listings.
var WorkerSchema = &Schema{
	Fields: map[string]Field{
		"full_name":      {Path: "full_name", Kind: KindString, Sortable: true, Selectable: true},
		"email":          {Path: "email", Kind: KindString, Filter: true, Selectable: true},
		"zone_id":        {Path: "zone_id", Kind: KindObjectID, Filter: true, Selectable: true},
		"department_id":  {Path: "department_id", Kind: KindObjectID, Filter: true, Selectable: true},
		"city_id":        {Path: "city_id", Kind: KindObjectID, Filter: true, Selectable: true},
		"is_available":   {Path: "is_available", Kind: KindBool, Filter: true, Selectable: true},
		"status":         {Path: "status", Kind: KindString, Filter: true, Selectable: true},
		"rating":         {Path: "rating", Kind: KindFloat, Filter: true, Range: true, Sortable: true, Selectable: true},
		"assigned_count": {Path: "assigned_count", Kind: KindInt, Filter: true, Range: true, Sortable: true, Selectable: true},
		"uid":            {Path: "uid", Selectable: true},
		"created_at":     {Path: "created_at", Kind: KindTime, Range: true, Sortable: true, Selectable: true},
	},
	Search:      []string{"full_name", "email"},
	Internal:    []string{"uid"},
	DefaultSort: "full_name",
}

// parseValue converts raw to the field's type.
func parseValue(f Field, raw string) (any, bool) {
	switch f.Kind {
	case KindObjectID:
		id, err := primitive.ObjectIDFromHex(raw)
		return id, err == nil
	case KindStatus:
		s := models.ComplaintStatus(strings.ToUpper(raw))
		return s, s.Valid()
	case KindTime:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), true
			}
		}
		return nil, false
	case KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		return v, err == nil
	case KindInt:
		v, err := strconv.Atoi(raw)
		return v, err == nil
	case KindBool:
		v, err := strconv.ParseBool(raw)
		return v, err == nil
	default:
		return raw, true
	}
}
