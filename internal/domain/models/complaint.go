// internal/domain/models/complaint.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	StatusOpen       ComplaintStatus = "OPEN"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
	StatusReopened   ComplaintStatus = "REOPENED"
)

// AllStatuses lists every complaint status in display order.
var AllStatuses = []ComplaintStatus{StatusOpen, StatusInProgress, StatusResolved, StatusReopened}

// PendingAssignStatuses are the states from which a complaint may be assigned.
var PendingAssignStatuses = []ComplaintStatus{StatusOpen, StatusReopened}

// Assignable reports whether a complaint in this state may be handed to a worker.
func (s ComplaintStatus) Assignable() bool {
	return s == StatusOpen || s == StatusReopened
}

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// History actions.
const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionZoneAttached  = "zone_attached"
	ActionNoteAdded     = "note_added"
)

// HistoryEntry is one append-only record in a complaint's own log.
type HistoryEntry struct {
	Actor      string          `bson:"actor" json:"actor"`
	Action     string          `bson:"action" json:"action"`
	FromStatus ComplaintStatus `bson:"from_status,omitempty" json:"from_status,omitempty"`
	ToStatus   ComplaintStatus `bson:"to_status,omitempty" json:"to_status,omitempty"`
	Note       string          `bson:"note,omitempty" json:"note,omitempty"`
	Timestamp  time.Time       `bson:"timestamp" json:"timestamp"`
}

// Attachment references a file held by the storage collaborator.
type Attachment struct {
	URL         string `bson:"url" json:"url"`
	ContentType string `bson:"content_type,omitempty" json:"content_type,omitempty"`
}

// Complaint is a geolocated report filed by a citizen.
//
// ZoneID and CityID are snapshots taken at creation. They are never
// retagged when a zone's boundary changes, and ZoneID may dangle after the
// zone is deleted. Votes is a set of voter UIDs; the vote count is derived.
type Complaint struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Title         string              `bson:"title" json:"title"`
	Description   string              `bson:"description" json:"description"`
	Location      Point               `bson:"location" json:"location"`
	Address       string              `bson:"address,omitempty" json:"address,omitempty"`
	DepartmentID  primitive.ObjectID  `bson:"department_id" json:"department_id"`
	ZoneID        *primitive.ObjectID `bson:"zone_id,omitempty" json:"zone_id,omitempty"`
	CityID        *primitive.ObjectID `bson:"city_id,omitempty" json:"city_id,omitempty"`
	Status        ComplaintStatus     `bson:"status" json:"status"`
	CreatedBy     string              `bson:"created_by" json:"created_by"`
	ReporterEmail string              `bson:"reporter_email,omitempty" json:"reporter_email,omitempty"`
	AssignedTo    *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Votes         []string            `bson:"votes" json:"votes"`
	History       []HistoryEntry      `bson:"history" json:"history"`
	Attachments   []Attachment        `bson:"attachments,omitempty" json:"attachments,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// VoteCount is the number of distinct voters.
func (c Complaint) VoteCount() int { return len(c.Votes) }
