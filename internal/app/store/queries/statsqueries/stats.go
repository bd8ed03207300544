// Package statsqueries computes the read-only department dashboard.
//
// The five sections are independent aggregations run concurrently; the
// slowest one bounds the response time, none waits on another.
package statsqueries

import (
	"context"
	"math"
	"time"

	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// DefaultTopN is used when topN <= 0.
const DefaultTopN = 5

// Scope selects one department, optionally narrowed to one city.
type Scope struct {
	DepartmentID primitive.ObjectID
	CityID       *primitive.ObjectID
}

func (s Scope) match() bson.M {
	m := bson.M{"department_id": s.DepartmentID}
	if s.CityID != nil {
		m["city_id"] = *s.CityID
	}
	return m
}

// ZoneWorkforce is the worker count and mean rating of one zone.
type ZoneWorkforce struct {
	ZoneID    primitive.ObjectID `bson:"_id" json:"zone_id"`
	ZoneName  string             `bson:"zone_name" json:"zone_name"`
	Workers   int64              `bson:"workers" json:"workers"`
	AvgRating float64            `bson:"avg_rating" json:"avg_rating"`
}

// Workforce rolls the per-zone figures up to the department.
type Workforce struct {
	TotalWorkers int64           `json:"total_workers"`
	AvgRating    float64         `json:"avg_rating"`
	ByZone       []ZoneWorkforce `json:"by_zone"`
}

// StatusCount is one row of the status breakdown.
type StatusCount struct {
	Status     models.ComplaintStatus `json:"status"`
	Count      int64                  `json:"count"`
	Percentage float64                `json:"percentage"`
}

// StatusBreakdown lists every status, zero-filled. Total is the sum of counts.
type StatusBreakdown struct {
	Total    int64         `json:"total_complaints"`
	ByStatus []StatusCount `json:"by_status"`
}

// TopComplaint is a complaint ranked by votes.
type TopComplaint struct {
	ID        primitive.ObjectID     `bson:"_id" json:"id"`
	Title     string                 `bson:"title" json:"title"`
	Status    models.ComplaintStatus `bson:"status" json:"status"`
	VoteCount int64                  `bson:"vote_count" json:"vote_count"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// TopWorker is a worker ranked by rating.
type TopWorker struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	FullName      string             `bson:"full_name" json:"full_name"`
	ZoneID        primitive.ObjectID `bson:"zone_id" json:"zone_id"`
	Rating        float64            `bson:"rating" json:"rating"`
	AssignedCount int64              `bson:"assigned_count" json:"assigned_count"`
}

// ZoneLoad is a zone ranked by unresolved complaints.
type ZoneLoad struct {
	ZoneID         primitive.ObjectID `bson:"_id" json:"zone_id"`
	ZoneName       string             `bson:"zone_name" json:"zone_name"`
	OpenComplaints int64              `bson:"open_complaints" json:"open_complaints"`
	Workers        int64              `bson:"workers" json:"workers"`
}

// Stats is the full dashboard.
type Stats struct {
	Workforce     Workforce       `json:"workforce"`
	Status        StatusBreakdown `json:"status"`
	TopComplaints []TopComplaint  `json:"top_complaints"`
	TopWorkers    []TopWorker     `json:"top_workers"`
	BusiestZones  []ZoneLoad      `json:"busiest_zones"`
}

// Fetch runs the five computations concurrently. The first failure cancels
// the others and is returned.
func Fetch(ctx context.Context, db *mongo.Database, scope Scope, topN int) (Stats, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	var out Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.Workforce, err = FetchWorkforce(gctx, db, scope)
		return err
	})
	g.Go(func() (err error) {
		out.Status, err = FetchStatusBreakdown(gctx, db, scope)
		return err
	})
	g.Go(func() (err error) {
		out.TopComplaints, err = FetchTopComplaints(gctx, db, scope, topN)
		return err
	})
	g.Go(func() (err error) {
		out.TopWorkers, err = FetchTopWorkers(gctx, db, scope, topN)
		return err
	})
	g.Go(func() (err error) {
		out.BusiestZones, err = FetchBusiestZones(gctx, db, scope, topN)
		return err
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return out, nil
}

func aggregateAll[T any](ctx context.Context, c *mongo.Collection, pipeline []bson.M) ([]T, error) {
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func lookupZoneName() []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         "zones",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "zone",
		}},
		{"$addFields": bson.M{"zone_name": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$zone.name", 0}}, ""}}}},
		{"$project": bson.M{"zone": 0}},
	}
}

// FetchWorkforce groups workers by zone, then rolls the groups up.
func FetchWorkforce(ctx context.Context, db *mongo.Database, scope Scope) (Workforce, error) {
	pipeline := []bson.M{
		{"$match": scope.match()},
		{"$group": bson.M{
			"_id":        "$zone_id",
			"workers":    bson.M{"$sum": 1},
			"sum_rating": bson.M{"$sum": "$rating"},
		}},
	}
	pipeline = append(pipeline, lookupZoneName()...)
	pipeline = append(pipeline, bson.M{"$sort": bson.D{{Key: "workers", Value: -1}, {Key: "_id", Value: 1}}})

	type row struct {
		ZoneID    primitive.ObjectID `bson:"_id"`
		ZoneName  string             `bson:"zone_name"`
		Workers   int64              `bson:"workers"`
		SumRating float64            `bson:"sum_rating"`
	}
	rows, err := aggregateAll[row](ctx, db.Collection("workers"), pipeline)
	if err != nil {
		return Workforce{}, err
	}

	out := Workforce{ByZone: make([]ZoneWorkforce, 0, len(rows))}
	var sum float64
	for _, r := range rows {
		z := ZoneWorkforce{ZoneID: r.ZoneID, ZoneName: r.ZoneName, Workers: r.Workers}
		if r.Workers > 0 {
			z.AvgRating = round2(r.SumRating / float64(r.Workers))
		}
		out.ByZone = append(out.ByZone, z)
		out.TotalWorkers += r.Workers
		sum += r.SumRating
	}
	if out.TotalWorkers > 0 {
		out.AvgRating = round2(sum / float64(out.TotalWorkers))
	}
	return out, nil
}

// FetchStatusBreakdown counts complaints per status. Percentages are 0 when
// there are no complaints.
func FetchStatusBreakdown(ctx context.Context, db *mongo.Database, scope Scope) (StatusBreakdown, error) {
	pipeline := []bson.M{
		{"$match": scope.match()},
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}
	type row struct {
		Status models.ComplaintStatus `bson:"_id"`
		Count  int64                  `bson:"count"`
	}
	rows, err := aggregateAll[row](ctx, db.Collection("complaints"), pipeline)
	if err != nil {
		return StatusBreakdown{}, err
	}
	counts := make(map[models.ComplaintStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] += r.Count
	}
	return breakdown(counts), nil
}

// breakdown builds the zero-filled table. Unknown statuses still count
// towards the total under their own row so counts always sum to it.
func breakdown(counts map[models.ComplaintStatus]int64) StatusBreakdown {
	var out StatusBreakdown
	for _, n := range counts {
		out.Total += n
	}
	seen := map[models.ComplaintStatus]bool{}
	add := func(s models.ComplaintStatus) {
		seen[s] = true
		sc := StatusCount{Status: s, Count: counts[s]}
		if out.Total > 0 {
			sc.Percentage = round2(float64(sc.Count) * 100 / float64(out.Total))
		}
		out.ByStatus = append(out.ByStatus, sc)
	}
	for _, s := range models.AllStatuses {
		add(s)
	}
	for s := range counts {
		if !seen[s] {
			add(s)
		}
	}
	return out
}

// FetchTopComplaints ranks by vote count, newest first on ties.
func FetchTopComplaints(ctx context.Context, db *mongo.Database, scope Scope, n int) ([]TopComplaint, error) {
	pipeline := []bson.M{
		{"$match": scope.match()},
		{"$addFields": bson.M{"vote_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$votes", bson.A{}}}}}},
		{"$sort": bson.D{{Key: "vote_count", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}},
		{"$limit": int64(n)},
		{"$project": bson.M{"title": 1, "status": 1, "vote_count": 1, "created_at": 1}},
	}
	return aggregateAll[TopComplaint](ctx, db.Collection("complaints"), pipeline)
}

// FetchTopWorkers ranks by rating.
func FetchTopWorkers(ctx context.Context, db *mongo.Database, scope Scope, n int) ([]TopWorker, error) {
	pipeline := []bson.M{
		{"$match": scope.match()},
		{"$sort": bson.D{{Key: "rating", Value: -1}, {Key: "assigned_count", Value: 1}, {Key: "_id", Value: 1}}},
		{"$limit": int64(n)},
		{"$project": bson.M{"full_name": 1, "zone_id": 1, "rating": 1, "assigned_count": 1}},
	}
	return aggregateAll[TopWorker](ctx, db.Collection("workers"), pipeline)
}

// FetchBusiestZones ranks zones by unresolved complaints and joins the
// number of workers in each.
func FetchBusiestZones(ctx context.Context, db *mongo.Database, scope Scope, n int) ([]ZoneLoad, error) {
	match := scope.match()
	match["zone_id"] = bson.M{"$exists": true, "$ne": nil}
	match["status"] = bson.M{"$ne": models.StatusResolved}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$zone_id", "open_complaints": bson.M{"$sum": 1}}},
		{"$sort": bson.D{{Key: "open_complaints", Value: -1}, {Key: "_id", Value: 1}}},
		{"$limit": int64(n)},
		{"$lookup": bson.M{
			"from": "workers",
			"let":  bson.M{"zid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$zone_id", "$$zid"}}}},
				bson.M{"$count": "n"},
			},
			"as": "worker_count",
		}},
		{"$addFields": bson.M{"workers": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$worker_count.n", 0}}, 0}}}},
		{"$project": bson.M{"worker_count": 0}},
	}
	pipeline = append(pipeline, lookupZoneName()...)
	pipeline = append(pipeline, bson.M{"$sort": bson.D{{Key: "open_complaints", Value: -1}, {Key: "_id", Value: 1}}})
	return aggregateAll[ZoneLoad](ctx, db.Collection("complaints"), pipeline)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
