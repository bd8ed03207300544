// Package querybuilder turns list query strings into MongoDB queries.
//
// A Builder applies, in a fixed order, filter, sort, field selection,
// pagination and an optional vote-count sort. The same Builder renders either
// a Find (filter + options) or an aggregation pipeline; both return the same
// documents in the same order. Every key is checked against a Schema and
// unknown keys are rejected with apperr.InvalidArgument.
package querybuilder

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/paging"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Reserved query keys.
const (
	KeySort   = "sort"
	KeyFields = "fields"
	KeySearch = "search"
	KeyPage   = "page"
	KeyLimit  = "limit"
)

// PendingAssign is the pseudo-status matching every assignable status.
const PendingAssign = "PENDING_ASSIGN"

// VoteCountKey is the derived field added by SortByVotes.
const VoteCountKey = "vote_count"

// votesSortToken in a sort list requests SortByVotes.
const votesSortToken = "votes"

var rangeOps = map[string]string{"gte": "$gte", "gt": "$gt", "lte": "$lte", "lt": "$lt"}

// Source executes rendered queries. *complaintstore.Store satisfies it.
type Source interface {
	Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]bson.M, error)
	Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error)
}

// Builder accumulates a query. The first error sticks; later calls are
// no-ops and Err reports it.
type Builder struct {
	schema     *Schema
	conds      []bson.M
	sort       bson.D
	projection bson.M
	page       paging.Page
	byVotes    bool
	err        error
}

// New returns an empty Builder with default sort, default field exclusion
// and default pagination.
func New(schema *Schema) *Builder {
	b := &Builder{schema: schema, page: paging.NewPage(0, 0)}
	b.Sort("")
	b.LimitFields("")
	return b
}

// FromValues applies every part of a query string in order:
// filter, sort, fields, page/limit.
func FromValues(schema *Schema, v url.Values) *Builder {
	return New(schema).
		Filter(v).
		Sort(v.Get(KeySort)).
		LimitFields(v.Get(KeyFields)).
		Paginate(paging.NewPage(atoi(v.Get(KeyPage)), atoi(v.Get(KeyLimit))))
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = apperr.New(apperr.InvalidArgument, format, args...)
	}
	return b
}

// Err returns the first validation error.
func (b *Builder) Err() error { return b.err }

// Where AND-merges a trusted condition, typically the caller's scope.
func (b *Builder) Where(cond bson.M) *Builder {
	if b.err == nil && len(cond) > 0 {
		b.conds = append(b.conds, cond)
	}
	return b
}

// Filter translates flat key=value pairs. Reserved keys are skipped.
// Range operators use key[op], for example created_at[gte]=2024-01-01.
func (b *Builder) Filter(v url.Values) *Builder {
	if b.err != nil {
		return b
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ranges := map[string]bson.M{}
	var order []string
	for _, key := range keys {
		switch key {
		case KeySort, KeyFields, KeyPage, KeyLimit:
			continue
		case KeySearch:
			b.search(v.Get(key))
			continue
		}
		raw := v.Get(key)
		name, op := splitOp(key)
		f, ok := b.schema.Fields[name]
		if !ok {
			return b.fail("unknown filter %q", key)
		}
		if op == "" {
			if !f.Filter {
				return b.fail("cannot filter on %q", name)
			}
			if f.Kind == KindStatus && strings.EqualFold(raw, PendingAssign) {
				b.conds = append(b.conds, bson.M{f.Path: bson.M{"$in": models.PendingAssignStatuses}})
				continue
			}
			val, ok := parseValue(f, raw)
			if !ok {
				return b.fail("invalid value for %q", name)
			}
			b.conds = append(b.conds, bson.M{f.Path: val})
			continue
		}
		mop, ok := rangeOps[op]
		if !ok {
			return b.fail("unknown operator %q on %q", op, name)
		}
		if !f.Range {
			return b.fail("%q does not support ranges", name)
		}
		val, ok := parseValue(f, raw)
		if !ok {
			return b.fail("invalid value for %q", key)
		}
		if _, seen := ranges[f.Path]; !seen {
			ranges[f.Path] = bson.M{}
			order = append(order, f.Path)
		}
		ranges[f.Path][mop] = val
	}
	for _, path := range order {
		b.conds = append(b.conds, bson.M{path: ranges[path]})
	}
	return b
}

// splitOp splits "created_at[gte]" into ("created_at", "gte").
func splitOp(key string) (string, string) {
	i := strings.IndexByte(key, '[')
	if i < 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	return key[:i], key[i+1 : len(key)-1]
}

// search adds a case-insensitive substring OR across the schema's search
// paths. The term is matched literally.
func (b *Builder) search(term string) {
	term = strings.TrimSpace(term)
	if term == "" || len(b.schema.Search) == 0 {
		return
	}
	pattern := regexp.QuoteMeta(term)
	or := make(bson.A, 0, len(b.schema.Search))
	for _, path := range b.schema.Search {
		or = append(or, bson.M{path: bson.M{"$regex": pattern, "$options": "i"}})
	}
	b.conds = append(b.conds, bson.M{"$or": or})
}

// Sort sets the order from a comma list; "-" prefixes descend. "votes" or
// "-votes" requests SortByVotes. An empty expr uses the schema default.
func (b *Builder) Sort(expr string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(expr) == "" {
		expr = b.schema.DefaultSort
	}
	var d bson.D
	hasID := false
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		if part == votesSortToken {
			b.SortByVotes()
			continue
		}
		if part == "_id" || part == "id" {
			d = append(d, bson.E{Key: "_id", Value: dir})
			hasID = true
			continue
		}
		f, ok := b.schema.Fields[part]
		if !ok || !f.Sortable {
			return b.fail("cannot sort by %q", part)
		}
		d = append(d, bson.E{Key: f.Path, Value: dir})
	}
	if !hasID {
		d = append(d, bson.E{Key: "_id", Value: 1})
	}
	b.sort = d
	return b
}

// LimitFields selects returned fields from a comma list. Empty excludes the
// schema's internal fields. _id is always returned.
func (b *Builder) LimitFields(expr string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(expr) == "" {
		p := bson.M{}
		for _, path := range b.schema.Internal {
			p[path] = 0
		}
		b.projection = p
		return b
	}
	p := bson.M{}
	for _, name := range strings.Split(expr, ",") {
		name = strings.TrimSpace(name)
		if name == "" || name == "id" || name == "_id" {
			continue
		}
		f, ok := b.schema.Fields[name]
		if !ok || !f.Selectable {
			return b.fail("unknown field %q", name)
		}
		p[f.Path] = 1
	}
	if len(p) == 0 {
		p["_id"] = 1
	}
	b.projection = p
	return b
}

// Paginate sets the page window.
func (b *Builder) Paginate(p paging.Page) *Builder {
	if b.err == nil {
		b.page = paging.NewPage(p.Number, p.Limit)
	}
	return b
}

// SortByVotes orders by vote count descending ahead of the other sort keys.
// Calling it more than once has no further effect.
func (b *Builder) SortByVotes() *Builder {
	b.byVotes = true
	return b
}

// Page returns the pagination window.
func (b *Builder) Page() paging.Page { return b.page }

// FilterDoc returns the merged filter, useful for counting.
func (b *Builder) FilterDoc() bson.M {
	switch len(b.conds) {
	case 0:
		return bson.M{}
	case 1:
		return b.conds[0]
	}
	and := make(bson.A, len(b.conds))
	for i, c := range b.conds {
		and[i] = c
	}
	return bson.M{"$and": and}
}

// NeedsPipeline reports whether the query can only run as a pipeline.
func (b *Builder) NeedsPipeline() bool { return b.byVotes }

// FindSpec renders a direct query. It fails when NeedsPipeline is true.
func (b *Builder) FindSpec() (bson.M, *options.FindOptions, error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	if b.byVotes {
		return nil, nil, apperr.New(apperr.InvalidArgument, "vote-count sort requires pipeline mode")
	}
	opts := options.Find().
		SetSort(b.sort).
		SetSkip(b.page.Skip()).
		SetLimit(int64(b.page.Limit))
	if len(b.projection) > 0 {
		opts.SetProjection(b.projection)
	}
	return b.FilterDoc(), opts, nil
}

// Pipeline renders the equivalent aggregation stages.
func (b *Builder) Pipeline() ([]bson.M, error) {
	if b.err != nil {
		return nil, b.err
	}
	stages := []bson.M{{"$match": b.FilterDoc()}}

	sortDoc := b.sort
	if b.byVotes {
		stages = append(stages, bson.M{"$addFields": bson.M{
			VoteCountKey: bson.M{"$size": bson.M{"$ifNull": bson.A{"$votes", bson.A{}}}},
		}})
		sortDoc = append(bson.D{{Key: VoteCountKey, Value: -1}}, b.sort...)
	}
	stages = append(stages, bson.M{"$sort": sortDoc})

	if len(b.projection) > 0 {
		proj := bson.M{}
		for k, v := range b.projection {
			proj[k] = v
		}
		if b.byVotes && isInclusion(proj) {
			proj[VoteCountKey] = 1
		}
		stages = append(stages, bson.M{"$project": proj})
	}
	stages = append(stages,
		bson.M{"$skip": b.page.Skip()},
		bson.M{"$limit": int64(b.page.Limit)},
	)
	return stages, nil
}

func isInclusion(p bson.M) bool {
	for _, v := range p {
		if v == 1 {
			return true
		}
	}
	return false
}

// Run executes the query against src, choosing Find unless the query needs
// a pipeline or usePipeline is set.
func (b *Builder) Run(ctx context.Context, src Source, usePipeline bool) ([]bson.M, error) {
	if b.err != nil {
		return nil, b.err
	}
	if usePipeline || b.NeedsPipeline() {
		stages, err := b.Pipeline()
		if err != nil {
			return nil, err
		}
		return src.Aggregate(ctx, stages)
	}
	filter, opts, err := b.FindSpec()
	if err != nil {
		return nil, err
	}
	return src.Find(ctx, filter, opts)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ExposeIDs renames each row's _id to id, matching the JSON of the models.
func ExposeIDs(rows []bson.M) {
	for _, row := range rows {
		if id, ok := row["_id"]; ok {
			row["id"] = id
			delete(row, "_id")
		}
	}
}
