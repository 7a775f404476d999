package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

var (
	ErrNotFound    = errors.New("not_found")
	ErrUnavailable = errors.New("storage_unavailable")
)

// TimeLayout is the timestamp form written into records and understood by
// existing data files, so it must not change.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one stored entity: a flat field map carrying at least "id",
// "created_at" and "updated_at" once persisted.
type Record map[string]any

// Conditions is an AND-combined field -> required value equality map.
// A condition on a field absent from a record never matches that record.
type Conditions map[string]any

const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

type OrderBy struct {
	Field     string
	Direction string // DirectionAsc (default) or DirectionDesc
}

type SelectOptions struct {
	OrderBy *OrderBy
	Limit   int
	Offset  int
}

// Store persists named, schema-less collections of records.
//
// Mutating calls rewrite the whole collection (jsonfile) or the affected
// rows (postgres); either way callers see the same query semantics because
// both backends filter and sort through the helpers in this package.
type Store interface {
	// Query returns every record in the collection, in storage order.
	// A collection that has never been written yields an empty slice.
	Query(ctx context.Context, collection string) ([]Record, error)

	// Insert assigns the next id, stamps timestamps and appends the record.
	Insert(ctx context.Context, collection string, fields map[string]any) (Record, error)

	Select(ctx context.Context, collection string, conds Conditions, opts SelectOptions) ([]Record, error)

	// SelectOne returns the first match or ErrNotFound.
	SelectOne(ctx context.Context, collection string, conds Conditions) (Record, error)

	// Update applies fields to every matching record and stamps updated_at
	// on each. Returns the number of modified records.
	Update(ctx context.Context, collection string, conds Conditions, fields map[string]any) (int64, error)

	// Delete removes every matching record. Ids of survivors are unchanged.
	Delete(ctx context.Context, collection string, conds Conditions) (int64, error)

	// Join selects from primary and merges, per record, the fields of the
	// secondary record whose foreignKey value equals the primary record's
	// primaryKey value, under "<secondary>_<field>" names. Primaries with
	// no match pass through unmerged.
	Join(ctx context.Context, primary, secondary, primaryKey, foreignKey string, conds Conditions) ([]Record, error)

	// Backup writes a timestamped snapshot of the collection. A failed
	// backup never blocks normal operation.
	Backup(ctx context.Context, collection string) error

	// LastInsertID and AffectedRows reflect the most recent mutating call
	// on this store instance.
	LastInsertID() int64
	AffectedRows() int64
}

// ID returns the record's id as an integer. JSON decoding hands numbers
// back as float64, so coerce rather than type-assert.
func (r Record) ID() int64 {
	return toInt64(r["id"])
}

func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	return stringValue(v)
}

func (r Record) Int(field string) int64 {
	return toInt64(r[field])
}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}

// NextID is max(existing ids, 0) + 1.
func NextID(records []Record) int64 {
	var max int64
	for _, r := range records {
		if id := r.ID(); id > max {
			max = id
		}
	}
	return max + 1
}

// Matches reports whether every condition holds on r, by loose equality.
func Matches(r Record, conds Conditions) bool {
	for field, want := range conds {
		got, ok := r[field]
		if !ok {
			return false
		}
		if !LooseEqual(got, want) {
			return false
		}
	}
	return true
}

// LooseEqual compares values the way the stored data does: numeric strings
// equal numbers, everything else by string form.
func LooseEqual(a, b any) bool {
	as, bs := stringValue(a), stringValue(b)
	af, aerr := strconv.ParseFloat(as, 64)
	bf, berr := strconv.ParseFloat(bs, 64)
	if aerr == nil && berr == nil {
		return af == bf
	}
	return as == bs
}

// SortBy sorts records by the string form of the given field. This is a
// defined lexicographic ordering: numeric fields sort as text. Stable for
// ties.
func SortBy(records []Record, ob OrderBy) {
	desc := ob.Direction == DirectionDesc
	sort.SliceStable(records, func(i, j int) bool {
		a := records[i].String(ob.Field)
		b := records[j].String(ob.Field)
		if desc {
			return a > b
		}
		return a < b
	})
}

// Paginate applies limit/offset after filtering and sorting. Zero values
// mean "no bound".
func Paginate(records []Record, limit, offset int) []Record {
	if limit <= 0 && offset <= 0 {
		return records
	}
	if offset >= len(records) {
		return []Record{}
	}
	if offset < 0 {
		offset = 0
	}
	out := records[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MergeJoin merges secondary fields into each primary record under
// "<secondaryName>_<field>" names. If the secondary collection carries
// duplicate key values the last one in storage order wins.
func MergeJoin(primary, secondary []Record, secondaryName, primaryKey, foreignKey string) []Record {
	index := make(map[string]Record, len(secondary))
	for _, s := range secondary {
		v, ok := s[foreignKey]
		if !ok {
			continue
		}
		index[stringValue(v)] = s
	}

	out := make([]Record, 0, len(primary))
	for _, p := range primary {
		merged := p.Clone()
		if v, ok := p[primaryKey]; ok {
			if s, ok := index[stringValue(v)]; ok {
				for field, value := range s {
					merged[secondaryName+"_"+field] = value
				}
			}
		}
		out = append(out, merged)
	}
	return out
}

// ApplySelect runs the full select pipeline — filter, sort, paginate —
// over an in-memory collection. Both backends funnel reads through this so
// their query semantics cannot drift apart.
func ApplySelect(records []Record, conds Conditions, opts SelectOptions) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if Matches(rec, conds) {
			out = append(out, rec)
		}
	}
	if opts.OrderBy != nil {
		SortBy(out, *opts.OrderBy)
	}
	return Paginate(out, opts.Limit, opts.Offset)
}

// Timestamp formats t in the persisted layout.
func Timestamp(t time.Time) string {
	return t.Format(TimeLayout)
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
