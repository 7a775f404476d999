package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextID(t *testing.T) {
	assert.Equal(t, int64(1), NextID(nil))
	assert.Equal(t, int64(1), NextID([]Record{}))

	records := []Record{
		{"id": int64(3)},
		{"id": float64(7)}, // decoded JSON hands back float64
		{"id": int64(2)},
	}
	assert.Equal(t, int64(8), NextID(records))

	// Deleted ids are never reused: max+1, not first gap.
	records = []Record{{"id": int64(5)}}
	assert.Equal(t, int64(6), NextID(records))
}

func TestLooseEqual(t *testing.T) {
	// Numeric strings compare as numbers.
	assert.True(t, LooseEqual("100", float64(100)))
	assert.True(t, LooseEqual(int64(42), "42"))
	assert.True(t, LooseEqual("1.5", 1.5))
	assert.True(t, LooseEqual("01", int64(1)))

	// Everything else compares by string form.
	assert.True(t, LooseEqual("active", "active"))
	assert.False(t, LooseEqual("active", "inactive"))
	assert.False(t, LooseEqual("100", float64(101)))
	assert.False(t, LooseEqual("abc", float64(0)))
}

func TestMatches(t *testing.T) {
	rec := Record{"id": float64(2), "status": "active", "name": "Oil Press"}

	assert.True(t, Matches(rec, nil))
	assert.True(t, Matches(rec, Conditions{"status": "active"}))
	assert.True(t, Matches(rec, Conditions{"id": int64(2), "status": "active"}))
	assert.False(t, Matches(rec, Conditions{"status": "inactive"}))

	// A condition on an absent field never matches.
	assert.False(t, Matches(rec, Conditions{"missing": ""}))
}

func TestSortByIsLexicographic(t *testing.T) {
	records := []Record{
		{"id": int64(1), "qty": "9"},
		{"id": int64(2), "qty": "10"},
		{"id": int64(3), "qty": "100"},
	}

	SortBy(records, OrderBy{Field: "qty"})

	// "10" < "100" < "9" as text.
	assert.Equal(t, int64(2), records[0].ID())
	assert.Equal(t, int64(3), records[1].ID())
	assert.Equal(t, int64(1), records[2].ID())

	SortBy(records, OrderBy{Field: "qty", Direction: DirectionDesc})
	assert.Equal(t, int64(1), records[0].ID())
}

func TestSortByIsStable(t *testing.T) {
	records := []Record{
		{"id": int64(1), "status": "new"},
		{"id": int64(2), "status": "new"},
		{"id": int64(3), "status": "new"},
	}

	SortBy(records, OrderBy{Field: "status"})

	// Equal keys keep storage order.
	assert.Equal(t, int64(1), records[0].ID())
	assert.Equal(t, int64(2), records[1].ID())
	assert.Equal(t, int64(3), records[2].ID())
}

func TestPaginate(t *testing.T) {
	records := []Record{
		{"id": int64(1)}, {"id": int64(2)}, {"id": int64(3)}, {"id": int64(4)},
	}

	assert.Len(t, Paginate(records, 0, 0), 4)
	assert.Len(t, Paginate(records, 2, 0), 2)

	page := Paginate(records, 2, 2)
	assert.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].ID())

	// Limit past the end is truncated, offset past the end is empty.
	assert.Len(t, Paginate(records, 10, 2), 2)
	assert.Empty(t, Paginate(records, 2, 10))
	assert.Len(t, Paginate(records, 2, -1), 2)
}

func TestMergeJoin(t *testing.T) {
	bookings := []Record{
		{"id": int64(1), "service_id": int64(10), "customer_name": "Ama"},
		{"id": int64(2), "service_id": int64(99), "customer_name": "Kofi"},
	}
	services := []Record{
		{"id": float64(10), "name": "Oil Press", "price": float64(100)},
	}

	out := MergeJoin(bookings, services, "services", "service_id", "id")
	assert.Len(t, out, 2)

	// Matched primary carries the secondary's fields under services_*.
	assert.Equal(t, "Oil Press", out[0].String("services_name"))
	assert.Equal(t, float64(100), out[0]["services_price"])
	assert.Equal(t, "Ama", out[0].String("customer_name"))

	// Unmatched primary passes through unmerged.
	assert.Equal(t, "Kofi", out[1].String("customer_name"))
	assert.NotContains(t, out[1], "services_name")

	// Inputs are not mutated.
	assert.NotContains(t, bookings[0], "services_name")
}

func TestMergeJoinDuplicateKeyLastWins(t *testing.T) {
	primary := []Record{{"id": int64(1), "ref": int64(5)}}
	secondary := []Record{
		{"id": int64(5), "name": "first"},
		{"id": int64(5), "name": "second"},
	}

	out := MergeJoin(primary, secondary, "refs", "ref", "id")
	assert.Equal(t, "second", out[0].String("refs_name"))
}

func TestApplySelectPipeline(t *testing.T) {
	records := []Record{
		{"id": int64(1), "status": "new", "name": "c"},
		{"id": int64(2), "status": "done", "name": "a"},
		{"id": int64(3), "status": "new", "name": "b"},
		{"id": int64(4), "status": "new", "name": "a"},
	}

	out := ApplySelect(records, Conditions{"status": "new"}, SelectOptions{
		OrderBy: &OrderBy{Field: "name"},
		Limit:   2,
	})

	assert.Len(t, out, 2)
	assert.Equal(t, int64(4), out[0].ID())
	assert.Equal(t, int64(3), out[1].ID())
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{"id": float64(12), "name": "Consultancy", "count": "7", "nothing": nil}

	assert.Equal(t, int64(12), rec.ID())
	assert.Equal(t, "Consultancy", rec.String("name"))
	assert.Equal(t, int64(7), rec.Int("count"))
	assert.Equal(t, "", rec.String("nothing"))
	assert.Equal(t, "", rec.String("absent"))

	clone := rec.Clone()
	clone["name"] = "changed"
	assert.Equal(t, "Consultancy", rec.String("name"))
}
