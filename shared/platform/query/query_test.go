package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSortSpec_PositionalPairing(t *testing.T) {
	spec := BuildSortSpec("a,b", "true,false")
	assert.Equal(t, SortSpec{{Field: "a", Desc: true}, {Field: "b", Desc: false}}, spec)
}

func TestBuildSortSpec_MissingDirectionsDefaultAscending(t *testing.T) {
	spec := BuildSortSpec("a,b", "true")
	assert.Equal(t, SortSpec{{Field: "a", Desc: true}, {Field: "b", Desc: false}}, spec)

	spec = BuildSortSpec("a, b ,c", "")
	assert.Equal(t, []string{"a", "b", "c"}, spec.Fields())
	for _, s := range spec {
		assert.False(t, s.Desc)
	}
}

func TestBuildSortSpec_DirectionTokens(t *testing.T) {
	spec := BuildSortSpec("a,b,c", "TRUE, yes ,1")
	assert.True(t, spec[0].Desc)
	// Cualquier otro token es ascendente
	assert.False(t, spec[1].Desc)
	assert.False(t, spec[2].Desc)
}

func TestBuildSortSpec_Empty(t *testing.T) {
	assert.Empty(t, BuildSortSpec("", "true"))
	assert.Empty(t, BuildSortSpec("   ", ""))
	assert.Equal(t, SortSpec{{Field: "b", Desc: false}}, BuildSortSpec(",b", "true,false"))
}

func TestPaginate_Arithmetic(t *testing.T) {
	cases := []struct {
		name         string
		page         any
		itemsPerPage any
		want         OffsetPagination
	}{
		{"first page", 1, 10, OffsetPagination{Offset: 0, Limit: 10}},
		{"third page", 3, 20, OffsetPagination{Offset: 40, Limit: 20}},
		{"page zero clamps", 0, 10, OffsetPagination{Offset: 0, Limit: 10}},
		{"negative items unbounded", 2, -5, OffsetPagination{Offset: 0, Limit: 0}},
		{"textual inputs", "3", "20", OffsetPagination{Offset: 40, Limit: 20}},
		{"float inputs truncate", 2.9, "5.5", OffsetPagination{Offset: 5, Limit: 5}},
		{"negative page", -4, 10, OffsetPagination{Offset: 0, Limit: 10}},
		{"non numeric page", "abc", 10, OffsetPagination{Offset: 0, Limit: 10}},
		{"defaults", nil, nil, OffsetPagination{Offset: 0, Limit: 10}},
		{"blank strings use defaults", "", " ", OffsetPagination{Offset: 0, Limit: 10}},
		{"non numeric items use default", 2, "lots", OffsetPagination{Offset: 10, Limit: 10}},
		{"int64 inputs", int64(4), int64(25), OffsetPagination{Offset: 75, Limit: 25}},
		{"huge page saturates", "9223372036854775807", 10, OffsetPagination{Offset: math.MaxInt, Limit: 10}},
		{"huge numeric page saturates", math.MaxInt, math.MaxInt, OffsetPagination{Offset: math.MaxInt, Limit: math.MaxInt}},
		{"out of range page text", "99999999999999999999999", "10", OffsetPagination{Offset: math.MaxInt, Limit: 10}},
		{"huge uint page", uint64(math.MaxUint64), 10, OffsetPagination{Offset: math.MaxInt, Limit: 10}},
		{"huge float page", 1e300, 10, OffsetPagination{Offset: math.MaxInt, Limit: 10}},
		{"huge negative float page", -1e300, 10, OffsetPagination{Offset: 0, Limit: 10}},
		{"huge page unbounded items", math.MaxInt, -1, OffsetPagination{Offset: 0, Limit: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Paginate(tc.page, tc.itemsPerPage, DefaultItemsPerPage))
		})
	}
}

func TestPaginate_CustomDefault(t *testing.T) {
	assert.Equal(t, OffsetPagination{Offset: 50, Limit: 25}, Paginate(3, nil, 25))
	assert.Equal(t, OffsetPagination{Offset: 0, Limit: 0}, Paginate(3, nil, -1))
}
