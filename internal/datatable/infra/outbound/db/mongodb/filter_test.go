package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
	sharedQuery "github.com/davicafu/gridquery/shared/platform/query"
)

func TestCriteriaToMongoFilter_Nil(t *testing.T) {
	f, err := criteriaToMongoFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, bson.D{}, f)
}

func TestCriteriaToMongoFilter_CompiledFilter(t *testing.T) {
	crit, ok := domain.CompileFilter("status(eq:active),age(gte:18);name(match:ann,i)", nil)
	require.True(t, ok)

	f, err := criteriaToMongoFilter(crit)
	require.NoError(t, err)

	want := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "status", Value: bson.D{{Key: "$eq", Value: "active"}}}},
			bson.D{{Key: "age", Value: bson.D{{Key: "$gte", Value: int64(18)}}}},
		}}},
		bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "name", Value: bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: "^ann$", Options: "i"}}}}},
		}}},
	}}}
	assert.Equal(t, want, f)
}

func TestCriterionToMongo_Operators(t *testing.T) {
	tests := []struct {
		name string
		crit sharedDomain.Criterion
		want bson.D
	}{
		{"ne", sharedDomain.Criterion{Field: "a", Op: sharedDomain.OpNe, Value: 1}, bson.D{{Key: "$ne", Value: 1}}},
		{"lt", sharedDomain.Criterion{Field: "a", Op: sharedDomain.OpLt, Value: 2.5}, bson.D{{Key: "$lt", Value: 2.5}}},
		{"in list", sharedDomain.Criterion{Field: "a", Op: sharedDomain.OpIn, Value: []any{"x", "y"}}, bson.D{{Key: "$in", Value: bson.A{"x", "y"}}}},
		{"nin single", sharedDomain.Criterion{Field: "a", Op: sharedDomain.OpNin, Value: "x"}, bson.D{{Key: "$nin", Value: bson.A{"x"}}}},
		{"exists", sharedDomain.Criterion{Field: "a", Op: sharedDomain.OpExists, Value: false}, bson.D{{Key: "$exists", Value: false}}},
		{"type", sharedDomain.Criterion{Field: "a", Op: sharedDomain.OpType, Value: "string"}, bson.D{{Key: "$type", Value: "string"}}},
		{"contains", sharedDomain.Criterion{Field: "a", Op: sharedDomain.OpRegex, Value: sharedDomain.Pattern{Expr: `a\.b`}}, bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: `a\.b`}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := criterionToMongo(tt.crit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCriterionToMongo_Errors(t *testing.T) {
	_, err := criterionToMongo(sharedDomain.Criterion{Field: "a", Op: "like", Value: 1})
	assert.Error(t, err)

	_, err = criterionToMongo(sharedDomain.Criterion{Field: "a", Op: sharedDomain.OpRegex, Value: "raw"})
	assert.Error(t, err)
}

func TestTextToMongo(t *testing.T) {
	got := textToMongo(sharedDomain.TextCriteria{
		Search:  "café",
		Options: sharedDomain.SearchOptions{Language: "spanish", DiacriticSensitive: true},
	})

	assert.Equal(t, bson.D{{Key: "$text", Value: bson.D{
		{Key: "$search", Value: "café"},
		{Key: "$language", Value: "spanish"},
		{Key: "$diacriticSensitive", Value: true},
	}}}, got)
}

func TestSortToMongo(t *testing.T) {
	got := sortToMongo(sharedQuery.BuildSortSpec("name,age", "false,true"))
	assert.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "age", Value: -1}}, got)
}

func TestDistinctPipeline_UnwindsFixedDepth(t *testing.T) {
	p := distinctPipeline("tags", domain.DistinctUnwindDepth)

	require.Len(t, p, 1+domain.DistinctUnwindDepth+3)
	assert.Equal(t, bson.D{{Key: "$project", Value: bson.D{{Key: "value", Value: "$tags"}}}}, p[0])
	for i := 1; i <= domain.DistinctUnwindDepth; i++ {
		assert.Equal(t, bson.D{{Key: "$unwind", Value: "$value"}}, p[i])
	}
	assert.Equal(t, bson.D{{Key: "$sort", Value: bson.D{{Key: "value", Value: 1}}}}, p[len(p)-1])
}

func TestFromMongoValue(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	doc := fromMongoDocument(bson.M{
		"_id":  id,
		"at":   primitive.NewDateTimeFromTime(at),
		"tags": bson.A{"a", bson.M{"b": int32(1)}},
		"sub":  bson.D{{Key: "x", Value: "y"}},
	})

	assert.Equal(t, id.Hex(), doc["_id"])
	assert.Equal(t, at, doc["at"])
	assert.Equal(t, []any{"a", map[string]any{"b": int32(1)}}, doc["tags"])
	assert.Equal(t, map[string]any{"x": "y"}, doc["sub"])
}
