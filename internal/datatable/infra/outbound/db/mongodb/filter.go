package mongodb

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	sharedDomain "github.com/davicafu/gridquery/shared/domain"
	sharedQuery "github.com/davicafu/gridquery/shared/platform/query"
)

// criteriaToMongoFilter traduce el árbol de criterios a un filtro de MongoDB.
// nil produce el filtro vacío (todos los documentos).
func criteriaToMongoFilter(criteria sharedDomain.Criteria) (bson.D, error) {
	switch c := criteria.(type) {
	case nil:
		return bson.D{}, nil

	case sharedDomain.CompositeCriteria:
		if len(c.Criterias) == 0 {
			return bson.D{}, nil
		}
		children := make(bson.A, 0, len(c.Criterias))
		for _, child := range c.Criterias {
			f, err := criteriaToMongoFilter(child)
			if err != nil {
				return nil, err
			}
			children = append(children, f)
		}
		op := "$and"
		if c.Operator == sharedDomain.OpOr {
			op = "$or"
		}
		return bson.D{{Key: op, Value: children}}, nil

	case sharedDomain.Criterion:
		cond, err := criterionToMongo(c)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: c.Field, Value: cond}}, nil

	case sharedDomain.TextCriteria:
		return textToMongo(c), nil
	}

	return nil, fmt.Errorf("unsupported criteria type %T", criteria)
}

func criterionToMongo(c sharedDomain.Criterion) (bson.D, error) {
	// Mapeo de operadores genéricos a operadores de MongoDB
	var mongoOp string
	switch c.Op {
	case sharedDomain.OpEq:
		mongoOp = "$eq"
	case sharedDomain.OpNe:
		mongoOp = "$ne"
	case sharedDomain.OpGt:
		mongoOp = "$gt"
	case sharedDomain.OpGte:
		mongoOp = "$gte"
	case sharedDomain.OpLt:
		mongoOp = "$lt"
	case sharedDomain.OpLte:
		mongoOp = "$lte"
	case sharedDomain.OpIn:
		mongoOp = "$in"
	case sharedDomain.OpNin:
		mongoOp = "$nin"
	case sharedDomain.OpExists:
		mongoOp = "$exists"
	case sharedDomain.OpType:
		mongoOp = "$type"
	case sharedDomain.OpRegex:
		p, ok := c.Value.(sharedDomain.Pattern)
		if !ok {
			return nil, fmt.Errorf("regex criterion on %s without pattern", c.Field)
		}
		return bson.D{{Key: "$regex", Value: patternToRegex(p)}}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", c.Op)
	}

	value := c.Value
	if c.Op == sharedDomain.OpIn || c.Op == sharedDomain.OpNin {
		// $in y $nin exigen un array
		if list, ok := value.([]any); ok {
			value = bson.A(list)
		} else {
			value = bson.A{value}
		}
	} else if list, ok := value.([]any); ok {
		value = bson.A(list)
	}
	return bson.D{{Key: mongoOp, Value: value}}, nil
}

func patternToRegex(p sharedDomain.Pattern) primitive.Regex {
	r := primitive.Regex{Pattern: p.Expr}
	if p.CaseInsensitive {
		r.Options = "i"
	}
	return r
}

// textToMongo requiere un índice de texto sobre la colección.
func textToMongo(c sharedDomain.TextCriteria) bson.D {
	text := bson.D{{Key: "$search", Value: c.Search}}
	if lang := strings.TrimSpace(c.Options.Language); lang != "" {
		text = append(text, bson.E{Key: "$language", Value: lang})
	}
	if c.Options.CaseSensitive {
		text = append(text, bson.E{Key: "$caseSensitive", Value: true})
	}
	if c.Options.DiacriticSensitive {
		text = append(text, bson.E{Key: "$diacriticSensitive", Value: true})
	}
	return bson.D{{Key: "$text", Value: text}}
}

func sortToMongo(spec sharedQuery.SortSpec) bson.D {
	sort := make(bson.D, 0, len(spec))
	for _, s := range spec {
		sortDir := 1 // Ascendente por defecto
		if s.Desc {
			sortDir = -1 // Descendente
		}
		sort = append(sort, bson.E{Key: s.Field, Value: sortDir})
	}
	return sort
}

// distinctPipeline proyecta el campo, lo aplana depth veces y cuenta cada
// valor distinto, ordenado de forma ascendente.
func distinctPipeline(field string, depth int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.D{{Key: "value", Value: "$" + field}}}},
	}
	for i := 0; i < depth; i++ {
		pipeline = append(pipeline, bson.D{{Key: "$unwind", Value: "$value"}})
	}
	return append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$value"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "value", Value: "$_id"},
			{Key: "count", Value: 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "value", Value: 1}}}},
	)
}
