package inmem

import (
	"sort"
	"strings"

	"github.com/davicafu/gridquery/internal/datatable/domain"
)

// Distinct agrupa los valores de field en docs y cuenta sus apariciones.
//
// Reproduce una proyección seguida de depth etapas de unwind: en cada etapa
// un array se sustituye por sus elementos y un valor null, ausente o un array
// vacío desaparece. Lo que sigue siendo array después de depth etapas se
// agrupa como valor completo.
func Distinct(docs []domain.Document, field string, depth int) []domain.DistinctValueCount {
	path := strings.Split(field, ".")

	type group struct {
		value any
		count int64
	}
	groups := make(map[string]*group)

	for _, doc := range docs {
		value, ok := project(map[string]any(doc), path)
		if !ok {
			continue
		}

		values := []any{value}
		for i := 0; i < depth; i++ {
			values = unwind(values)
		}

		for _, v := range values {
			key := groupKey(v)
			if g, ok := groups[key]; ok {
				g.count++
				continue
			}
			groups[key] = &group{value: v, count: 1}
		}
	}

	result := make([]domain.DistinctValueCount, 0, len(groups))
	for _, g := range groups {
		result = append(result, domain.DistinctValueCount{Value: g.value, Count: g.count})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return compareValues(result[i].Value, result[j].Value) < 0
	})
	return result
}

func unwind(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		switch x := normalize(v).(type) {
		case nil:
			// null o ausente: el documento desaparece en esta etapa
		case []any:
			out = append(out, x...)
		default:
			out = append(out, v)
		}
	}
	return out
}

// project extrae el valor de la ruta como lo haría una proyección "$a.b":
// al atravesar un array de subdocumentos devuelve el array de valores.
func project(v any, path []string) (any, bool) {
	if len(path) == 0 {
		return v, true
	}

	switch x := normalize(v).(type) {
	case map[string]any:
		child, ok := x[path[0]]
		if !ok {
			return nil, false
		}
		return project(child, path[1:])
	case []any:
		var out []any
		for _, elem := range x {
			if value, ok := project(elem, path); ok {
				out = append(out, value)
			}
		}
		return out, true
	}
	return nil, false
}
