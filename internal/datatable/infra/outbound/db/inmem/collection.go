package inmem

import (
	"sort"
	"strings"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
	sharedQuery "github.com/davicafu/gridquery/shared/platform/query"
)

// Find filtra, ordena y pagina docs en memoria. El orden de entrada se
// conserva entre documentos con la misma clave de ordenamiento.
func Find(docs []domain.Document, q domain.FindQuery) ([]domain.Document, error) {
	match, err := compile(q.Criteria)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if match(doc) {
			result = append(result, doc)
		}
	}

	if len(q.Sort) > 0 {
		sortDocuments(result, q.Sort)
	}

	// Paginar
	start := max(q.Pagination.Offset, 0)
	if start >= len(result) {
		return []domain.Document{}, nil
	}
	end := len(result)
	// end-start no desborda: start < len(result)
	if q.Pagination.Limit > 0 && q.Pagination.Limit < end-start {
		end = start + q.Pagination.Limit
	}
	return result[start:end], nil
}

// Count cuenta los documentos que cumplen criteria (nil = todos).
func Count(docs []domain.Document, criteria sharedDomain.Criteria) (int64, error) {
	if criteria == nil {
		return int64(len(docs)), nil
	}
	match, err := compile(criteria)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, doc := range docs {
		if match(doc) {
			n++
		}
	}
	return n, nil
}

func sortDocuments(docs []domain.Document, spec sharedQuery.SortSpec) {
	paths := make([][]string, len(spec))
	for i, s := range spec {
		paths[i] = strings.Split(s.Field, ".")
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for k, s := range spec {
			a := sortKey(docs[i], paths[k], s.Desc)
			b := sortKey(docs[j], paths[k], s.Desc)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if s.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// sortKey usa el menor elemento de un array en orden ascendente y el mayor en
// descendente; un campo ausente ordena como null.
func sortKey(doc domain.Document, path []string, desc bool) any {
	values, found := resolve(doc, path)
	if !found || len(values) == 0 {
		return nil
	}

	var candidates []any
	for _, v := range values {
		if arr, ok := normalize(v).([]any); ok && len(arr) > 0 {
			candidates = append(candidates, arr...)
			continue
		}
		candidates = append(candidates, v)
	}

	key := candidates[0]
	for _, c := range candidates[1:] {
		cmp := compareValues(c, key)
		if (desc && cmp > 0) || (!desc && cmp < 0) {
			key = c
		}
	}
	return key
}
