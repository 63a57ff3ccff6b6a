package domain

import (
	"strings"

	sharedDomain "github.com/davicafu/gridquery/shared/domain"
	sharedQuery "github.com/davicafu/gridquery/shared/platform/query"
)

// Query acumula las etapas de una consulta tabular. Cada etapa es opcional y
// se puede usar por separado; el resultado se ejecuta con un DocumentRepository
// a partir de Build().
type Query struct {
	schema     Schema
	filter     sharedDomain.Criteria
	search     *sharedDomain.TextCriteria
	sort       sharedQuery.SortSpec
	pagination sharedQuery.OffsetPagination
}

// NewQuery crea una consulta sin restricciones. schema puede ser nil.
func NewQuery(schema Schema) *Query {
	return &Query{schema: schema}
}

// ApplyFilter compila el filtro textual y lo combina (AND) con el filtro
// existente. Un filtro vacío o inválido deja la consulta como estaba.
func (q *Query) ApplyFilter(filter string) *Query {
	crit, ok := CompileFilter(filter, q.schema)
	if !ok {
		return q
	}
	if q.filter == nil {
		q.filter = crit
	} else {
		q.filter = sharedDomain.And(q.filter, crit)
	}
	return q
}

// ApplySearch añade la búsqueda de texto libre. Siempre se combina con AND.
func (q *Query) ApplySearch(text string, opts SearchOptions) *Query {
	text = strings.TrimSpace(text)
	if text == "" {
		return q
	}
	q.search = &sharedDomain.TextCriteria{Search: text, Options: opts}
	return q
}

// ApplySort fija el orden a partir de las listas de campos y direcciones.
func (q *Query) ApplySort(sortBy, sortDesc string) *Query {
	q.sort = sharedQuery.BuildSortSpec(sortBy, sortDesc)
	return q
}

// ApplyPagination fija offset/limit a partir de página y tamaño de página.
func (q *Query) ApplyPagination(page, itemsPerPage any, defaultItems int) *Query {
	q.pagination = sharedQuery.Paginate(page, itemsPerPage, defaultItems)
	return q
}

// Criteria devuelve el predicado efectivo (filtro AND búsqueda), o nil.
func (q *Query) Criteria() sharedDomain.Criteria {
	switch {
	case q.filter != nil && q.search != nil:
		return sharedDomain.And(q.filter, *q.search)
	case q.filter != nil:
		return q.filter
	case q.search != nil:
		return *q.search
	default:
		return nil
	}
}

func (q *Query) Sort() sharedQuery.SortSpec {
	return q.sort
}

func (q *Query) Pagination() sharedQuery.OffsetPagination {
	return q.pagination
}

// Build devuelve la consulta lista para el repositorio.
func (q *Query) Build() FindQuery {
	return FindQuery{
		Criteria:   q.Criteria(),
		Sort:       q.sort,
		Pagination: q.pagination,
	}
}
