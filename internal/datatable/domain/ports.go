package domain

import (
	"context"
	"errors"
	"strconv"

	sharedDomain "github.com/davicafu/gridquery/shared/domain"
	sharedQuery "github.com/davicafu/gridquery/shared/platform/query"
)

var (
	ErrInvalidCollection = errors.New("invalid collection name")
	ErrInvalidDocument   = errors.New("invalid document")
)

// FindQuery es la consulta ya resuelta que ejecuta un repositorio.
// Criteria nil significa sin restricción.
type FindQuery struct {
	Criteria   sharedDomain.Criteria
	Sort       sharedQuery.SortSpec
	Pagination sharedQuery.OffsetPagination
}

// --- Repositorio de documentos (motor de consultas externo) ---
type DocumentRepository interface {
	Find(ctx context.Context, collection string, q FindQuery) ([]Document, error)
	// Count cuenta los documentos que cumplen criteria; nil cuenta toda la colección.
	Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error)
	// DistinctValues aplana el campo hasta depth niveles y devuelve los valores
	// distintos con su número de apariciones, ordenados por valor.
	DistinctValues(ctx context.Context, collection, field string, depth int) ([]DistinctValueCount, error)
	Insert(ctx context.Context, collection string, docs ...Document) error
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// DistinctCachePrefix agrupa todas las listas de valores de una colección,
// para invalidarlas juntas cuando cambian sus documentos.
func DistinctCachePrefix(collection string) string {
	return "distinct:" + collection + ":"
}

// DistinctCacheKey identifica la lista de field en una generación concreta
// de la colección (ver QueryService.Insert).
func DistinctCacheKey(collection, field string, generation uint64) string {
	return DistinctCachePrefix(collection) + strconv.FormatUint(generation, 10) + ":" + field
}
