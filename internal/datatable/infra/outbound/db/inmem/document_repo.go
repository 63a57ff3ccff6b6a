package inmem

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// DocumentRepo guarda colecciones en memoria y las consulta con el evaluador
// del paquete. Seguro para uso concurrente.
type DocumentRepo struct {
	collections map[string][]domain.Document
	mu          sync.RWMutex
}

var _ domain.DocumentRepository = (*DocumentRepo)(nil)

func NewDocumentRepo() *DocumentRepo {
	return &DocumentRepo{
		collections: make(map[string][]domain.Document),
	}
}

func (r *DocumentRepo) Find(ctx context.Context, collection string, q domain.FindQuery) ([]domain.Document, error) {
	docs, err := r.snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	return Find(docs, q)
}

func (r *DocumentRepo) Count(ctx context.Context, collection string, criteria sharedDomain.Criteria) (int64, error) {
	docs, err := r.snapshot(ctx, collection)
	if err != nil {
		return 0, err
	}
	return Count(docs, criteria)
}

func (r *DocumentRepo) DistinctValues(ctx context.Context, collection, field string, depth int) ([]domain.DistinctValueCount, error) {
	docs, err := r.snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	return Distinct(docs, field, depth), nil
}

// Insert añade los documentos al final de la colección; los que no traen
// _id reciben un UUID.
func (r *DocumentRepo) Insert(ctx context.Context, collection string, docs ...domain.Document) error {
	if strings.TrimSpace(collection) == "" {
		return domain.ErrInvalidCollection
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	prepared, err := PrepareDocuments(docs)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[collection] = append(r.collections[collection], prepared...)
	return nil
}

// snapshot devuelve una copia del slice de la colección; los documentos no se
// modifican después de insertarse, así que se comparten sin copiarlos.
func (r *DocumentRepo) snapshot(ctx context.Context, collection string) ([]domain.Document, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, domain.ErrInvalidCollection
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := r.collections[collection]
	out := make([]domain.Document, len(docs))
	copy(out, docs)
	return out, nil
}

// PrepareDocuments copia cada documento y le asigna un _id si no lo tiene.
// Un documento nil es ErrInvalidDocument.
func PrepareDocuments(docs []domain.Document) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			return nil, domain.ErrInvalidDocument
		}
		clone := make(domain.Document, len(doc)+1)
		for k, v := range doc {
			clone[k] = v
		}
		if _, ok := clone["_id"]; !ok {
			clone["_id"] = uuid.NewString()
		}
		out = append(out, clone)
	}
	return out, nil
}
