package domain

import (
	"bytes"
	"encoding/json"
	"errors"

	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// DistinctUnwindDepth es el número fijo de niveles de arrays anidados que se
// aplanan antes de agrupar valores distintos. Un valor con más anidamiento se
// agrupa tal cual a partir del séptimo nivel.
const DistinctUnwindDepth = 6

// Document es un documento de una colección.
type Document map[string]any

// DistinctValueCount es un valor distinto de un campo y sus apariciones.
type DistinctValueCount struct {
	Value any   `json:"value" bson:"value"`
	Count int64 `json:"count" bson:"count"`
}

// PaginatedResult es el contrato de salida del orquestador.
// ResultCount ignora la paginación; TotalCount ignora además filtro y búsqueda.
type PaginatedResult struct {
	Data        any   `json:"data"`
	ResultCount int64 `json:"resultCount"`
	TotalCount  int64 `json:"totalCount"`
}

// SearchOptions se re-exporta para que los adaptadores no dependan del paquete compartido.
type SearchOptions = sharedDomain.SearchOptions

// QueryOptions agrupa los parámetros de una consulta tabular.
// Page e ItemsPerPage aceptan números o texto.
type QueryOptions struct {
	Page          any
	ItemsPerPage  any
	Search        string
	SearchOptions SearchOptions
	Filter        string
	SortBy        string
	SortDesc      string
	GetFilterList string
}

// DecodeDocuments acepta un objeto JSON o un array de objetos. Los números se
// conservan como json.Number.
func DecodeDocuments(body []byte) ([]Document, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrInvalidDocument
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var docs []Document
		if err := dec.Decode(&docs); err != nil {
			return nil, errors.Join(ErrInvalidDocument, err)
		}
		if len(docs) == 0 {
			return nil, ErrInvalidDocument
		}
		return docs, nil
	}

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrInvalidDocument, err)
	}
	if doc == nil {
		return nil, ErrInvalidDocument
	}
	return []Document{doc}, nil
}
