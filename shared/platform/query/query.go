package query

// ---------- Tipos de paginación / ordenamiento ----------

// OffsetPagination para paginación clásica.
// Limit == 0 significa "sin límite" en los backends.
type OffsetPagination struct {
	Limit  int
	Offset int
}

// Sort indica campo y dirección.
type Sort struct {
	Field string // ej. "created_at", "status", "address.city"
	Desc  bool
}

// SortSpec es una lista ordenada de claves de ordenamiento: la primera es la
// principal, la segunda desempata, etc.
type SortSpec []Sort

// Fields devuelve los nombres de campo en orden.
func (s SortSpec) Fields() []string {
	fields := make([]string, 0, len(s))
	for _, srt := range s {
		fields = append(fields, srt.Field)
	}
	return fields
}
