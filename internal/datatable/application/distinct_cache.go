package application

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/gridquery/internal/datatable/domain"
)

// Tipos dinámicos que pueden aparecer como valor distinto. Los básicos
// (int, float64, string, bool...) ya vienen registrados en gob.
func init() {
	gob.Register(time.Time{})
	gob.Register(json.Number(""))
	gob.Register(uuid.UUID{})
	gob.Register([]any{})
	gob.Register(map[string]any{})
	gob.Register(domain.Document{})
}

// encodeDistinct serializa la lista conservando el tipo Go de cada valor,
// para que un acierto de caché devuelva lo mismo que la agregación.
func encodeDistinct(values []domain.DistinctValueCount) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeDistinct(payload []byte) ([]domain.DistinctValueCount, error) {
	var values []domain.DistinctValueCount
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&values); err != nil {
		return nil, err
	}
	if values == nil {
		values = []domain.DistinctValueCount{}
	}
	return values, nil
}

// generations numera las escrituras de cada colección. La generación forma
// parte de la clave de caché: una agregación que empezó antes de un Insert
// guarda su lista bajo una clave que ya nadie lee.
type generations struct {
	m sync.Map // colección -> *atomic.Uint64
}

func (g *generations) counter(collection string) *atomic.Uint64 {
	v, _ := g.m.LoadOrStore(collection, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

func (g *generations) current(collection string) uint64 {
	return g.counter(collection).Load()
}

func (g *generations) bump(collection string) {
	g.counter(collection).Add(1)
}
