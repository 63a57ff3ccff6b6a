package query

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultItemsPerPage se usa cuando el llamador no indica tamaño de página.
const DefaultItemsPerPage = 10

// Paginate convierte página (base 1) y tamaño de página en offset/limit.
// Ambos pueden llegar como número o como texto. Nunca falla:
//   - página ausente: 1; página negativa o no numérica: 0
//   - tamaño ausente o no numérico: defaultItems; tamaño negativo: 0 (sin límite)
func Paginate(page, itemsPerPage any, defaultItems int) OffsetPagination {
	if defaultItems < 0 {
		defaultItems = 0
	}

	p, ok := toInt(page)
	switch {
	case page == nil || isBlank(page):
		p = 1
	case !ok || p < 0:
		p = 0
	}

	limit, ok := toInt(itemsPerPage)
	switch {
	case itemsPerPage == nil || isBlank(itemsPerPage) || !ok:
		limit = defaultItems
	case limit < 0:
		limit = 0
	}

	return OffsetPagination{
		Offset: offsetFor(p, limit),
		Limit:  limit,
	}
}

// offsetFor calcula (page-1)*limit saturando en math.MaxInt: una página
// enorme nunca da un offset negativo.
func offsetFor(page, limit int) int {
	skip := max(page-1, 0)
	if limit > 0 && skip > math.MaxInt/limit {
		return math.MaxInt
	}
	return skip * limit
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// toInt trunca hacia cero, como parseInt.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return clampUint(uint64(n)), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return clampUint(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		s := strings.TrimSpace(n)
		i, err := strconv.Atoi(s)
		if err == nil {
			return i, true
		}
		if errors.Is(err, strconv.ErrRange) {
			// Entero fuera de rango: Atoi devuelve el extremo correspondiente
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	switch t := math.Trunc(f); {
	case t >= math.MaxInt:
		return math.MaxInt, true
	case t <= math.MinInt:
		return math.MinInt, true
	default:
		return int(t), true
	}
}

func clampUint(n uint64) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}
