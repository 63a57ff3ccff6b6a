package inmem

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/gridquery/internal/datatable/domain"
)

// Orden entre tipos, igual que el de BSON: null < números < texto < objetos <
// arrays < booleanos < fechas. Valores de distinto tipo nunca son iguales.
const (
	bracketNull = iota + 1
	bracketNumber
	bracketString
	bracketObject
	bracketArray
	bracketBool
	bracketDate
	bracketOther
)

// normalize lleva cualquier valor decodificado (JSON, BSON, structs de Go) a
// un conjunto cerrado de tipos: nil, float64, string, bool, time.Time,
// map[string]any y []any.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64, string, bool, time.Time:
		return x
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case uuid.UUID:
		return x.String()
	case domain.Document:
		return map[string]any(x)
	case map[string]any, []any:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Sprint(v)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}

func bracket(v any) int {
	switch v.(type) {
	case nil:
		return bracketNull
	case float64:
		return bracketNumber
	case string:
		return bracketString
	case map[string]any:
		return bracketObject
	case []any:
		return bracketArray
	case bool:
		return bracketBool
	case time.Time:
		return bracketDate
	default:
		return bracketOther
	}
}

// compareValues devuelve <0, 0 o >0. Los argumentos pueden venir sin normalizar.
func compareValues(a, b any) int {
	a, b = normalize(a), normalize(b)
	ba, bb := bracket(a), bracket(b)
	if ba != bb {
		return ba - bb
	}

	switch x := a.(type) {
	case nil:
		return 0
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case time.Time:
		return x.Compare(b.(time.Time))
	case []any:
		y := b.([]any)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := compareValues(x[i], y[i]); c != 0 {
				return c
			}
		}
		return len(x) - len(y)
	case map[string]any:
		y := b.(map[string]any)
		kx, ky := sortedKeys(x), sortedKeys(y)
		for i := 0; i < len(kx) && i < len(ky); i++ {
			if c := strings.Compare(kx[i], ky[i]); c != 0 {
				return c
			}
			if c := compareValues(x[kx[i]], y[ky[i]]); c != 0 {
				return c
			}
		}
		return len(kx) - len(ky)
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func sameBracket(a, b any) bool {
	return bracket(normalize(a)) == bracket(normalize(b))
}

func equalValues(a, b any) bool {
	return sameBracket(a, b) && compareValues(a, b) == 0
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// groupKey es una clave canónica para agrupar valores iguales.
func groupKey(v any) string {
	n := canonical(v)
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Sprintf("%d:%v", bracket(n), n)
	}
	return fmt.Sprintf("%d:%s", bracket(n), data)
}

// canonical normaliza de forma recursiva.
func canonical(v any) any {
	n := normalize(v)
	switch x := n.(type) {
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = canonical(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = canonical(val)
		}
		return out
	}
	return n
}
