package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldType es el tipo declarado de un campo, usado para convertir los
// argumentos textuales del filtro.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "bool"
	FieldDate   FieldType = "date"
)

// Schema asocia rutas de campo a tipos. Un esquema nil es válido: todos los
// campos se infieren.
type Schema map[string]FieldType

// Cast convierte un argumento según el tipo declarado del campo. Si el campo
// no está declarado se infiere: entero, decimal, booleano o texto. Los
// numerales con ceros a la izquierda ("02134") se infieren como texto; para
// compararlos como número hay que declarar el campo "number". Una conversión
// fallida conserva el texto original.
func (s Schema) Cast(field, raw string) any {
	switch s[field] {
	case FieldString:
		return raw
	case FieldNumber:
		if n, ok := parseNumber(raw); ok {
			return n
		}
		return raw
	case FieldBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
		return raw
	case FieldDate:
		if t, ok := parseDate(raw); ok {
			return t
		}
		return raw
	default:
		return inferValue(raw)
	}
}

// CastAll convierte una lista de argumentos manteniendo el orden.
func (s Schema) CastAll(field string, raws []string) []any {
	out := make([]any, 0, len(raws))
	for _, raw := range raws {
		out = append(out, s.Cast(field, raw))
	}
	return out
}

func inferValue(raw string) any {
	if hasLeadingZero(raw) {
		return raw
	}
	if n, ok := parseNumber(raw); ok {
		return n
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

// hasLeadingZero detecta códigos como "007" o "-01"; "0" y "0.5" no cuentan.
func hasLeadingZero(raw string) bool {
	digits := strings.TrimPrefix(raw, "-")
	return len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9'
}

func parseNumber(raw string) (any, bool) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !strings.ContainsAny(raw, "xXnN") {
		return f, true
	}
	return nil, false
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseSchemas decodifica esquemas por colección desde JSON:
//
//	{"people": {"age": "number", "born": "date"}}
func ParseSchemas(data []byte) (map[string]Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]Schema{}, nil
	}

	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid schemas: %w", err)
	}

	schemas := make(map[string]Schema, len(raw))
	for collection, fields := range raw {
		schema := make(Schema, len(fields))
		for field, typ := range fields {
			ft := FieldType(strings.ToLower(typ))
			switch ft {
			case FieldString, FieldNumber, FieldBool, FieldDate:
				schema[field] = ft
			default:
				return nil, fmt.Errorf("invalid type %q for field %s.%s", typ, collection, field)
			}
		}
		schemas[collection] = schema
	}
	return schemas, nil
}
