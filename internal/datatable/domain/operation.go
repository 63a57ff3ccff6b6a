package domain

import "strings"

// Operation es el nombre de operación de una cláusula del lenguaje de filtros.
type Operation int

const (
	OpMatch Operation = iota
	OpContains
	OpLte
	OpLt
	OpGt
	OpGte
	OpIn
	OpNin
	OpEq
	OpNe
	OpExists
	OpType
)

var operationNames = map[string]Operation{
	"match":    OpMatch,
	"contains": OpContains,
	"lte":      OpLte,
	"lt":       OpLt,
	"gt":       OpGt,
	"gte":      OpGte,
	"in":       OpIn,
	"nin":      OpNin,
	"eq":       OpEq,
	"ne":       OpNe,
	"exists":   OpExists,
	"type":     OpType,
}

// ParseOperation resuelve un nombre de operación. Los nombres son sensibles a
// mayúsculas, igual que los operadores del motor de consultas.
func ParseOperation(name string) (Operation, bool) {
	op, ok := operationNames[strings.TrimSpace(name)]
	return op, ok
}

func (o Operation) String() string {
	switch o {
	case OpMatch:
		return "match"
	case OpContains:
		return "contains"
	case OpLte:
		return "lte"
	case OpLt:
		return "lt"
	case OpGt:
		return "gt"
	case OpGte:
		return "gte"
	case OpIn:
		return "in"
	case OpNin:
		return "nin"
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpExists:
		return "exists"
	case OpType:
		return "type"
	default:
		return "unknown"
	}
}

// IsPattern indica si la operación produce un patrón (match/contains).
func (o Operation) IsPattern() bool {
	return o == OpMatch || o == OpContains
}
