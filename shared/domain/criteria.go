package domain

import "regexp"

// ---------------- Operadores ----------------

// Operator es el operador de un predicado de campo ya compilado.
// Cada backend lo traduce a su representación nativa.
type Operator string

const (
	OpEq     Operator = "eq"
	OpNe     Operator = "ne"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpIn     Operator = "in"
	OpNin    Operator = "nin"
	OpExists Operator = "exists"
	OpType   Operator = "type"
	OpRegex  Operator = "regex"
)

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// ---------------- Pattern ----------------

// Pattern es el valor de un Criterion con OpRegex.
type Pattern struct {
	Expr            string
	CaseInsensitive bool
}

// Regexp compila el patrón con la sintaxis de Go (compatible con PCRE para
// los patrones que genera el compilador de filtros).
func (p Pattern) Regexp() (*regexp.Regexp, error) {
	if p.CaseInsensitive {
		return regexp.Compile("(?i)" + p.Expr)
	}
	return regexp.Compile(p.Expr)
}

// ---------------- Criterion ----------------

// Criterion describe una condición neutral sobre un campo.
// Value es un escalar, una lista []any (in/nin o varios argumentos),
// un bool (exists) o un Pattern (regex).
type Criterion struct {
	Field string
	Op    Operator
	Value any
}

func (c Criterion) ToConditions() []Criterion {
	return []Criterion{c}
}

// ---------------- Criteria interface ----------------

// Criteria es un nodo del árbol de predicados.
// ToConditions aplana el árbol (útil para logs y validaciones); la estructura
// lógica sólo se conserva recorriendo los nodos.
type Criteria interface {
	ToConditions() []Criterion
}

// ---------------- Composite Criteria ----------------

type CompositeCriteria struct {
	Operator  LogicalOperator
	Criterias []Criteria
}

func (c CompositeCriteria) ToConditions() []Criterion {
	var all []Criterion
	for _, crit := range c.Criterias {
		all = append(all, crit.ToConditions()...)
	}
	return all
}

// ---------------- Text Criteria ----------------

// SearchOptions son las opciones de la búsqueda de texto libre.
type SearchOptions struct {
	Language           string `json:"language,omitempty"`
	CaseSensitive      bool   `json:"caseSensitive,omitempty"`
	DiacriticSensitive bool   `json:"diacriticSensitive,omitempty"`
}

// TextCriteria es la búsqueda de texto libre sobre el documento completo.
type TextCriteria struct {
	Search  string
	Options SearchOptions
}

func (c TextCriteria) ToConditions() []Criterion {
	return nil
}

// ---------------- Helpers ----------------

// And crea un CompositeCriteria con operador AND
func And(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpAnd, Criterias: criterias}
}

// Or crea un CompositeCriteria con operador OR
func Or(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpOr, Criterias: criterias}
}
