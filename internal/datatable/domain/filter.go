package domain

import (
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// CompileFilter compila un filtro textual al árbol OR de grupos AND.
//
// Devuelve false cuando el filtro no aporta ninguna restricción (vacío, mal
// formado o con todas las cláusulas descartadas); en ese caso el llamador no
// debe aplicar ningún filtro.
func CompileFilter(filter string, schema Schema) (sharedDomain.Criteria, bool) {
	groups := ParseFilterTokens(LexFilter(filter))

	compiled := make([][]sharedDomain.Criterion, 0, len(groups))
	for _, group := range groups {
		var conds []sharedDomain.Criterion
		for _, tok := range group {
			for _, clause := range ParseClauses(tok) {
				if crit, ok := CompileClause(clause, schema); ok {
					conds = append(conds, crit)
				}
			}
		}
		compiled = append(compiled, conds)
	}

	return AssemblePredicate(compiled)
}

// AssemblePredicate reconstruye la forma OR-de-AND y elimina los grupos que
// quedaron vacíos. Un OR vacío es "sin filtro" (false), nunca "ningún documento".
func AssemblePredicate(groups [][]sharedDomain.Criterion) (sharedDomain.Criteria, bool) {
	var ands []sharedDomain.Criteria
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		crits := make([]sharedDomain.Criteria, 0, len(group))
		for _, c := range group {
			crits = append(crits, c)
		}
		ands = append(ands, sharedDomain.And(crits...))
	}

	if len(ands) == 0 {
		return nil, false
	}
	return sharedDomain.Or(ands...), true
}
