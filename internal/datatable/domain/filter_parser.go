package domain

// ParseFilterTokens pliega la secuencia de tokens en la estructura de dos
// niveles: una lista OR de grupos AND de cláusulas.
//
// Una cláusula precedida inmediatamente por ';' cierra el grupo actual y abre
// uno nuevo; precedida por ',' (o por nada) se añade al grupo actual.
func ParseFilterTokens(tokens []FilterToken) [][]FilterToken {
	var groups [][]FilterToken
	var current []FilterToken

	for i, tok := range tokens {
		if tok.Kind != TokClause {
			continue
		}
		if i > 0 && tokens[i-1].Kind == TokOr && len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, tok)
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
