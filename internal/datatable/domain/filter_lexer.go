package domain

import "strings"

// TokenKind es el tipo de un token del lenguaje de filtros.
type TokenKind int

const (
	TokClause TokenKind = iota
	TokAnd              // ','
	TokOr               // ';'
)

func (k TokenKind) String() string {
	switch k {
	case TokClause:
		return "Clause"
	case TokAnd:
		return "And"
	case TokOr:
		return "Or"
	default:
		return "Unknown"
	}
}

// FilterToken es un token del filtro: una cláusula `field(args)` o un delimitador.
// Args es el texto crudo entre paréntesis; puede contener comas.
type FilterToken struct {
	Kind  TokenKind
	Field string
	Args  string
}

// LexFilter divide un filtro en cláusulas y delimitadores.
// Los fragmentos mal formados (sin paréntesis, paréntesis sin cerrar, campo
// vacío) se descartan sin error.
func LexFilter(input string) []FilterToken {
	var tokens []FilterToken
	pos := 0

	for pos < len(input) {
		switch input[pos] {
		case ',':
			tokens = append(tokens, FilterToken{Kind: TokAnd})
			pos++
			continue
		case ';':
			tokens = append(tokens, FilterToken{Kind: TokOr})
			pos++
			continue
		case '(', ')':
			// Paréntesis sueltos: no forman cláusula
			pos++
			continue
		}

		// Secuencia máxima de caracteres que no son paréntesis ni delimitadores
		start := pos
		for pos < len(input) && !isFilterSpecial(input[pos]) {
			pos++
		}
		field := strings.TrimSpace(input[start:pos])

		if pos >= len(input) || input[pos] != '(' {
			// Sin lista de argumentos: fragmento ignorado
			continue
		}

		closing := strings.IndexByte(input[pos+1:], ')')
		if closing < 0 {
			// Paréntesis sin cerrar: el resto del filtro no aporta nada
			break
		}

		args := input[pos+1 : pos+1+closing]
		pos += closing + 2

		if field == "" {
			continue
		}
		tokens = append(tokens, FilterToken{Kind: TokClause, Field: field, Args: args})
	}

	return tokens
}

func isFilterSpecial(ch byte) bool {
	return ch == '(' || ch == ')' || ch == ',' || ch == ';'
}
