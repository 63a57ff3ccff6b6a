package domain

import (
	"regexp"
	"strconv"
	"strings"

	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// Clause es una operación sobre un campo: `field(operation:args)`.
// Flags sólo tiene sentido para match/contains ("i" = insensible a mayúsculas).
type Clause struct {
	Field     string
	Operation Operation
	Args      []string
	Flags     string
}

// ParseClauses interpreta los argumentos de un token de cláusula.
//
// Los argumentos se separan por ',' y cada uno por ':'. Un argumento con ':'
// abre una operación nueva; uno sin ':' es un argumento posicional más de la
// operación anterior, o un `match` implícito si es el primero. Así
// `age(gte:18,lte:65)` produce dos cláusulas y `status(in:a,b)` una con dos
// argumentos. Las operaciones desconocidas se descartan.
func ParseClauses(tok FilterToken) []Clause {
	if tok.Kind != TokClause || tok.Field == "" {
		return nil
	}

	type rawOp struct {
		name  string
		known bool
		op    Operation
		args  []string
	}

	var ops []*rawOp
	for _, arg := range strings.Split(tok.Args, ",") {
		pieces := strings.Split(arg, ":")
		for i := range pieces {
			pieces[i] = strings.TrimSpace(pieces[i])
		}

		if len(pieces) == 1 {
			if len(ops) > 0 {
				last := ops[len(ops)-1]
				last.args = append(last.args, pieces[0])
				continue
			}
			if pieces[0] == "" {
				// Cláusula vacía: `field()`
				continue
			}
			ops = append(ops, &rawOp{name: "match", known: true, op: OpMatch, args: []string{pieces[0]}})
			continue
		}

		op, known := ParseOperation(pieces[0])
		ops = append(ops, &rawOp{name: pieces[0], known: known, op: op, args: pieces[1:]})
	}

	var clauses []Clause
	for _, r := range ops {
		if !r.known {
			continue
		}
		c := Clause{Field: tok.Field, Operation: r.op, Args: r.args}
		if r.op.IsPattern() {
			c.Args = r.args[:1]
			if len(r.args) > 1 {
				c.Flags = r.args[1]
			}
		}
		clauses = append(clauses, c)
	}
	return clauses
}

// CaseInsensitive indica si la cláusula lleva el flag "i".
func (c Clause) CaseInsensitive() bool {
	return strings.ContainsRune(strings.ToLower(c.Flags), 'i')
}

// CompileClause traduce una cláusula a un predicado de campo.
// Devuelve false si la cláusula no aporta ninguna restricción.
func CompileClause(c Clause, schema Schema) (sharedDomain.Criterion, bool) {
	if c.Field == "" || len(c.Args) == 0 {
		return sharedDomain.Criterion{}, false
	}
	value := c.Args[0]

	switch c.Operation {
	case OpMatch:
		if c.CaseInsensitive() {
			return sharedDomain.Criterion{
				Field: c.Field,
				Op:    sharedDomain.OpRegex,
				Value: sharedDomain.Pattern{Expr: "^" + regexp.QuoteMeta(value) + "$", CaseInsensitive: true},
			}, true
		}
		// Igualdad exacta con el literal salvo que el esquema declare el tipo
		var v any = value
		if _, declared := schema[c.Field]; declared {
			v = schema.Cast(c.Field, value)
		}
		return sharedDomain.Criterion{Field: c.Field, Op: sharedDomain.OpEq, Value: v}, true

	case OpContains:
		return sharedDomain.Criterion{
			Field: c.Field,
			Op:    sharedDomain.OpRegex,
			Value: sharedDomain.Pattern{Expr: regexp.QuoteMeta(value), CaseInsensitive: c.CaseInsensitive()},
		}, true

	case OpExists:
		return sharedDomain.Criterion{Field: c.Field, Op: sharedDomain.OpExists, Value: parseExists(value)}, true

	case OpType:
		var alias any = value
		if code, err := strconv.Atoi(value); err == nil {
			alias = code
		}
		return sharedDomain.Criterion{Field: c.Field, Op: sharedDomain.OpType, Value: alias}, true

	case OpIn, OpNin:
		// El motor exige siempre una lista para in/nin
		return sharedDomain.Criterion{Field: c.Field, Op: comparisonOperator(c.Operation), Value: schema.CastAll(c.Field, c.Args)}, true

	case OpLte, OpLt, OpGt, OpGte, OpEq, OpNe:
		var v any
		if len(c.Args) > 1 {
			v = schema.CastAll(c.Field, c.Args)
		} else {
			v = schema.Cast(c.Field, value)
		}
		return sharedDomain.Criterion{Field: c.Field, Op: comparisonOperator(c.Operation), Value: v}, true
	}

	return sharedDomain.Criterion{}, false
}

func comparisonOperator(op Operation) sharedDomain.Operator {
	switch op {
	case OpLte:
		return sharedDomain.OpLte
	case OpLt:
		return sharedDomain.OpLt
	case OpGt:
		return sharedDomain.OpGt
	case OpGte:
		return sharedDomain.OpGte
	case OpIn:
		return sharedDomain.OpIn
	case OpNin:
		return sharedDomain.OpNin
	case OpNe:
		return sharedDomain.OpNe
	default:
		return sharedDomain.OpEq
	}
}

func parseExists(raw string) bool {
	switch strings.ToLower(raw) {
	case "false", "0", "no":
		return false
	default:
		return true
	}
}
