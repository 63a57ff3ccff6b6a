package inmem

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/davicafu/gridquery/internal/datatable/domain"
	sharedDomain "github.com/davicafu/gridquery/shared/domain"
)

// matcher es un predicado ya compilado sobre un documento.
type matcher func(doc domain.Document) bool

func matchAll(domain.Document) bool { return true }

// compile recorre el árbol de criterios una sola vez (los patrones se
// compilan aquí) y devuelve el predicado equivalente.
func compile(criteria sharedDomain.Criteria) (matcher, error) {
	switch c := criteria.(type) {
	case nil:
		return matchAll, nil

	case sharedDomain.CompositeCriteria:
		children := make([]matcher, 0, len(c.Criterias))
		for _, child := range c.Criterias {
			m, err := compile(child)
			if err != nil {
				return nil, err
			}
			children = append(children, m)
		}
		if len(children) == 0 {
			return matchAll, nil
		}
		if c.Operator == sharedDomain.OpOr {
			return func(doc domain.Document) bool {
				for _, m := range children {
					if m(doc) {
						return true
					}
				}
				return false
			}, nil
		}
		return func(doc domain.Document) bool {
			for _, m := range children {
				if !m(doc) {
					return false
				}
			}
			return true
		}, nil

	case sharedDomain.Criterion:
		return compileCriterion(c)

	case sharedDomain.TextCriteria:
		return compileText(c), nil
	}

	return nil, fmt.Errorf("unsupported criteria type %T", criteria)
}

func compileCriterion(c sharedDomain.Criterion) (matcher, error) {
	path := strings.Split(c.Field, ".")

	switch c.Op {
	case sharedDomain.OpEq:
		return func(doc domain.Document) bool {
			return anyCandidate(doc, path, func(v any) bool { return equalValues(v, c.Value) })
		}, nil

	case sharedDomain.OpNe:
		return func(doc domain.Document) bool {
			return !anyCandidate(doc, path, func(v any) bool { return equalValues(v, c.Value) })
		}, nil

	case sharedDomain.OpGt, sharedDomain.OpGte, sharedDomain.OpLt, sharedDomain.OpLte:
		accept := rangeCheck(c.Op)
		return func(doc domain.Document) bool {
			return anyCandidate(doc, path, func(v any) bool {
				return sameBracket(v, c.Value) && accept(compareValues(v, c.Value))
			})
		}, nil

	case sharedDomain.OpIn, sharedDomain.OpNin:
		list := asList(c.Value)
		in := func(doc domain.Document) bool {
			return anyCandidate(doc, path, func(v any) bool {
				for _, want := range list {
					if equalValues(v, want) {
						return true
					}
				}
				return false
			})
		}
		if c.Op == sharedDomain.OpNin {
			return func(doc domain.Document) bool { return !in(doc) }, nil
		}
		return in, nil

	case sharedDomain.OpExists:
		want, _ := c.Value.(bool)
		return func(doc domain.Document) bool {
			_, found := resolve(doc, path)
			return found == want
		}, nil

	case sharedDomain.OpType:
		want, err := typeBracket(c.Value)
		if err != nil {
			return nil, err
		}
		return func(doc domain.Document) bool {
			values, found := resolve(doc, path)
			if !found {
				return false
			}
			for _, v := range values {
				n := normalize(v)
				if bracket(n) == want {
					return true
				}
				if arr, ok := n.([]any); ok {
					for _, elem := range arr {
						if bracket(normalize(elem)) == want {
							return true
						}
					}
				}
			}
			return false
		}, nil

	case sharedDomain.OpRegex:
		pattern, ok := c.Value.(sharedDomain.Pattern)
		if !ok {
			return nil, fmt.Errorf("regex criterion on %s without pattern", c.Field)
		}
		re, err := pattern.Regexp()
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for %s: %w", c.Field, err)
		}
		return func(doc domain.Document) bool {
			return anyCandidate(doc, path, func(v any) bool {
				s, ok := v.(string)
				return ok && re.MatchString(s)
			})
		}, nil
	}

	return nil, fmt.Errorf("unsupported operator %q", c.Op)
}

func rangeCheck(op sharedDomain.Operator) func(int) bool {
	switch op {
	case sharedDomain.OpGt:
		return func(c int) bool { return c > 0 }
	case sharedDomain.OpGte:
		return func(c int) bool { return c >= 0 }
	case sharedDomain.OpLt:
		return func(c int) bool { return c < 0 }
	default:
		return func(c int) bool { return c <= 0 }
	}
}

func asList(v any) []any {
	if list, ok := normalize(v).([]any); ok {
		return list
	}
	return []any{v}
}

// typeBracket traduce alias y códigos numéricos de tipo BSON.
func typeBracket(v any) (int, error) {
	switch x := v.(type) {
	case int:
		switch x {
		case 1, 16, 18, 19:
			return bracketNumber, nil
		case 2:
			return bracketString, nil
		case 3:
			return bracketObject, nil
		case 4:
			return bracketArray, nil
		case 8:
			return bracketBool, nil
		case 9:
			return bracketDate, nil
		case 10:
			return bracketNull, nil
		}
		return bracketOther, nil
	case string:
		switch strings.ToLower(x) {
		case "number", "double", "int", "long", "decimal":
			return bracketNumber, nil
		case "string":
			return bracketString, nil
		case "object":
			return bracketObject, nil
		case "array":
			return bracketArray, nil
		case "bool":
			return bracketBool, nil
		case "date":
			return bracketDate, nil
		case "null":
			return bracketNull, nil
		}
		return bracketOther, nil
	}
	return 0, fmt.Errorf("invalid type alias %v", v)
}

// resolve devuelve los valores en la ruta (varios si atraviesa arrays de
// subdocumentos) e indica si el campo existe.
func resolve(v any, path []string) ([]any, bool) {
	if len(path) == 0 {
		return []any{v}, true
	}

	switch x := normalize(v).(type) {
	case map[string]any:
		child, ok := x[path[0]]
		if !ok {
			return nil, false
		}
		return resolve(child, path[1:])
	case []any:
		if idx, err := strconv.Atoi(path[0]); err == nil {
			if idx >= 0 && idx < len(x) {
				return resolve(x[idx], path[1:])
			}
			return nil, false
		}
		var out []any
		for _, elem := range x {
			if _, isDoc := normalize(elem).(map[string]any); !isDoc {
				continue
			}
			if values, ok := resolve(elem, path); ok {
				out = append(out, values...)
			}
		}
		return out, len(out) > 0
	}
	return nil, false
}

// anyCandidate aplica fn a cada valor del campo; los arrays aportan también
// cada uno de sus elementos. Un campo ausente se evalúa como null.
func anyCandidate(doc domain.Document, path []string, fn func(any) bool) bool {
	values, found := resolve(doc, path)
	if !found {
		return fn(nil)
	}
	for _, v := range values {
		if fn(v) {
			return true
		}
		if arr, ok := normalize(v).([]any); ok {
			for _, elem := range arr {
				if fn(elem) {
					return true
				}
			}
		}
	}
	return false
}

// ---------------- Búsqueda de texto ----------------

type textQuery struct {
	terms    []string
	negated  []string
	phrases  []string
	foldText func(string) string
}

func compileText(c sharedDomain.TextCriteria) matcher {
	tq := parseTextQuery(c)
	return func(doc domain.Document) bool {
		var sb strings.Builder
		collectText(map[string]any(doc), &sb)
		return tq.matches(tq.foldText(sb.String()))
	}
}

func parseTextQuery(c sharedDomain.TextCriteria) textQuery {
	var tq textQuery
	tq.foldText = func(s string) string {
		if !c.Options.CaseSensitive {
			s = strings.ToLower(s)
		}
		if !c.Options.DiacriticSensitive {
			s = removeDiacritics(s)
		}
		return s
	}

	rest := c.Search
	for {
		start := strings.IndexByte(rest, '"')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start+1:], '"')
		if end < 0 {
			break
		}
		if phrase := strings.TrimSpace(rest[start+1 : start+1+end]); phrase != "" {
			tq.phrases = append(tq.phrases, tq.foldText(phrase))
		}
		rest = rest[:start] + " " + rest[start+end+2:]
	}

	for _, word := range strings.Fields(rest) {
		if strings.HasPrefix(word, "-") && len(word) > 1 {
			tq.negated = append(tq.negated, tokenize(tq.foldText(word[1:]))...)
			continue
		}
		tq.terms = append(tq.terms, tokenize(tq.foldText(word))...)
	}
	return tq
}

func (tq textQuery) matches(text string) bool {
	words := make(map[string]struct{})
	for _, w := range tokenize(text) {
		words[w] = struct{}{}
	}

	for _, phrase := range tq.phrases {
		if !strings.Contains(text, phrase) {
			return false
		}
	}
	for _, neg := range tq.negated {
		if _, ok := words[neg]; ok {
			return false
		}
	}
	if len(tq.terms) == 0 {
		return len(tq.phrases) > 0
	}
	for _, term := range tq.terms {
		if _, ok := words[term]; ok {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func collectText(v any, sb *strings.Builder) {
	switch x := normalize(v).(type) {
	case string:
		sb.WriteString(x)
		sb.WriteByte(' ')
	case map[string]any:
		for _, k := range sortedKeys(x) {
			collectText(x[k], sb)
		}
	case []any:
		for _, elem := range x {
			collectText(elem, sb)
		}
	}
}

func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
