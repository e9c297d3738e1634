package kb

import (
	"fmt"
	"strings"
)

// FilterExpr is an immutable OData filter expression accepted by the search
// index's $filter parameter.
type FilterExpr struct {
	expr string
}

// String returns the OData filter text; empty for the zero value.
func (f FilterExpr) String() string { return f.expr }

// IsZero reports whether the expression is empty.
func (f FilterExpr) IsZero() bool { return f.expr == "" }

// Eq builds "field eq value".
func Eq(field string, value any) FilterExpr {
	return FilterExpr{expr: fmt.Sprintf("%s eq %s", field, literal(value))}
}

// Ne builds "field ne value".
func Ne(field string, value any) FilterExpr {
	return FilterExpr{expr: fmt.Sprintf("%s ne %s", field, literal(value))}
}

// Gt builds "field gt value".
func Gt(field string, value any) FilterExpr {
	return FilterExpr{expr: fmt.Sprintf("%s gt %s", field, literal(value))}
}

// Ge builds "field ge value".
func Ge(field string, value any) FilterExpr {
	return FilterExpr{expr: fmt.Sprintf("%s ge %s", field, literal(value))}
}

// Lt builds "field lt value".
func Lt(field string, value any) FilterExpr {
	return FilterExpr{expr: fmt.Sprintf("%s lt %s", field, literal(value))}
}

// Le builds "field le value".
func Le(field string, value any) FilterExpr {
	return FilterExpr{expr: fmt.Sprintf("%s le %s", field, literal(value))}
}

// SearchIn builds "search.in(field, 'a,b,c', ',')".
func SearchIn(field string, values ...string) FilterExpr {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = strings.ReplaceAll(v, "'", "''")
	}
	return FilterExpr{expr: fmt.Sprintf("search.in(%s, '%s', ',')", field, strings.Join(escaped, ","))}
}

// And joins expressions with "and", parenthesizing each operand. Zero-value
// operands are skipped.
func And(exprs ...FilterExpr) FilterExpr {
	return join("and", exprs)
}

// Or joins expressions with "or", parenthesizing each operand. Zero-value
// operands are skipped.
func Or(exprs ...FilterExpr) FilterExpr {
	return join("or", exprs)
}

// Not negates an expression.
func Not(f FilterExpr) FilterExpr {
	if f.IsZero() {
		return f
	}
	return FilterExpr{expr: fmt.Sprintf("not (%s)", f.expr)}
}

func join(op string, exprs []FilterExpr) FilterExpr {
	nonZero := make([]FilterExpr, 0, len(exprs))
	for _, e := range exprs {
		if !e.IsZero() {
			nonZero = append(nonZero, e)
		}
	}
	switch len(nonZero) {
	case 0:
		return FilterExpr{}
	case 1:
		return nonZero[0]
	}
	parts := make([]string, len(nonZero))
	for i, e := range nonZero {
		parts[i] = "(" + e.expr + ")"
	}
	return FilterExpr{expr: strings.Join(parts, " "+op+" ")}
}

// literal renders a Go value as an OData literal. Strings are single-quoted
// with embedded quotes doubled.
func literal(v any) string {
	switch t := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case bool:
		return fmt.Sprintf("%t", t)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}
