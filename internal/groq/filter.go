// Package groq builds the query strings sent to the content API.
package groq

import (
	"fmt"
	"strings"
)

// sanitizer strips the characters that would break out of a quoted match
// pattern or widen it. This narrows, but does not remove, injection risk for
// text that is interpolated rather than bound; bind values whenever possible.
var sanitizer = strings.NewReplacer(`\`, "", `"`, "", `'`, "", `*`, "")

// Sanitize removes \ " ' and * from free text and trims surrounding space.
func Sanitize(s string) string {
	return strings.TrimSpace(sanitizer.Replace(s))
}

// Filter accumulates the clauses of a document filter. Facet values are bound
// as $params; only the free-text term is interpolated (after Sanitize),
// because match patterns need the trailing wildcard inside the literal.
type Filter struct {
	clauses []string
	params  map[string]any
}

// NewFilter starts a filter over published documents of docType.
func NewFilter(docType string) *Filter {
	return &Filter{
		clauses: []string{
			fmt.Sprintf(`_type == %q`, docType),
			`!(_id in path("drafts.**"))`,
		},
		params: map[string]any{},
	}
}

// Where appends a literal clause. Clauses are parenthesized so an || inside
// one cannot escape the surrounding && chain.
func (f *Filter) Where(clause string) *Filter {
	f.clauses = append(f.clauses, "("+clause+")")
	return f
}

// Bind appends clause and binds name to value. Empty values are skipped, so
// absent query-string parameters do not filter.
func (f *Filter) Bind(clause, name, value string) *Filter {
	if strings.TrimSpace(value) == "" {
		return f
	}
	f.clauses = append(f.clauses, "("+clause+")")
	f.params[name] = strings.TrimSpace(value)
	return f
}

// Match adds a prefix match of term against any of fields. A term that is
// empty after sanitizing adds nothing.
func (f *Filter) Match(term string, fields ...string) *Filter {
	term = Sanitize(term)
	if term == "" || len(fields) == 0 {
		return f
	}
	ors := make([]string, len(fields))
	for i, field := range fields {
		ors[i] = fmt.Sprintf(`%s match "%s*"`, field, term)
	}
	f.clauses = append(f.clauses, "("+strings.Join(ors, " || ")+")")
	return f
}

// String renders the filter expression.
func (f *Filter) String() string {
	return strings.Join(f.clauses, " && ")
}

// Params returns the bound parameters.
func (f *Filter) Params() map[string]any {
	return f.params
}

// Query renders *[filter] | order(...) projection.
func (f *Filter) Query(projection, order string) string {
	var b strings.Builder
	b.WriteString("*[")
	b.WriteString(f.String())
	b.WriteString("]")
	if order != "" {
		b.WriteString(" | order(")
		b.WriteString(order)
		b.WriteString(")")
	}
	if projection != "" {
		b.WriteString(" ")
		b.WriteString(projection)
	}
	return b.String()
}
