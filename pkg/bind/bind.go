// Package bind allocates bind parameters for text query dialects.
//
// Condition values are never written into query text. Each value is given a
// parameter name derived from its field, with a numeric suffix when the same
// field appears more than once, and the [Style] decides how the parameter is
// referenced in the statement.
package bind

import (
	"strconv"
	"strings"
	"unicode"
)

// Style renders the placeholder of a parameter. Index is one based.
type Style func(name string, index int) string

// Placeholder styles used by the supported dialects.
var (
	// At renders @name (AQL).
	At Style = func(name string, _ int) string { return "@" + name }
	// Dollar renders $name (N1QL, Oracle NoSQL).
	Dollar Style = func(name string, _ int) string { return "$" + name }
	// Colon renders :name (OSQL).
	Colon Style = func(name string, _ int) string { return ":" + name }
	// Numbered renders $1, $2 and so on (PostgreSQL).
	Numbered Style = func(_ string, index int) string { return "$" + strconv.Itoa(index) }
	// Question renders ? (CQL).
	Question Style = func(string, int) string { return "?" }
)

// Params collects the parameters of a single statement.
type Params struct {
	style  Style
	names  []string
	values []any
	used   map[string]int
}

// New returns an empty parameter set rendering placeholders with style.
func New(style Style) *Params {
	return &Params{style: style, used: make(map[string]int)}
}

// Add registers value under a name derived from field and returns the
// placeholder to write in the statement.
func (p *Params) Add(field string, value any) string {
	base := Sanitize(field)
	name := base
	if n := p.used[base]; n > 0 {
		name = base + "_" + strconv.Itoa(n)
	}
	p.used[base]++
	// a suffixed name can collide with a field that is literally named so
	for p.used[name] > 0 && name != base {
		name += "_"
	}
	if name != base {
		p.used[name]++
	}
	p.names = append(p.names, name)
	p.values = append(p.values, value)
	return p.style(name, len(p.values))
}

// Names returns parameter names in the order they were added.
func (p *Params) Names() []string { return p.names }

// Values returns parameter values in the order they were added.
func (p *Params) Values() []any { return p.values }

// Len returns the number of parameters.
func (p *Params) Len() int { return len(p.values) }

// Map returns the values keyed by parameter name, without the placeholder
// prefix.
func (p *Params) Map() map[string]any {
	m := make(map[string]any, len(p.names))
	for n, name := range p.names {
		m[name] = p.values[n]
	}
	return m
}

// Sanitize turns a field path into a valid parameter name. Characters other
// than letters, digits and underscores become underscores, and a leading digit
// is prefixed with "p".
func Sanitize(field string) string {
	if field == "" {
		return "p"
	}
	var b strings.Builder
	for n, r := range field {
		if n == 0 && unicode.IsDigit(r) {
			b.WriteByte('p')
		}
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
