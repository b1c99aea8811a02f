// Package likepattern converts SQL LIKE patterns into the pattern syntaxes
// understood by engines without a LIKE operator.
//
// In a LIKE pattern % matches any run of characters (including none) and _
// matches exactly one character. A backslash escapes the next character.
package likepattern

import (
	"regexp"
	"strings"
)

// Regex returns an anchored regular expression source equivalent to pattern.
// Every other character is quoted.
func Regex(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')
	walk(pattern, func(r rune, special bool) {
		switch {
		case special && r == '%':
			b.WriteString(".*")
		case special && r == '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	})
	b.WriteByte('$')
	return b.String()
}

// Compile returns the compiled form of [Regex]. The (?s) flag lets wildcards
// match line breaks.
func Compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?s)" + Regex(pattern))
}

// Wildcard returns the pattern in Lucene wildcard syntax, where * matches any
// run and ? matches one character. Literal * ? and \ are escaped.
func Wildcard(pattern string) string {
	var b strings.Builder
	walk(pattern, func(r rune, special bool) {
		switch {
		case special && r == '%':
			b.WriteByte('*')
		case special && r == '_':
			b.WriteByte('?')
		case r == '*' || r == '?' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	})
	return b.String()
}

// HasWildcards reports whether pattern has an unescaped % or _.
func HasWildcards(pattern string) bool {
	found := false
	walk(pattern, func(r rune, special bool) {
		if special {
			found = true
		}
	})
	return found
}

// walk calls fn for every rune of pattern, with special set for unescaped %
// and _.
func walk(pattern string, fn func(r rune, special bool)) {
	escaped := false
	for _, r := range pattern {
		if escaped {
			fn(r, false)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%', '_':
			fn(r, true)
		default:
			fn(r, false)
		}
	}
	if escaped {
		fn('\\', false)
	}
}
