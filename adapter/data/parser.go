package data

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

var (
	// ErrTrailingData is returned when there are unskippable bytes after
	// the JSON document ends.
	ErrTrailingData = errors.New("trailing data after JSON")
	// ErrInvalidUTF8Char is returned when an escaped \u sequence is not a
	// valid character.
	ErrInvalidUTF8Char = errors.New("invalid utf8 char")
	// ErrExpectedString is returned when a JSON object key is not a string.
	ErrExpectedString = errors.New("expected string")
	// ErrUnterminatedString is returned when the input ends inside a string.
	ErrUnterminatedString = errors.New("unterminated string")
	// ErrNoComma is returned when there is no comma between object members
	// or array items.
	ErrNoComma = errors.New("expected comma")
	// ErrNoColon is returned when there is no colon after an object key.
	ErrNoColon = errors.New("expected colon")
	// ErrInvalidNumber is returned when a value that is not a literal
	// cannot be read as a number.
	ErrInvalidNumber = errors.New("invalid JSON number")
	// ErrNotObject is returned when an entity is parsed from JSON that is
	// not an object.
	ErrNotObject = errors.New("expected JSON object")
)

// ErrInvalidLiteral is returned when true, false or null starts but is not
// correctly finished.
type ErrInvalidLiteral struct {
	Value string
}

// Error implements [error].
func (e ErrInvalidLiteral) Error() string {
	return fmt.Sprintf("invalid literal %q", e.Value)
}

// ErrUnknownEscapeChar is returned when a backslash precedes a character that
// cannot be escaped.
type ErrUnknownEscapeChar struct {
	Char byte
}

// Error implements [error].
func (e ErrUnknownEscapeChar) Error() string {
	return fmt.Sprintf("unknown escape char, %q", e.Char)
}

// ErrInvalidControlChar is returned when a raw control character appears
// inside a string.
type ErrInvalidControlChar struct {
	Char byte
}

// Error implements [error].
func (e ErrInvalidControlChar) Error() string {
	return fmt.Sprintf("invalid control char, %q", e.Char)
}

// ParseElements reads a JSON object into elements, keeping the member order of
// the source. Nested objects become sub-documents ([]domain.Element), arrays
// whose items are all objects become [][]domain.Element and other arrays
// become []any. Integral numbers are read as int64.
func ParseElements(raw []byte) ([]domain.Element, error) {
	p := &parser{data: raw, n: len(raw)}
	v, err := p.parse()
	if err != nil {
		return nil, err
	}
	elements, ok := v.([]domain.Element)
	if !ok {
		return nil, ErrNotObject
	}
	return elements, nil
}

// ParseEntity reads a JSON object into an entity named name.
func ParseEntity(name string, raw []byte) (*domain.Entity, error) {
	elements, err := ParseElements(raw)
	if err != nil {
		return nil, err
	}
	return domain.NewEntity(name, elements...), nil
}

type parser struct {
	data []byte
	i    int
	n    int
}

func (p *parser) parse() (any, error) {
	p.skip()
	val, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.i != p.n {
		return nil, ErrTrailingData
	}
	return val, nil
}

func (p *parser) skip() {
	for p.i < p.n {
		switch p.data[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		default:
			return
		}
	}
}

func (p *parser) value() (any, error) {
	if p.i >= p.n {
		return nil, io.ErrUnexpectedEOF
	}
	switch p.data[p.i] {
	case '{':
		return p.obj()
	case '[':
		return p.arr()
	case '"':
		return p.str()
	case 't':
		return p.expect("true", true)
	case 'f':
		return p.expect("false", false)
	case 'n':
		return p.expect("null", nil)
	default:
		return p.num()
	}
}

func (p *parser) obj() ([]domain.Element, error) {
	p.i++ // skip '{'
	p.skip()
	elements := []domain.Element{}
	if p.i < p.n && p.data[p.i] == '}' {
		p.i++
		return elements, nil
	}
	index := make(map[string]int)
	for {
		p.skip()
		if p.i >= p.n {
			return nil, io.ErrUnexpectedEOF
		}
		key, err := p.str()
		if err != nil {
			return nil, err
		}
		p.skip()
		if p.i >= p.n || p.data[p.i] != ':' {
			return nil, ErrNoColon
		}
		p.i++
		p.skip()
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		// duplicated keys keep the first position and the last value
		if pos, ok := index[key]; ok {
			elements[pos].Value = val
		} else {
			index[key] = len(elements)
			elements = append(elements, domain.NewElement(key, val))
		}
		p.skip()
		if p.i >= p.n {
			return nil, io.ErrUnexpectedEOF
		}
		if p.data[p.i] == '}' {
			p.i++
			return elements, nil
		}
		if p.data[p.i] != ',' {
			return nil, ErrNoComma
		}
		p.i++
	}
}

func (p *parser) arr() (any, error) {
	p.i++ // skip '['
	p.skip()
	out := []any{}
	if p.i < p.n && p.data[p.i] == ']' {
		p.i++
		return out, nil
	}
	for {
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, val)
		p.skip()
		if p.i >= p.n {
			return nil, io.ErrUnexpectedEOF
		}
		if p.data[p.i] == ']' {
			p.i++
			break
		}
		if p.data[p.i] != ',' {
			return nil, ErrNoComma
		}
		p.i++
		p.skip()
	}
	return subDocuments(out), nil
}

// subDocuments returns items as [][]domain.Element when every item is an
// object.
func subDocuments(items []any) any {
	docs := make([][]domain.Element, len(items))
	for n, item := range items {
		doc, ok := item.([]domain.Element)
		if !ok {
			return items
		}
		docs[n] = doc
	}
	return docs
}

func (p *parser) str() (string, error) {
	if p.data[p.i] != '"' {
		return "", ErrExpectedString
	}
	for i := p.i + 1; i < p.n; i++ {
		switch p.data[i] {
		case '\\':
			i++
		case '"':
			s, err := p.unescape(p.data[p.i+1 : i])
			if err != nil {
				return "", err
			}
			p.i = i + 1
			return s, nil
		}
	}
	return "", ErrUnterminatedString
}

func (p *parser) unescape(b []byte) (string, error) {
	var out strings.Builder
	out.Grow(len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '\\':
			i++
			if i >= len(b) {
				return "", ErrUnterminatedString
			}
			switch b[i] {
			case '"', '\\', '/', '\'':
				out.WriteByte(b[i])
			case 'b':
				out.WriteByte('\b')
			case 'f':
				out.WriteByte('\f')
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case 'u':
				r, size, err := p.unicode(b[i-1:])
				if err != nil {
					return "", err
				}
				out.WriteRune(r)
				i += size - 2
			default:
				return "", ErrUnknownEscapeChar{Char: b[i]}
			}
			i++
		case c < ' ':
			return "", ErrInvalidControlChar{Char: c}
		case c < utf8.RuneSelf:
			out.WriteByte(c)
			i++
		default:
			r, size := utf8.DecodeRune(b[i:])
			if r == utf8.RuneError && size == 1 {
				return "", ErrInvalidUTF8Char
			}
			out.WriteRune(r)
			i += size
		}
	}
	return out.String(), nil
}

// unicode reads a \uXXXX escape, joining surrogate pairs. It returns the rune
// and the number of bytes consumed.
func (p *parser) unicode(b []byte) (rune, int, error) {
	r := hexRune(b)
	if r < 0 {
		return 0, 0, ErrInvalidUTF8Char
	}
	if !utf16.IsSurrogate(r) {
		return r, 6, nil
	}
	if dec := utf16.DecodeRune(r, hexRune(b[6:])); dec != utf8.RuneError {
		return dec, 12, nil
	}
	return utf8.RuneError, 6, nil
}

func hexRune(b []byte) rune {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return -1
	}
	r, err := strconv.ParseUint(string(b[2:6]), 16, 32)
	if err != nil {
		return -1
	}
	return rune(r)
}

func (p *parser) num() (any, error) {
	start := p.i
	integral := true
loop:
	for p.i < p.n {
		switch c := p.data[p.i]; {
		case c >= '0' && c <= '9', c == '-', c == '+':
		case c == '.', c == 'e', c == 'E':
			integral = false
		default:
			break loop
		}
		p.i++
	}
	s := string(p.data[start:p.i])
	if !validNumber(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	if integral {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v, nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNumber, err)
	}
	return v, nil
}

// validNumber checks s against the JSON number grammar: an optional minus,
// an integer part without leading zeros, an optional fraction with at least
// one digit and an optional exponent with at least one digit.
func validNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		i = digits(s, i)
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		j := digits(s, i+1)
		if j == i+1 {
			return false
		}
		i = j
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		j := digits(s, i)
		if j == i {
			return false
		}
		i = j
	}
	return i == len(s)
}

func digits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

func (p *parser) expect(lit string, val any) (any, error) {
	end := p.i + len(lit)
	if end > p.n || string(p.data[p.i:end]) != lit {
		literal := p.data[p.i:min(p.n, end)]
		return nil, ErrInvalidLiteral{Value: string(literal)}
	}
	p.i = end
	return val, nil
}
