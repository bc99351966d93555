package cosmic

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// COSMIC config entries hold one RON value per file. Only the subset used by
// theme entries is handled here: numbers, booleans, strings, bare identifiers,
// tuples, structs (optionally named) and Some(..)/None.

// ronStruct is a parsed "(key: value, ...)".
type ronStruct struct {
	Fields map[string]any
}

// ronVariant is a named value such as "Dark((name: ..))" or "Name(key: value)".
// Raw holds the source text so an entry can be written back unchanged.
type ronVariant struct {
	Name  string
	Value any
	Raw   string
}

// ronIdent is a bare identifier such as an enum variant.
type ronIdent string

// ronNumber keeps the literal text so it can be parsed at the target precision.
type ronNumber string

// ronOption is Some(Value) when Valid, otherwise None.
type ronOption struct {
	Value any
	Valid bool
}

type ronParser struct {
	src string
	pos int
}

// parseRON parses a single RON value.
func parseRON(src string) (any, error) {
	p := &ronParser{src: src}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	return v, nil
}

func (p *ronParser) errorf(format string, args ...any) error {
	return fmt.Errorf("ron: offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *ronParser) skipSpace() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "//"):
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *ronParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *ronParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *ronParser) value() (any, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '(':
		return p.group()
	case c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		start := p.pos
		name := p.ident()
		p.skipSpace()
		switch {
		case name == "Some" && p.peek() == '(':
			p.pos++
			inner, err := p.value()
			if err != nil {
				return nil, err
			}
			if err := p.expect(')'); err != nil {
				return nil, err
			}
			return ronOption{Value: inner, Valid: true}, nil
		case name == "None":
			return ronOption{}, nil
		case name == "true":
			return true, nil
		case name == "false":
			return false, nil
		case p.peek() == '(':
			v, err := p.group()
			if err != nil {
				return nil, err
			}
			// A single-element tuple is the variant's payload.
			if items, ok := v.([]any); ok && len(items) == 1 {
				v = items[0]
			}
			return ronVariant{Name: name, Value: v, Raw: p.src[start:p.pos]}, nil
		}
		return ronIdent(name), nil
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

// group parses a parenthesised struct or tuple. A unit "()" is an empty tuple.
func (p *ronParser) group() (any, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return []any{}, nil
	}

	// A struct starts with "ident:".
	save := p.pos
	isStruct := false
	if isIdentStart(p.peek()) {
		p.ident()
		p.skipSpace()
		isStruct = p.peek() == ':'
	}
	p.pos = save

	if isStruct {
		s := &ronStruct{Fields: make(map[string]any)}
		for {
			p.skipSpace()
			if p.peek() == ')' {
				p.pos++
				return s, nil
			}
			key := p.ident()
			if key == "" {
				return nil, p.errorf("expected field name")
			}
			if err := p.expect(':'); err != nil {
				return nil, err
			}
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			s.Fields[key] = v
			if done, err := p.separator(); err != nil {
				return nil, err
			} else if done {
				return s, nil
			}
		}
	}

	var items []any
	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		if done, err := p.separator(); err != nil {
			return nil, err
		} else if done {
			return items, nil
		}
	}
}

// separator consumes "," or ")". It reports true when the group closed.
func (p *ronParser) separator() (bool, error) {
	p.skipSpace()
	switch p.peek() {
	case ',':
		p.pos++
		return false, nil
	case ')':
		p.pos++
		return true, nil
	default:
		return false, p.errorf("expected ',' or ')'")
	}
}

func (p *ronParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *ronParser) str() (string, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return "", p.errorf("invalid string: %v", err)
			}
			return s, nil
		default:
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *ronParser) number() (ronNumber, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE_", p.src[p.pos]) >= 0 {
		p.pos++
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return "", p.errorf("invalid number %q", text)
	}
	return ronNumber(text), nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// formatFloat writes f the way serde's RON serializer does for f32: shortest
// round-trip form, always with a decimal point.
func formatFloat(f float32) string {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return "0.0"
	}
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatStruct writes "(k: v, ...)" with the given field order.
func formatStruct(fields [][2]string) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f[0])
		b.WriteString(": ")
		b.WriteString(f[1])
	}
	b.WriteByte(')')
	return b.String()
}

// Typed accessors used when decoding entries.

func asFloat(v any) (float64, error) {
	n, ok := v.(ronNumber)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	return strconv.ParseFloat(string(n), 64)
}

func asFloat32(v any) (float32, error) {
	n, ok := v.(ronNumber)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	f, err := strconv.ParseFloat(string(n), 32)
	return float32(f), err
}

func asUint(v any) (uint32, error) {
	f, err := asFloat(v)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return 0, fmt.Errorf("expected unsigned integer, got %v", f)
	}
	return uint32(f), nil
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func asStruct(v any, fields ...string) (*ronStruct, error) {
	s, ok := v.(*ronStruct)
	if !ok {
		return nil, fmt.Errorf("expected struct, got %T", v)
	}
	var missing []string
	for _, f := range fields {
		if _, ok := s.Fields[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("struct missing fields: %s", strings.Join(missing, ", "))
	}
	return s, nil
}

func asOption(v any) (ronOption, error) {
	o, ok := v.(ronOption)
	if !ok {
		return ronOption{}, fmt.Errorf("expected Some(..) or None, got %T", v)
	}
	return o, nil
}

func asTuple(v any, n int) ([]any, error) {
	t, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected tuple, got %T", v)
	}
	if len(t) != n {
		return nil, fmt.Errorf("expected %d-tuple, got %d elements", n, len(t))
	}
	return t, nil
}
