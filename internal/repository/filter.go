package repository

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/vedran77/concorde/internal/domain"
)

type Op string

const (
	OpEq    Op = "="
	OpNotEq Op = "!="
	OpLike  Op = "~"
	OpAnyEq Op = "?="
)

// Condition compares one top-level document field with a literal.
type Condition struct {
	Field string
	Op    Op
	Value string
}

// Filter is a conjunction of conditions. The empty filter matches every
// document. Its textual form is the document store's filter syntax:
//
//	from = "a" && to = "b"
//	members ?= "a"
//	name ~ "gen"
type Filter []Condition

var fieldRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func Where(field string, op Op, value any) Filter {
	return Filter{{Field: field, Op: op, Value: literal(value)}}
}

func Eq(field string, value any) Filter {
	return Where(field, OpEq, value)
}

func NotEq(field string, value any) Filter {
	return Where(field, OpNotEq, value)
}

func Like(field string, value any) Filter {
	return Where(field, OpLike, value)
}

// Has matches documents whose array field contains value.
func Has(field string, value any) Filter {
	return Where(field, OpAnyEq, value)
}

// And returns the conjunction of f and others.
func (f Filter) And(others ...Filter) Filter {
	out := make(Filter, 0, len(f))
	out = append(out, f...)
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, c := range f {
		parts = append(parts, fmt.Sprintf("%s %s %s", c.Field, c.Op, quote(c.Value)))
	}
	return strings.Join(parts, " && ")
}

// Validate checks field names and operators so adapters can splice field
// names into their native query language.
func (f Filter) Validate() error {
	for _, c := range f {
		if !fieldRegex.MatchString(c.Field) {
			return domain.NewValidationError("filter", fmt.Sprintf("invalid field name %q", c.Field))
		}
		switch c.Op {
		case OpEq, OpNotEq, OpLike, OpAnyEq:
		default:
			return domain.NewValidationError("filter", fmt.Sprintf("unsupported operator %q", c.Op))
		}
	}
	return nil
}

// Match evaluates the filter against a document decoded into a generic map.
func (f Filter) Match(doc map[string]any) bool {
	for _, c := range f {
		if !c.match(doc[c.Field]) {
			return false
		}
	}
	return true
}

func (c Condition) match(v any) bool {
	switch val := v.(type) {
	case []any:
		switch c.Op {
		case OpEq:
			return false
		case OpNotEq:
			return true
		case OpLike:
			for _, e := range val {
				if s, ok := e.(string); ok && containsFold(s, c.Value) {
					return true
				}
			}
			return false
		case OpAnyEq:
			for _, e := range val {
				if s, ok := e.(string); ok && s == c.Value {
					return true
				}
			}
			return false
		}
	case nil:
		switch c.Op {
		case OpEq:
			return c.Value == ""
		case OpNotEq:
			return c.Value != ""
		}
		return false
	default:
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		switch c.Op {
		case OpEq, OpAnyEq:
			return s == c.Value
		case OpNotEq:
			return s != c.Value
		case OpLike:
			return containsFold(s, c.Value)
		}
	}
	return false
}

// DocumentFields decodes a record into the generic form Match works on.
func DocumentFields(rec any) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFilter reads the textual filter syntax. Literals may be single or
// double quoted; a backslash escapes the next character.
func ParseFilter(s string) (Filter, error) {
	p := &filterParser{src: s}
	var f Filter
	p.skipSpace()
	if p.eof() {
		return f, nil
	}
	for {
		c, err := p.condition()
		if err != nil {
			return nil, domain.NewValidationError("filter", err.Error())
		}
		f = append(f, c)

		p.skipSpace()
		if p.eof() {
			return f, nil
		}
		if !strings.HasPrefix(p.src[p.pos:], "&&") {
			return nil, domain.NewValidationError("filter", fmt.Sprintf("expected && at offset %d", p.pos))
		}
		p.pos += 2
		p.skipSpace()
	}
}

type filterParser struct {
	src string
	pos int
}

func (p *filterParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *filterParser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *filterParser) condition() (Condition, error) {
	start := p.pos
	for !p.eof() && isFieldChar(p.src[p.pos]) {
		p.pos++
	}
	field := p.src[start:p.pos]
	if !fieldRegex.MatchString(field) {
		return Condition{}, fmt.Errorf("expected field name at offset %d", start)
	}

	p.skipSpace()
	var op Op
	switch rest := p.src[p.pos:]; {
	case strings.HasPrefix(rest, string(OpAnyEq)):
		op = OpAnyEq
	case strings.HasPrefix(rest, string(OpNotEq)):
		op = OpNotEq
	case strings.HasPrefix(rest, string(OpEq)):
		op = OpEq
	case strings.HasPrefix(rest, string(OpLike)):
		op = OpLike
	default:
		return Condition{}, fmt.Errorf("expected operator at offset %d", p.pos)
	}
	p.pos += len(op)

	p.skipSpace()
	value, err := p.literal()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: field, Op: op, Value: value}, nil
}

func (p *filterParser) literal() (string, error) {
	if p.eof() || (p.src[p.pos] != '"' && p.src[p.pos] != '\'') {
		return "", fmt.Errorf("expected quoted literal at offset %d", p.pos)
	}
	q := p.src[p.pos]
	p.pos++

	var b strings.Builder
	for !p.eof() {
		ch := p.src[p.pos]
		switch {
		case ch == '\\' && p.pos+1 < len(p.src):
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case ch == q:
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(ch)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated literal")
}

func isFieldChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func literal(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// LikePattern turns a substring into a LIKE pattern, escaping wildcards with
// a backslash.
func LikePattern(substr string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(substr) + "%"
}
