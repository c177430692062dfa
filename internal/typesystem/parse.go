package typesystem

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/funvibe/liketype/internal/config"
)

// Scope resolves names found in a type expression.
type Scope interface {
	Lookup(name string) (Type, error)
}

// ParseType parses a type expression such as "Map[String, List[Int]]",
// "Optional[T]", "Int | String" or "Callable[[Int], Bool]".
func ParseType(src string, scope Scope) (Type, error) {
	p := &parser{src: src, scope: scope}
	p.next()
	t, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error. Intended for tests
// and static declarations.
func MustParseType(src string, scope Scope) Type {
	t, err := ParseType(src, scope)
	if err != nil {
		panic(err)
	}
	return t
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokString
	tokNumber
	tokLBracket
	tokRBracket
	tokComma
	tokPipe
	tokEllipsis
	tokIllegal
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	src   string
	pos   int
	tok   token
	scope Scope
	err   error
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Source: p.src, Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.src[p.pos]
	switch {
	case c == '[':
		p.pos++
		p.tok = token{kind: tokLBracket, text: "[", pos: start}
	case c == ']':
		p.pos++
		p.tok = token{kind: tokRBracket, text: "]", pos: start}
	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", pos: start}
	case c == '|':
		p.pos++
		p.tok = token{kind: tokPipe, text: "|", pos: start}
	case strings.HasPrefix(p.src[p.pos:], "..."):
		p.pos += 3
		p.tok = token{kind: tokEllipsis, text: "...", pos: start}
	case c == '"' || c == '\'':
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] != c {
			if p.src[p.pos] == '\\' {
				p.pos++
			}
			p.pos++
		}
		if p.pos >= len(p.src) {
			p.tok = token{kind: tokString, text: p.src[start:], pos: start}
			p.err = &ParseError{Source: p.src, Pos: start, Msg: "unterminated string"}
			return
		}
		p.pos++
		p.tok = token{kind: tokString, text: p.src[start:p.pos], pos: start}
	case c == '-' || (c >= '0' && c <= '9'):
		p.pos++
		for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.src[start:p.pos], pos: start}
	case c == '_' || unicode.IsLetter(rune(c)):
		for p.pos < len(p.src) {
			r := rune(p.src[p.pos])
			if r != '_' && r != '.' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			p.pos++
		}
		p.tok = token{kind: tokName, text: p.src[start:p.pos], pos: start}
	default:
		p.pos++
		p.tok = token{kind: tokIllegal, text: string(c), pos: start}
		p.err = &ParseError{Source: p.src, Pos: start, Msg: "unexpected character " + strconv.QuoteRune(rune(c))}
	}
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.err != nil {
		return p.err
	}
	if p.tok.kind != kind {
		return p.errorf("expected "+what+", got %q", p.tok.text)
	}
	p.next()
	return nil
}

// parseUnion: term ('|' term)*
func (p *parser) parseUnion() (Type, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokPipe {
		return first, nil
	}
	members := []Type{first}
	for p.tok.kind == tokPipe {
		p.next()
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	return TUnion{Types: members}, nil
}

func (p *parser) parseTerm() (Type, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokName {
		return nil, p.errorf("expected type name, got %q", p.tok.text)
	}
	name := p.tok.text
	p.next()

	switch name {
	case config.AnyTypeName:
		return Any, nil
	case "None", config.NilTypeName:
		return Nil, nil
	case config.OptionalTypeName:
		args, err := p.parseArgs(name)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errorf("%s takes exactly one argument", name)
		}
		return NewOptional(args[0]), nil
	case config.UnionTypeName:
		args, err := p.parseArgs(name)
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			return args[0], nil
		}
		return TUnion{Types: args}, nil
	case config.CallableTypeName:
		if p.tok.kind != tokLBracket {
			return TCon{Name: config.CallableTypeName}, nil
		}
		return p.parseCallable()
	case config.TypeOfTypeName:
		if p.tok.kind != tokLBracket {
			return TType{}, nil
		}
		args, err := p.parseArgs(name)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errorf("%s takes exactly one argument", name)
		}
		return TType{Type: args[0]}, nil
	case config.AnnotatedTypeName:
		return p.parseAnnotated()
	case config.LiteralTypeName:
		return p.parseLiteral()
	}

	if p.scope == nil {
		return nil, NewUnknownTypeError(name)
	}
	resolved, err := p.scope.Lookup(name)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokLBracket {
		return resolved, nil
	}
	con, ok := resolved.(TCon)
	if !ok {
		return nil, p.errorf("%q cannot take type arguments", name)
	}
	args, err := p.parseArgs(name)
	if err != nil {
		return nil, err
	}
	return TApp{Constructor: con, Args: args}, nil
}

// parseArgs: '[' union (',' union)* ']'
func (p *parser) parseArgs(name string) ([]Type, error) {
	if err := p.expect(tokLBracket, "'[' after "+name); err != nil {
		return nil, err
	}
	var args []Type
	for {
		t, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		if p.tok.kind != tokComma {
			break
		}
		p.next()
	}
	if err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseCallable: '[' ('...' | '[' params? ']') ',' union ']'
func (p *parser) parseCallable() (Type, error) {
	if err := p.expect(tokLBracket, "'['"); err != nil {
		return nil, err
	}
	fn := TFunc{}
	switch p.tok.kind {
	case tokEllipsis:
		p.next()
		fn.Ellipsis = true
	case tokLBracket:
		p.next()
		fn.Params = []Type{}
		for p.tok.kind != tokRBracket {
			t, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, t)
			if p.tok.kind != tokComma {
				break
			}
			p.next()
		}
		if err := p.expect(tokRBracket, "']' after parameters"); err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf("expected parameter list, got %q", p.tok.text)
	}
	if err := p.expect(tokComma, "','"); err != nil {
		return nil, err
	}
	ret, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	fn.Return = ret
	if err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseAnnotated: '[' union (',' string)* ']'
func (p *parser) parseAnnotated() (Type, error) {
	if err := p.expect(tokLBracket, "'[' after Annotated"); err != nil {
		return nil, err
	}
	inner, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	var meta []string
	for p.tok.kind == tokComma {
		p.next()
		if p.tok.kind != tokString {
			return nil, p.errorf("Annotated metadata must be a string, got %q", p.tok.text)
		}
		s, err := unquote(p.tok.text)
		if err != nil {
			return nil, p.errorf("bad string %q", p.tok.text)
		}
		meta = append(meta, s)
		p.next()
	}
	if err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return TAnnotated{Type: inner, Metadata: meta}, nil
}

// parseLiteral: '[' literal (',' literal)* ']'
func (p *parser) parseLiteral() (Type, error) {
	if err := p.expect(tokLBracket, "'[' after Literal"); err != nil {
		return nil, err
	}
	var values []any
	for {
		if p.err != nil {
			return nil, p.err
		}
		switch p.tok.kind {
		case tokString:
			s, err := unquote(p.tok.text)
			if err != nil {
				return nil, p.errorf("bad string %q", p.tok.text)
			}
			values = append(values, s)
		case tokNumber:
			if strings.Contains(p.tok.text, ".") {
				f, err := strconv.ParseFloat(p.tok.text, 64)
				if err != nil {
					return nil, p.errorf("bad number %q", p.tok.text)
				}
				values = append(values, f)
			} else {
				n, err := strconv.ParseInt(p.tok.text, 10, 64)
				if err != nil {
					return nil, p.errorf("bad number %q", p.tok.text)
				}
				values = append(values, n)
			}
		case tokName:
			switch p.tok.text {
			case "true", "True":
				values = append(values, true)
			case "false", "False":
				values = append(values, false)
			case "None", config.NilTypeName:
				values = append(values, nil)
			default:
				return nil, p.errorf("unsupported literal %q", p.tok.text)
			}
		default:
			return nil, p.errorf("expected literal, got %q", p.tok.text)
		}
		p.next()
		if p.tok.kind != tokComma {
			break
		}
		p.next()
	}
	if err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return TLiteral{Values: values}, nil
}

func unquote(s string) (string, error) {
	if strings.HasPrefix(s, "'") {
		s = `"` + strings.ReplaceAll(strings.Trim(s, "'"), `"`, `\"`) + `"`
	}
	return strconv.Unquote(s)
}
