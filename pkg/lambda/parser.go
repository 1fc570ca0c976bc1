package lambda

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenLambda
	TokenDot
	TokenLParen
	TokenRParen
	TokenAt
	TokenDollar
	TokenIllegal
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "name"
	case TokenLambda:
		return "'λ'"
	case TokenDot:
		return "'.'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenAt:
		return "'@'"
	case TokenDollar:
		return "'$'"
	default:
		return "illegal character"
	}
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// Parser reads the term syntax:
//
//	λx.body  or  \x.body     abstraction
//	(f a b ...)              application, left nested
//	@x value body            local let, value shared by every use of x
//	$x value body            definition, substituted wherever x is used
//	// comment               to end of line
type Parser struct {
	input   string
	pos     int
	current Token

	scope []string
	defs  map[string]Term
}

func NewParser(input string) *Parser {
	p := &Parser{input: input, defs: make(map[string]Term)}
	p.next()
	return p
}

func (p *Parser) next() {
	p.skipSpaceAndComments()
	start := p.pos
	if p.pos >= len(p.input) {
		p.current = Token{Type: TokenEOF, Pos: start}
		return
	}

	r, size := utf8.DecodeRuneInString(p.input[p.pos:])
	switch {
	case r == 'λ' || r == '\\':
		p.current = Token{Type: TokenLambda, Literal: string(r), Pos: start}
		p.pos += size
	case r == '.':
		p.current = Token{Type: TokenDot, Literal: ".", Pos: start}
		p.pos += size
	case r == '(':
		p.current = Token{Type: TokenLParen, Literal: "(", Pos: start}
		p.pos += size
	case r == ')':
		p.current = Token{Type: TokenRParen, Literal: ")", Pos: start}
		p.pos += size
	case r == '@':
		p.current = Token{Type: TokenAt, Literal: "@", Pos: start}
		p.pos += size
	case r == '$':
		p.current = Token{Type: TokenDollar, Literal: "$", Pos: start}
		p.pos += size
	case isNameRune(r):
		for p.pos < len(p.input) {
			r, size := utf8.DecodeRuneInString(p.input[p.pos:])
			if !isNameRune(r) {
				break
			}
			p.pos += size
		}
		p.current = Token{Type: TokenIdent, Literal: p.input[start:p.pos], Pos: start}
	default:
		p.current = Token{Type: TokenIllegal, Literal: string(r), Pos: start}
		p.pos += size
	}
}

func (p *Parser) skipSpaceAndComments() {
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		switch {
		case unicode.IsSpace(r):
			p.pos += size
		case strings.HasPrefix(p.input[p.pos:], "//"):
			end := strings.IndexByte(p.input[p.pos:], '\n')
			if end < 0 {
				p.pos = len(p.input)
			} else {
				p.pos += end + 1
			}
		default:
			return
		}
	}
}

func isNameRune(r rune) bool {
	if r == 'λ' {
		return false
	}
	return r == '_' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *Parser) errorf(pos int, format string, args ...any) *ParseError {
	line, col := 1, 1
	for _, r := range p.input[:pos] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{Pos: pos, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) unexpected() *ParseError {
	switch p.current.Type {
	case TokenEOF:
		return p.errorf(p.current.Pos, "unexpected end of input")
	case TokenIllegal:
		return p.errorf(p.current.Pos, "unexpected character %q", p.current.Literal)
	default:
		return p.errorf(p.current.Pos, "unexpected %s", p.current.Type)
	}
}

func (p *Parser) Parse() (Term, error) {
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.errorf(p.current.Pos, "unexpected %s after term", p.current.Type)
	}
	return term, nil
}

func (p *Parser) parseName(what string) (string, int, error) {
	if p.current.Type != TokenIdent {
		if p.current.Type == TokenEOF {
			return "", 0, p.errorf(p.current.Pos, "expected %s name, got end of input", what)
		}
		return "", 0, p.errorf(p.current.Pos, "expected %s name, got %s", what, p.current.Type)
	}
	name, pos := p.current.Literal, p.current.Pos
	p.next()
	return name, pos, nil
}

func (p *Parser) parseTerm() (Term, error) {
	tok := p.current
	switch tok.Type {
	case TokenLambda:
		p.next()
		name, _, err := p.parseName("binder")
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenDot {
			return nil, p.errorf(tok.Pos, "unclosed binder λ%s: expected '.'", name)
		}
		p.next()
		p.scope = append(p.scope, name)
		body, err := p.parseTerm()
		p.scope = p.scope[:len(p.scope)-1]
		if err != nil {
			return nil, err
		}
		return &Lam{Param: name, Body: body}, nil

	case TokenLParen:
		p.next()
		if p.current.Type == TokenRParen {
			return nil, p.errorf(tok.Pos, "empty application")
		}
		fn, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		for p.current.Type != TokenRParen {
			if p.current.Type == TokenEOF {
				return nil, p.errorf(tok.Pos, "unclosed '('")
			}
			arg, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			fn = &App{Fun: fn, Arg: arg}
		}
		p.next()
		return fn, nil

	case TokenAt:
		p.next()
		name, _, err := p.parseName("let")
		if err != nil {
			return nil, err
		}
		value, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		p.scope = append(p.scope, name)
		body, err := p.parseTerm()
		p.scope = p.scope[:len(p.scope)-1]
		if err != nil {
			return nil, err
		}
		return &Let{Name: name, Value: value, Body: body}, nil

	case TokenDollar:
		p.next()
		name, _, err := p.parseName("definition")
		if err != nil {
			return nil, err
		}
		// definitions only see earlier definitions
		outer := p.scope
		p.scope = nil
		value, err := p.parseTerm()
		p.scope = outer
		if err != nil {
			return nil, err
		}
		prev, had := p.defs[name]
		p.defs[name] = value
		body, err := p.parseTerm()
		if had {
			p.defs[name] = prev
		} else {
			delete(p.defs, name)
		}
		return body, err

	case TokenIdent:
		p.next()
		for i := len(p.scope) - 1; i >= 0; i-- {
			if p.scope[i] == tok.Literal {
				return &Var{Name: tok.Literal}, nil
			}
		}
		if def, ok := p.defs[tok.Literal]; ok {
			return def, nil
		}
		return nil, p.errorf(tok.Pos, "unknown name %q", tok.Literal)

	default:
		return nil, p.unexpected()
	}
}

// Parse parses a lambda term from a string.
func Parse(input string) (Term, error) {
	p := NewParser(input)
	return p.Parse()
}
