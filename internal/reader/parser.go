package reader

import (
	"fmt"
	"strconv"

	"github.com/kristofer/navi/internal/heap"
	"github.com/kristofer/navi/internal/value"
)

// Parser builds navi heap values directly out of a token stream -- S-expr
// source *is* navi data (spec §2), so there is no separate AST layer the way
// the teacher's pkg/ast exists for smog; reading is just another heap
// allocator client.
type Parser struct {
	lex    *Lexer
	alloc  heap.Allocator
	roots  heap.RootSet
	cur    Token
	peek   Token
}

// NewParser creates a parser reading src, allocating into alloc.
func NewParser(src string, alloc heap.Allocator, roots heap.RootSet) *Parser {
	p := &Parser{lex: New(src), alloc: alloc, roots: roots}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

// ReadAll parses every top-level form in the source, for loading a whole
// file (spec §9, "load a source file").
func (p *Parser) ReadAll() ([]value.Word, error) {
	var forms []value.Word
	for p.cur.Type != TokenEOF {
		w, err := p.readForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, w)
	}
	return forms, nil
}

// Read parses a single top-level form, or returns (0, io.EOF)-shaped ok=false
// when the input is exhausted -- used by the REPL's read-eval-print loop.
func (p *Parser) Read() (value.Word, bool, error) {
	if p.cur.Type == TokenEOF {
		return 0, false, nil
	}
	w, err := p.readForm()
	if err != nil {
		return 0, false, err
	}
	return w, true, nil
}

func (p *Parser) readForm() (value.Word, error) {
	switch p.cur.Type {
	case TokenLParen:
		return p.readList()
	case TokenLBracket:
		return p.readArray()
	case TokenLBrace:
		return p.readTuple()
	case TokenQuote:
		p.next()
		inner, err := p.readForm()
		if err != nil {
			return 0, err
		}
		quoteSym, err := value.NewSymbol(p.alloc, p.roots, "quote")
		if err != nil {
			return 0, err
		}
		return value.NewList(p.alloc, p.roots, []value.Word{quoteSym, inner})
	case TokenInteger:
		n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil {
			return 0, p.errorf("malformed integer %q", p.cur.Literal)
		}
		p.next()
		return value.Integer(n), nil
	case TokenFloat:
		f, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return 0, p.errorf("malformed float %q", p.cur.Literal)
		}
		p.next()
		return value.NewReal(p.alloc, p.roots, f)
	case TokenString:
		s := p.cur.Literal
		p.next()
		return value.NewString(p.alloc, p.roots, s)
	case TokenKeyword:
		k := p.cur.Literal
		p.next()
		return value.NewKeyword(p.alloc, p.roots, k)
	case TokenChar:
		r, err := decodeCharLiteral(p.cur.Literal)
		if err != nil {
			return 0, p.errorf("%s", err.Error())
		}
		p.next()
		return value.Char(r), nil
	case TokenTrue:
		p.next()
		return value.True, nil
	case TokenFalse:
		p.next()
		return value.False, nil
	case TokenNil:
		p.next()
		return value.Nil, nil
	case TokenUnit:
		p.next()
		return value.Unit, nil
	case TokenSymbol:
		s := p.cur.Literal
		p.next()
		return value.NewSymbol(p.alloc, p.roots, s)
	case TokenRParen, TokenRBracket, TokenRBrace:
		return 0, p.errorf("unexpected %s", p.cur.Type)
	default:
		return 0, p.errorf("unexpected token %s %q", p.cur.Type, p.cur.Literal)
	}
}

func (p *Parser) readList() (value.Word, error) {
	p.next() // consume (
	var elems []value.Word
	for p.cur.Type != TokenRParen {
		if p.cur.Type == TokenEOF {
			return 0, p.errorf("unterminated list")
		}
		w, err := p.readForm()
		if err != nil {
			return 0, err
		}
		elems = append(elems, w)
	}
	p.next() // consume )
	return value.NewList(p.alloc, p.roots, elems)
}

func (p *Parser) readArray() (value.Word, error) {
	p.next() // consume [
	var elems []value.Word
	for p.cur.Type != TokenRBracket {
		if p.cur.Type == TokenEOF {
			return 0, p.errorf("unterminated array")
		}
		w, err := p.readForm()
		if err != nil {
			return 0, err
		}
		elems = append(elems, w)
	}
	p.next() // consume ]
	return value.NewArray(p.alloc, p.roots, elems)
}

func (p *Parser) readTuple() (value.Word, error) {
	p.next() // consume {
	var elems []value.Word
	for p.cur.Type != TokenRBrace {
		if p.cur.Type == TokenEOF {
			return 0, p.errorf("unterminated tuple")
		}
		w, err := p.readForm()
		if err != nil {
			return 0, err
		}
		elems = append(elems, w)
	}
	p.next() // consume }
	return value.NewTuple(p.alloc, p.roots, elems)
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: p.cur.Line, Column: p.cur.Column}
}

func decodeCharLiteral(lit string) (rune, error) {
	switch lit {
	case "newline":
		return '\n', nil
	case "space":
		return ' ', nil
	case "tab":
		return '\t', nil
	}
	r := []rune(lit)
	if len(r) != 1 {
		return 0, fmt.Errorf("malformed character literal %q", lit)
	}
	return r[0], nil
}
