package reader

import "testing"

func TestNextToken_Delimiters(t *testing.T) {
	input := `( ) [ ] { } '`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenQuote, "'"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Atoms(t *testing.T) {
	input := `foo :bar 42 -7 3.14 "hi there" true false nil unit`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenSymbol, "foo"},
		{TokenKeyword, "bar"},
		{TokenInteger, "42"},
		{TokenInteger, "-7"},
		{TokenFloat, "3.14"},
		{TokenString, "hi there"},
		{TokenTrue, "true"},
		{TokenFalse, "false"},
		{TokenNil, "nil"},
		{TokenUnit, "unit"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong for %q. expected=%s, got=%s", i, tt.expectedLiteral, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Comment(t *testing.T) {
	input := "; a whole line comment\n42"
	l := New(input)
	tok := l.NextToken()
	if tok.Type != TokenInteger || tok.Literal != "42" {
		t.Fatalf("expected comment to be skipped, got %s %q", tok.Type, tok.Literal)
	}
}

func TestNextToken_CharLiteral(t *testing.T) {
	input := `\a \newline \space`
	tests := []string{"a", "newline", "space"}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != TokenChar {
			t.Fatalf("tests[%d] - expected CHAR, got %s", i, tok.Type)
		}
		if tok.Literal != want {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, want, tok.Literal)
		}
	}
}
