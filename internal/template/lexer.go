package template

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer tokenizes template source. It alternates between two modes: text
// mode, which scans literal document text up to the next delimiter, and
// expression mode inside {{ ... }} or {% ... %}.
type Lexer struct {
	input  string
	pos    int
	line   int
	col    int
	inExpr bool
	errors []*ParseError
}

// NewLexer creates a lexer for the given template source.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize scans the entire source and returns tokens plus any lexical
// errors. An EOF token always terminates the slice. Scanning continues past
// errors so the parser can recover in lenient mode.
func (l *Lexer) Tokenize() ([]Token, []*ParseError) {
	var tokens []Token
	for {
		tok := l.next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens, l.errors
}

func (l *Lexer) next() Token {
	if l.inExpr {
		return l.nextExpr()
	}
	return l.nextText()
}

// nextText scans literal text until a delimiter or end of input.
func (l *Lexer) nextText() Token {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col}
	}

	start := l.pos
	startLine, startCol := l.line, l.col

	if strings.HasPrefix(l.input[l.pos:], "{{") {
		l.inExpr = true
		l.advanceN(2)
		return Token{Type: TokenOpenVar, Literal: "{{", Pos: start, Line: startLine, Col: startCol}
	}
	if strings.HasPrefix(l.input[l.pos:], "{%") {
		l.inExpr = true
		l.advanceN(2)
		return Token{Type: TokenOpenBlock, Literal: "{%", Pos: start, Line: startLine, Col: startCol}
	}

	for l.pos < len(l.input) {
		if strings.HasPrefix(l.input[l.pos:], "{{") || strings.HasPrefix(l.input[l.pos:], "{%") {
			break
		}
		l.advance()
	}
	return Token{Type: TokenText, Literal: l.input[start:l.pos], Pos: start, Line: startLine, Col: startCol}
}

// nextExpr scans one token inside a delimiter pair.
func (l *Lexer) nextExpr() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		l.addError("unterminated placeholder", l.pos, l.line, l.col)
		l.inExpr = false
		return Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col}
	}

	start := l.pos
	startLine, startCol := l.line, l.col
	ch := l.input[l.pos]

	switch {
	case strings.HasPrefix(l.input[l.pos:], "}}"):
		l.inExpr = false
		l.advanceN(2)
		return Token{Type: TokenCloseVar, Literal: "}}", Pos: start, Line: startLine, Col: startCol}
	case strings.HasPrefix(l.input[l.pos:], "%}"):
		l.inExpr = false
		l.advanceN(2)
		return Token{Type: TokenCloseBlock, Literal: "%}", Pos: start, Line: startLine, Col: startCol}
	case ch == '.':
		l.advance()
		return Token{Type: TokenDot, Literal: ".", Pos: start, Line: startLine, Col: startCol}
	case ch == ',':
		l.advance()
		return Token{Type: TokenComma, Literal: ",", Pos: start, Line: startLine, Col: startCol}
	case ch == '(':
		l.advance()
		return Token{Type: TokenLParen, Literal: "(", Pos: start, Line: startLine, Col: startCol}
	case ch == ')':
		l.advance()
		return Token{Type: TokenRParen, Literal: ")", Pos: start, Line: startLine, Col: startCol}
	case strings.HasPrefix(l.input[l.pos:], "=="):
		l.advanceN(2)
		return Token{Type: TokenEQ, Literal: "==", Pos: start, Line: startLine, Col: startCol}
	case strings.HasPrefix(l.input[l.pos:], "!="):
		l.advanceN(2)
		return Token{Type: TokenNEQ, Literal: "!=", Pos: start, Line: startLine, Col: startCol}
	case strings.HasPrefix(l.input[l.pos:], ">="):
		l.advanceN(2)
		return Token{Type: TokenGTE, Literal: ">=", Pos: start, Line: startLine, Col: startCol}
	case strings.HasPrefix(l.input[l.pos:], "<="):
		l.advanceN(2)
		return Token{Type: TokenLTE, Literal: "<=", Pos: start, Line: startLine, Col: startCol}
	case ch == '>':
		l.advance()
		return Token{Type: TokenGT, Literal: ">", Pos: start, Line: startLine, Col: startCol}
	case ch == '<':
		l.advance()
		return Token{Type: TokenLT, Literal: "<", Pos: start, Line: startLine, Col: startCol}
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case unicode.IsDigit(rune(ch)):
		return l.scanNumber()
	case isIdentStart(ch):
		return l.scanIdent()
	default:
		l.addError(fmt.Sprintf("unexpected character %q", string(ch)), start, startLine, startCol)
		l.advance()
		return l.nextExpr()
	}
}

func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	startLine, startCol := l.line, l.col
	l.advance() // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) && l.input[l.pos] != quote {
		if l.input[l.pos] == '\n' {
			break
		}
		sb.WriteByte(l.input[l.pos])
		l.advance()
	}

	if l.pos >= len(l.input) || l.input[l.pos] != quote {
		l.addError("unterminated string literal", start, startLine, startCol)
		return Token{Type: TokenString, Literal: sb.String(), Pos: start, Line: startLine, Col: startCol}
	}
	l.advance() // closing quote
	return Token{Type: TokenString, Literal: sb.String(), Pos: start, Line: startLine, Col: startCol}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	startLine, startCol := l.line, l.col
	isFloat := false

	for l.pos < len(l.input) && unicode.IsDigit(rune(l.input[l.pos])) {
		l.advance()
	}
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && unicode.IsDigit(rune(l.input[l.pos+1])) {
		isFloat = true
		l.advance()
		for l.pos < len(l.input) && unicode.IsDigit(rune(l.input[l.pos])) {
			l.advance()
		}
	}

	typ := TokenInt
	if isFloat {
		typ = TokenFloat
	}
	return Token{Type: typ, Literal: l.input[start:l.pos], Pos: start, Line: startLine, Col: startCol}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	startLine, startCol := l.line, l.col
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.advance()
	}
	lit := l.input[start:l.pos]
	return Token{Type: LookupKeyword(lit), Literal: lit, Pos: start, Line: startLine, Col: startCol}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
		} else {
			return
		}
	}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) addError(msg string, pos, line, col int) {
	l.errors = append(l.errors, &ParseError{Message: msg, Pos: pos, Line: line, Col: col})
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
