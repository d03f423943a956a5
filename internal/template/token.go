// Package template implements the closed template language for dunning
// documents: dotted-path placeholders, a fixed helper-function registry, and
// minimal conditional blocks. Templates are user-authored: the language is a
// hand-written lexer and recursive descent parser over a fixed grammar, never
// the host language's evaluation facilities.
package template

// TokenType identifies the kind of lexical token.
type TokenType int

const (
	TokenEOF  TokenType = iota
	TokenText // literal document text outside any delimiter

	// Delimiters
	TokenOpenVar    // {{
	TokenCloseVar   // }}
	TokenOpenBlock  // {%
	TokenCloseBlock // %}

	// Literals and identifiers (inside delimiters)
	TokenIdent
	TokenString // "quoted string"
	TokenInt    // 123
	TokenFloat  // 1.23

	// Punctuation
	TokenDot    // .
	TokenComma  // ,
	TokenLParen // (
	TokenRParen // )

	// Comparison operators
	TokenEQ  // ==
	TokenNEQ // !=
	TokenGT  // >
	TokenLT  // <
	TokenGTE // >=
	TokenLTE // <=

	// Block keywords
	TokenIf
	TokenElse
	TokenEndif
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenText:
		return "text"
	case TokenOpenVar:
		return "{{"
	case TokenCloseVar:
		return "}}"
	case TokenOpenBlock:
		return "{%"
	case TokenCloseBlock:
		return "%}"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenInt:
		return "integer"
	case TokenFloat:
		return "float"
	case TokenDot:
		return "."
	case TokenComma:
		return ","
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenEQ:
		return "=="
	case TokenNEQ:
		return "!="
	case TokenGT:
		return ">"
	case TokenLT:
		return "<"
	case TokenGTE:
		return ">="
	case TokenLTE:
		return "<="
	case TokenIf:
		return "if"
	case TokenElse:
		return "else"
	case TokenEndif:
		return "endif"
	default:
		return "unknown"
	}
}

// Token represents a single lexical token in template source.
type Token struct {
	Type    TokenType
	Literal string // raw text of the token (unquoted for strings)
	Pos     int    // byte offset in source
	Line    int    // 1-based line number
	Col     int    // 1-based column number
}

// keywords maps block keywords to their token types. Keywords are only
// recognized inside {% ... %} delimiters.
var keywords = map[string]TokenType{
	"if":    TokenIf,
	"else":  TokenElse,
	"endif": TokenEndif,
}

// LookupKeyword returns the keyword token type for an identifier, or
// TokenIdent if the identifier is not a keyword.
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
