package template

import "fmt"

// Mode controls how rendering treats malformed placeholder syntax. Strict
// mode reports syntax errors; lenient mode leaves the offending source
// verbatim in the output. Unresolved placeholders and unknown helpers are
// errors in both modes.
type Mode int

const (
	Strict Mode = iota
	Lenient
)

// Parser builds a Template from tokens using recursive descent. It keeps
// parsing after errors, accumulating them, so a single pass can report every
// problem in the source.
type Parser struct {
	src    string
	tokens []Token
	pos    int
	errors []*ParseError
}

// NewParser creates a parser over pre-lexed tokens. Lexer errors should be
// merged with the parser's by the caller.
func NewParser(src string, tokens []Token) *Parser {
	return &Parser{src: src, tokens: tokens}
}

// Parse parses the full token stream. The returned template contains
// best-effort nodes even when errors are present; malformed placeholders
// appear as verbatim text nodes so lenient rendering can pass them through.
func (p *Parser) Parse() (*Template, []*ParseError) {
	nodes, term := p.parseNodes(false)
	if term != TokenEOF {
		p.addError(fmt.Sprintf("unexpected {%% %s %%} outside if block", term))
	}
	return &Template{Nodes: nodes, Source: p.src}, p.errors
}

// parseNodes parses until end of input or, when insideIf is set, until an
// else or endif tag. The terminating keyword is returned (TokenEOF when the
// input ended).
func (p *Parser) parseNodes(insideIf bool) ([]Node, TokenType) {
	var nodes []Node
	for {
		tok := p.current()
		switch tok.Type {
		case TokenEOF:
			return nodes, TokenEOF
		case TokenText:
			p.advance()
			nodes = append(nodes, &TextNode{TokenPos: tok.Pos, Text: tok.Literal})
		case TokenOpenVar:
			p.advance()
			nodes = append(nodes, p.parseVar(tok))
		case TokenOpenBlock:
			kw := p.peek()
			if kw.Type == TokenElse || kw.Type == TokenEndif {
				if !insideIf {
					p.addErrorAt(fmt.Sprintf("{%% %s %%} without matching {%% if %%}", kw.Literal), kw)
					nodes = append(nodes, p.recoverVerbatim(tok))
					continue
				}
				p.advance() // open
				p.advance() // keyword
				if _, ok := p.expect(TokenCloseBlock); !ok {
					p.skipToClose()
				}
				return nodes, kw.Type
			}
			p.advance()
			nodes = append(nodes, p.parseBlock(tok))
		default:
			p.addErrorAt(fmt.Sprintf("unexpected %s", tok.Type), tok)
			p.advance()
		}
	}
}

// parseVar parses {{ expr }} after the opening delimiter has been consumed.
func (p *Parser) parseVar(open Token) Node {
	expr, ok := p.parseExpr()
	if !ok {
		return p.recoverVerbatim(open)
	}
	if _, ok := p.expect(TokenCloseVar); !ok {
		return p.recoverVerbatim(open)
	}
	return &VarNode{TokenPos: open.Pos, Expr: expr}
}

// parseBlock parses a {% ... %} tag after the opening delimiter has been
// consumed. Only if blocks are valid here; else and endif are handled by
// parseNodes.
func (p *Parser) parseBlock(open Token) Node {
	tok := p.current()
	if tok.Type != TokenIf {
		p.addErrorAt(fmt.Sprintf("unknown block tag %q", tok.Literal), tok)
		return p.recoverVerbatim(open)
	}
	p.advance()

	cond, ok := p.parseCond()
	if !ok {
		return p.recoverVerbatim(open)
	}
	if _, ok := p.expect(TokenCloseBlock); !ok {
		return p.recoverVerbatim(open)
	}

	thenNodes, term := p.parseNodes(true)
	var elseNodes []Node
	if term == TokenElse {
		elseNodes, term = p.parseNodes(true)
		for term == TokenElse {
			p.addErrorAt("duplicate {% else %}", open)
			var more []Node
			more, term = p.parseNodes(true)
			elseNodes = append(elseNodes, more...)
		}
	}
	if term != TokenEndif {
		p.addErrorAt("unterminated if block: missing {% endif %}", open)
	}
	return &IfNode{TokenPos: open.Pos, Cond: cond, Then: thenNodes, Else: elseNodes}
}

// parseCond parses a condition: either a comparison between two expressions
// or a bare expression tested for presence.
func (p *Parser) parseCond() (Cond, bool) {
	start := p.current()
	left, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	var op CompOp
	switch p.current().Type {
	case TokenEQ:
		op = OpEQ
	case TokenNEQ:
		op = OpNEQ
	case TokenGT:
		op = OpGT
	case TokenLT:
		op = OpLT
	case TokenGTE:
		op = OpGTE
	case TokenLTE:
		op = OpLTE
	default:
		return &TruthyCond{TokenPos: start.Pos, Expr: left}, true
	}
	p.advance()

	right, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	return &CompareCond{TokenPos: start.Pos, Line: start.Line, Col: start.Col, Left: left, Op: op, Right: right}, true
}

// parseExpr parses a literal, a dotted path, or a helper call.
func (p *Parser) parseExpr() (Expr, bool) {
	tok := p.current()
	switch tok.Type {
	case TokenString:
		p.advance()
		return &LiteralExpr{TokenPos: tok.Pos, Line: tok.Line, Col: tok.Col, Kind: LiteralString, Raw: tok.Literal}, true
	case TokenInt:
		p.advance()
		return &LiteralExpr{TokenPos: tok.Pos, Line: tok.Line, Col: tok.Col, Kind: LiteralInt, Raw: tok.Literal}, true
	case TokenFloat:
		p.advance()
		return &LiteralExpr{TokenPos: tok.Pos, Line: tok.Line, Col: tok.Col, Kind: LiteralFloat, Raw: tok.Literal}, true
	case TokenIdent:
		p.advance()
		if p.current().Type == TokenLParen {
			return p.parseCall(tok)
		}
		return p.parsePath(tok)
	case TokenIf, TokenElse, TokenEndif:
		p.addErrorAt(fmt.Sprintf("unexpected keyword %q in expression", tok.Literal), tok)
		return nil, false
	default:
		p.addErrorAt(fmt.Sprintf("expected expression, got %s", tok.Type), tok)
		return nil, false
	}
}

// parsePath parses the remainder of a dotted path after its head identifier.
func (p *Parser) parsePath(head Token) (Expr, bool) {
	parts := []string{head.Literal}
	for p.current().Type == TokenDot {
		p.advance()
		seg := p.current()
		if seg.Type != TokenIdent {
			p.addErrorAt(fmt.Sprintf("expected identifier after '.', got %s", seg.Type), seg)
			return nil, false
		}
		p.advance()
		parts = append(parts, seg.Literal)
	}
	return &PathExpr{TokenPos: head.Pos, Line: head.Line, Col: head.Col, Parts: parts}, true
}

// parseCall parses a helper invocation after its name identifier.
func (p *Parser) parseCall(name Token) (Expr, bool) {
	p.advance() // (
	call := &CallExpr{TokenPos: name.Pos, Line: name.Line, Col: name.Col, Func: name.Literal}

	if p.current().Type == TokenRParen {
		p.advance()
		return call, true
	}
	for {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		call.Args = append(call.Args, arg)
		switch p.current().Type {
		case TokenComma:
			p.advance()
		case TokenRParen:
			p.advance()
			return call, true
		default:
			p.addErrorAt(fmt.Sprintf("expected ',' or ')', got %s", p.current().Type), p.current())
			return nil, false
		}
	}
}

// recoverVerbatim skips to the next closing delimiter and returns the raw
// source from the opening delimiter through that close as a text node.
// Lenient rendering emits it unchanged; strict rendering never reaches it
// because errors have already been recorded.
func (p *Parser) recoverVerbatim(open Token) Node {
	end := p.skipToClose()
	return &TextNode{TokenPos: open.Pos, Text: p.src[open.Pos:end]}
}

// skipToClose advances past the next closing delimiter and returns the byte
// offset just after it, or the end of input.
func (p *Parser) skipToClose() int {
	for {
		tok := p.current()
		if tok.Type == TokenEOF {
			return len(p.src)
		}
		p.advance()
		if tok.Type == TokenCloseVar || tok.Type == TokenCloseBlock {
			return tok.Pos + len(tok.Literal)
		}
	}
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Pos: len(p.src)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF, Pos: len(p.src)}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

// expect consumes the next token if it matches, otherwise records an error.
func (p *Parser) expect(typ TokenType) (Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addErrorAt(fmt.Sprintf("expected %s, got %s", typ, tok.Type), tok)
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) addError(msg string) {
	p.addErrorAt(msg, p.current())
}

func (p *Parser) addErrorAt(msg string, tok Token) {
	p.errors = append(p.errors, &ParseError{Message: msg, Pos: tok.Pos, Line: tok.Line, Col: tok.Col})
}
