package template

import (
	"sort"
	"strings"
)

// Node is a parsed template fragment.
type Node interface {
	nodeType() string
	Pos() int
}

// TextNode is a run of literal document text, emitted unchanged.
type TextNode struct {
	TokenPos int
	Text     string
}

func (n *TextNode) nodeType() string { return "text" }
func (n *TextNode) Pos() int         { return n.TokenPos }

// VarNode is a {{ expr }} substitution.
type VarNode struct {
	TokenPos int
	Expr     Expr
}

func (n *VarNode) nodeType() string { return "var" }
func (n *VarNode) Pos() int         { return n.TokenPos }

// IfNode is a {% if cond %} ... {% else %} ... {% endif %} block. Else may
// be nil when no else branch is present.
type IfNode struct {
	TokenPos int
	Cond     Cond
	Then     []Node
	Else     []Node
}

func (n *IfNode) nodeType() string { return "if" }
func (n *IfNode) Pos() int         { return n.TokenPos }

// Expr is a value-producing expression inside a delimiter.
type Expr interface {
	Node
	exprNode()
}

// PathExpr is a dotted lookup path into the rendering context, such as
// tenant.full_name.
type PathExpr struct {
	TokenPos int
	Line     int
	Col      int
	Parts    []string
}

func (e *PathExpr) nodeType() string { return "path" }
func (e *PathExpr) Pos() int         { return e.TokenPos }
func (e *PathExpr) exprNode()        {}

// String returns the dotted form of the path.
func (e *PathExpr) String() string { return strings.Join(e.Parts, ".") }

// CallExpr is a helper invocation such as format_currency(amount).
type CallExpr struct {
	TokenPos int
	Line     int
	Col      int
	Func     string
	Args     []Expr
}

func (e *CallExpr) nodeType() string { return "call" }
func (e *CallExpr) Pos() int         { return e.TokenPos }
func (e *CallExpr) exprNode()        {}

// LiteralKind distinguishes literal expression types.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralInt
	LiteralFloat
)

// LiteralExpr is a string or numeric literal.
type LiteralExpr struct {
	TokenPos int
	Line     int
	Col      int
	Kind     LiteralKind
	Raw      string
}

func (e *LiteralExpr) nodeType() string { return "literal" }
func (e *LiteralExpr) Pos() int         { return e.TokenPos }
func (e *LiteralExpr) exprNode()        {}

// Cond is a conditional expression in an if block.
type Cond interface {
	Node
	condNode()
}

// CompOp is a comparison operator.
type CompOp int

const (
	OpEQ CompOp = iota
	OpNEQ
	OpGT
	OpLT
	OpGTE
	OpLTE
)

func (op CompOp) String() string {
	switch op {
	case OpEQ:
		return "=="
	case OpNEQ:
		return "!="
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	case OpGTE:
		return ">="
	case OpLTE:
		return "<="
	default:
		return "?"
	}
}

// CompareCond compares two expressions, as in reminder_fee > 0.
type CompareCond struct {
	TokenPos int
	Line     int
	Col      int
	Left     Expr
	Op       CompOp
	Right    Expr
}

func (c *CompareCond) nodeType() string { return "compare" }
func (c *CompareCond) Pos() int         { return c.TokenPos }
func (c *CompareCond) condNode()        {}

// TruthyCond tests a single expression for presence, as in {% if notes %}.
type TruthyCond struct {
	TokenPos int
	Expr     Expr
}

func (c *TruthyCond) nodeType() string { return "truthy" }
func (c *TruthyCond) Pos() int         { return c.TokenPos }
func (c *TruthyCond) condNode()        {}

// Template is a parsed template ready for rendering.
type Template struct {
	Nodes  []Node
	Source string
}

// Placeholders returns the sorted, deduplicated set of dotted paths the
// template references, including paths inside conditions and helper
// arguments.
func (t *Template) Placeholders() []string {
	seen := map[string]bool{}
	var walkExpr func(e Expr)
	walkExpr = func(e Expr) {
		switch ex := e.(type) {
		case *PathExpr:
			seen[ex.String()] = true
		case *CallExpr:
			for _, arg := range ex.Args {
				walkExpr(arg)
			}
		}
	}
	var walkNodes func(nodes []Node)
	walkNodes = func(nodes []Node) {
		for _, n := range nodes {
			switch nd := n.(type) {
			case *VarNode:
				walkExpr(nd.Expr)
			case *IfNode:
				switch c := nd.Cond.(type) {
				case *CompareCond:
					walkExpr(c.Left)
					walkExpr(c.Right)
				case *TruthyCond:
					walkExpr(c.Expr)
				}
				walkNodes(nd.Then)
				walkNodes(nd.Else)
			}
		}
	}
	walkNodes(t.Nodes)

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
