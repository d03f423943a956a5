package template

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/matthewbaird/rentroll/internal/types"
)

// Renderer parses and evaluates templates against a Context. A single
// renderer is safe for concurrent use; all state lives in the template and
// context passed to each call.
type Renderer struct {
	funcs *FuncRegistry
	mode  Mode
}

// NewRenderer creates a renderer with the given helper registry and mode.
func NewRenderer(funcs *FuncRegistry, mode Mode) *Renderer {
	return &Renderer{funcs: funcs, mode: mode}
}

// Mode reports the renderer's syntax-error mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Parse lexes and parses template source. In strict mode any syntax error
// fails the parse; in lenient mode the template is returned best-effort with
// malformed placeholders preserved as literal text.
func (r *Renderer) Parse(src string) (*Template, error) {
	tmpl, errs := ParseSource(src)
	if r.mode == Strict && len(errs) > 0 {
		return nil, joinParseErrors(errs)
	}
	return tmpl, nil
}

// ParseSource lexes and parses source unconditionally, returning the
// best-effort template together with every syntax error found. Validation
// endpoints use this directly to report all problems regardless of mode.
func ParseSource(src string) (*Template, []*ParseError) {
	lex := NewLexer(src)
	tokens, lexErrs := lex.Tokenize()
	parser := NewParser(src, tokens)
	tmpl, parseErrs := parser.Parse()
	return tmpl, append(lexErrs, parseErrs...)
}

// Render parses source and evaluates it against ctx. Rendering is
// deterministic: the same source and context always produce the same output.
func (r *Renderer) Render(src string, ctx Context) (string, error) {
	tmpl, err := r.Parse(src)
	if err != nil {
		return "", err
	}
	return r.Execute(tmpl, ctx)
}

// Execute evaluates an already-parsed template against ctx.
func (r *Renderer) Execute(tmpl *Template, ctx Context) (string, error) {
	var sb strings.Builder
	if err := r.renderNodes(&sb, tmpl.Nodes, ctx); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Renderer) renderNodes(sb *strings.Builder, nodes []Node, ctx Context) error {
	for _, node := range nodes {
		switch n := node.(type) {
		case *TextNode:
			sb.WriteString(n.Text)
		case *VarNode:
			val, err := r.eval(n.Expr, ctx)
			if err != nil {
				return err
			}
			sb.WriteString(stringify(val))
		case *IfNode:
			ok, err := r.evalCond(n.Cond, ctx)
			if err != nil {
				return err
			}
			branch := n.Then
			if !ok {
				branch = n.Else
			}
			if err := r.renderNodes(sb, branch, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) eval(expr Expr, ctx Context) (any, error) {
	switch e := expr.(type) {
	case *LiteralExpr:
		switch e.Kind {
		case LiteralString:
			return e.Raw, nil
		case LiteralInt:
			n, err := strconv.ParseInt(e.Raw, 10, 64)
			if err != nil {
				return nil, &RenderError{Message: fmt.Sprintf("invalid integer literal %q", e.Raw), Line: e.Line, Col: e.Col}
			}
			return n, nil
		case LiteralFloat:
			f, err := strconv.ParseFloat(e.Raw, 64)
			if err != nil {
				return nil, &RenderError{Message: fmt.Sprintf("invalid number literal %q", e.Raw), Line: e.Line, Col: e.Col}
			}
			return f, nil
		}
		return nil, &RenderError{Message: "unknown literal kind", Line: e.Line, Col: e.Col}
	case *PathExpr:
		val, ok := ctx.Lookup(e.Parts)
		if !ok {
			return nil, &UnresolvedPlaceholderError{Path: e.String(), Line: e.Line, Col: e.Col}
		}
		return val, nil
	case *CallExpr:
		fn, ok := r.funcs.lookup(e.Func)
		if !ok {
			return nil, &UnknownHelperError{
				Name:       e.Func,
				Line:       e.Line,
				Col:        e.Col,
				Suggestion: suggestFrom(e.Func, r.funcs.Names()),
			}
		}
		args := make([]any, 0, len(e.Args))
		for _, argExpr := range e.Args {
			arg, err := r.eval(argExpr, ctx)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		out, err := fn(args)
		if err != nil {
			return nil, &RenderError{Message: fmt.Sprintf("%s: %v", e.Func, err), Line: e.Line, Col: e.Col}
		}
		return out, nil
	default:
		return nil, &RenderError{Message: "unknown expression"}
	}
}

func (r *Renderer) evalCond(cond Cond, ctx Context) (bool, error) {
	switch c := cond.(type) {
	case *TruthyCond:
		val, err := r.eval(c.Expr, ctx)
		if err != nil {
			return false, err
		}
		return truthy(val), nil
	case *CompareCond:
		left, err := r.eval(c.Left, ctx)
		if err != nil {
			return false, err
		}
		right, err := r.eval(c.Right, ctx)
		if err != nil {
			return false, err
		}
		ok, cmpErr := compare(left, c.Op, right)
		if cmpErr != nil {
			return false, &RenderError{Message: cmpErr.Error(), Line: c.Line, Col: c.Col}
		}
		return ok, nil
	default:
		return false, &RenderError{Message: "unknown condition"}
	}
}

// stringify converts a resolved value to its canonical output form.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case types.Money:
		return val.Decimal()
	case time.Time:
		return val.Format("2006-01-02")
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// truthy implements presence testing for bare if conditions: empty strings,
// zero amounts, zero numbers, and zero times are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case types.Money:
		return !val.IsZero()
	case time.Time:
		return !val.IsZero()
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}

// compare evaluates a comparison between two resolved values. Monetary
// amounts compare against numeric literals by interpreting the literal in
// major units, so reminder_fee > 0 and total_amount >= 700.50 behave as an
// author expects.
func compare(left any, op CompOp, right any) (bool, error) {
	if lm, ok := left.(types.Money); ok {
		if rc, ok := toCents(right); ok {
			return compareInt(lm.AmountCents, op, rc)
		}
	}
	if rm, ok := right.(types.Money); ok {
		if lc, ok := toCents(left); ok {
			return compareInt(lc, op, rm.AmountCents)
		}
	}

	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case OpEQ:
			return ls == rs, nil
		case OpNEQ:
			return ls != rs, nil
		default:
			return false, fmt.Errorf("operator %s not defined for strings", op)
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if lok && rok {
		switch op {
		case OpEQ:
			return lf == rf, nil
		case OpNEQ:
			return lf != rf, nil
		case OpGT:
			return lf > rf, nil
		case OpLT:
			return lf < rf, nil
		case OpGTE:
			return lf >= rf, nil
		case OpLTE:
			return lf <= rf, nil
		}
	}

	return false, fmt.Errorf("cannot compare %T with %T", left, right)
}

func compareInt(l int64, op CompOp, r int64) (bool, error) {
	switch op {
	case OpEQ:
		return l == r, nil
	case OpNEQ:
		return l != r, nil
	case OpGT:
		return l > r, nil
	case OpLT:
		return l < r, nil
	case OpGTE:
		return l >= r, nil
	case OpLTE:
		return l <= r, nil
	default:
		return false, fmt.Errorf("unknown operator")
	}
}

// toCents converts a numeric value in major units to cents.
func toCents(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val) * 100, true
	case int64:
		return val * 100, true
	case float64:
		return int64(math.Round(val * 100)), true
	case types.Money:
		return val.AmountCents, true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

func joinParseErrors(errs []*ParseError) error {
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}
