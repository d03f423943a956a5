package template

import "sort"

// HelperFunc formats already-resolved values. Helpers receive evaluated
// arguments and return the text to substitute.
type HelperFunc func(args []any) (string, error)

// FuncRegistry is the closed set of helpers a template may call. Templates
// cannot reach anything outside it; the registry is populated once at
// construction and read-only afterwards.
type FuncRegistry struct {
	funcs map[string]HelperFunc
}

// NewFuncRegistry returns an empty registry.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{funcs: map[string]HelperFunc{}}
}

// Register adds a helper under the given name, replacing any previous
// registration.
func (r *FuncRegistry) Register(name string, fn HelperFunc) {
	r.funcs[name] = fn
}

// Names returns the registered helper names in sorted order.
func (r *FuncRegistry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *FuncRegistry) lookup(name string) (HelperFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}
