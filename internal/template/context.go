package template

import "strings"

// Context is the flat namespace a template renders against. Nested maps
// back dotted paths: tenant.full_name resolves through ctx["tenant"].
// Values are plain data assembled per document; the context never exposes
// methods or host objects to templates.
type Context map[string]any

// Lookup resolves a dotted path. The second return is false when any
// segment is absent or a non-terminal segment is not a nested map.
func (c Context) Lookup(parts []string) (any, bool) {
	var cur any = map[string]any(c)
	for _, part := range parts {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Get resolves a dotted path given in string form.
func (c Context) Get(path string) (any, bool) {
	return c.Lookup(strings.Split(path, "."))
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Context:
		return m, true
	default:
		return nil, false
	}
}
