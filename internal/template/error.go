package template

import (
	"fmt"
	"sort"
)

// ParseError describes a syntax error in template source with position
// information and an optional suggestion for a likely fix.
type ParseError struct {
	Message    string `json:"message"`
	Line       int    `json:"line"`
	Col        int    `json:"col"`
	Pos        int    `json:"pos"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e *ParseError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("line %d:%d: %s (did you mean %q?)", e.Line, e.Col, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Message)
}

// UnresolvedPlaceholderError is returned when a placeholder path names a
// value absent from the rendering context. It is raised in both strict and
// lenient modes: a missing value is a data problem, not a syntax problem.
type UnresolvedPlaceholderError struct {
	Path string
	Line int
	Col  int
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("line %d:%d: unresolved placeholder %q", e.Line, e.Col, e.Path)
}

// UnknownHelperError is returned when a template calls a helper function
// that is not registered.
type UnknownHelperError struct {
	Name       string
	Line       int
	Col        int
	Suggestion string
}

func (e *UnknownHelperError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("line %d:%d: unknown helper %q (did you mean %q?)", e.Line, e.Col, e.Name, e.Suggestion)
	}
	return fmt.Sprintf("line %d:%d: unknown helper %q", e.Line, e.Col, e.Name)
}

// RenderError describes an evaluation failure that is neither an unresolved
// placeholder nor an unknown helper, such as a type mismatch in a comparison
// or a helper rejecting its argument.
type RenderError struct {
	Message string
	Line    int
	Col     int
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Message)
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// suggestFrom returns the candidate closest to input by edit distance, or ""
// if nothing is within a sensible threshold. Candidates are sorted first so
// ties resolve deterministically.
func suggestFrom(input string, candidates []string) string {
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	best := ""
	bestDist := len(input)/2 + 1
	for _, c := range sorted {
		d := levenshtein(input, c)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
