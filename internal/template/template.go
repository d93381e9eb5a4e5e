// Package template interpolates dashboard variables into query text.
package template

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"evalgo.org/sparqlds/internal/domain"
	"github.com/valyala/fasttemplate"
)

// Substituter replaces variable references in a query with values from scope.
type Substituter interface {
	Substitute(text string, scope domain.Scope) (string, error)
}

// SubstituterFunc adapts a function to the Substituter interface.
type SubstituterFunc func(text string, scope domain.Scope) (string, error)

// Substitute calls f(text, scope).
func (f SubstituterFunc) Substitute(text string, scope domain.Scope) (string, error) {
	return f(text, scope)
}

// Identity returns the text unchanged.
var Identity = SubstituterFunc(func(text string, _ domain.Scope) (string, error) {
	return text, nil
})

var bareRef = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)

// Interpolator substitutes $name, ${name} and [[name]] references. Names
// missing from the scope are left as written, so SPARQL variables spelled
// with $ pass through. All other text is copied byte for byte, and
// substituted values are never expanded again.
type Interpolator struct {
	// Separator joins the values of multi-value variables.
	Separator string
}

// New returns an Interpolator joining multiple values with a single space.
func New() *Interpolator {
	return &Interpolator{Separator: " "}
}

// Substitute implements Substituter.
func (i *Interpolator) Substitute(text string, scope domain.Scope) (string, error) {
	if len(scope) == 0 || !strings.ContainsAny(text, "$[") {
		return text, nil
	}

	var out strings.Builder
	s := &substitution{scope: scope, sep: i.Separator, out: &out}
	if _, err := fasttemplate.ExecuteFunc(text, "${", "}", bracketText{s}, s.tag("${", "}")); err != nil {
		return "", fmt.Errorf("failed to substitute template variables: %w", err)
	}
	return out.String(), nil
}

type substitution struct {
	scope domain.Scope
	sep   string
	out   *strings.Builder
}

func (s *substitution) lookup(name string) (string, bool) {
	v, ok := s.scope[name]
	if !ok {
		return "", false
	}
	return strings.Join(v.Value, s.sep), true
}

// tag writes the value of a known variable, or the reference as written.
func (s *substitution) tag(start, end string) fasttemplate.TagFunc {
	return func(_ io.Writer, name string) (int, error) {
		if v, ok := s.lookup(name); ok {
			return s.out.WriteString(v)
		}
		return s.out.WriteString(start + name + end)
	}
}

// bracketText receives the text between ${...} tags and expands [[name]]
// in it.
type bracketText struct{ s *substitution }

func (w bracketText) Write(p []byte) (int, error) {
	if _, err := fasttemplate.ExecuteFunc(string(p), "[[", "]]", bareText(w), w.s.tag("[[", "]]")); err != nil {
		return 0, err
	}
	return len(p), nil
}

// bareText receives the text outside any tag and expands $name in it.
type bareText struct{ s *substitution }

func (w bareText) Write(p []byte) (int, error) {
	w.s.out.WriteString(bareRef.ReplaceAllStringFunc(string(p), func(ref string) string {
		if v, ok := w.s.lookup(ref[1:]); ok {
			return v
		}
		return ref
	}))
	return len(p), nil
}
