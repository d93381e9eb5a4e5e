// Package validate decides whether a query and an endpoint are acceptable to
// submit. Both checks are pure: they never perform I/O and return values
// instead of errors.
package validate

import (
	"strings"

	"evalgo.org/sparqlds/internal/sparql"
)

// Messages reported to users. Dashboards match on them, keep them stable.
const (
	MessageEmpty     = "SPARQL query is empty. Please provide a query."
	MessageInvalid   = "SPARQL query is not valid."
	MessageStructure = "SPARQL query has an invalid structure. Please provide a valid query."
	MessageValid     = "SPARQL query is valid!"
)

// Kind classifies a validation outcome. The zero Kind is unknown and blocks
// execution like any other non-valid kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindValid
	KindEmpty
	KindParseError
	KindStructureError
)

func (k Kind) String() string {
	switch k {
	case KindValid:
		return "valid"
	case KindEmpty:
		return "empty"
	case KindParseError:
		return "parse_error"
	case KindStructureError:
		return "structure_error"
	}
	return "unknown"
}

// Result is the outcome of a query check.
type Result struct {
	Kind    Kind
	Message string

	// Form is the parsed query form, FormUnknown unless the query parsed.
	Form sparql.Form
}

// Valid reports whether the query may be executed.
func (r Result) Valid() bool { return r.Kind == KindValid }

// Blocks reports whether execution must be suppressed for this result.
func (r Result) Blocks() bool { return r.Kind != KindValid }

// Checker checks queries against a set of accepted forms.
type Checker struct {
	prefixes map[string]string
	forms    map[sparql.Form]bool
}

// Option configures a Checker.
type Option func(*Checker)

// WithPrefixes predeclares prefixes for endpoints that accept them without
// PREFIX declarations.
func WithPrefixes(prefixes map[string]string) Option {
	return func(c *Checker) {
		for k, v := range prefixes {
			c.prefixes[k] = v
		}
	}
}

// WithForms replaces the accepted query forms. SELECT is accepted by default.
func WithForms(forms ...sparql.Form) Option {
	return func(c *Checker) {
		c.forms = make(map[sparql.Form]bool, len(forms))
		for _, f := range forms {
			c.forms[f] = true
		}
	}
}

// NewChecker returns a Checker accepting SELECT queries unless configured
// otherwise.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		prefixes: make(map[string]string),
		forms:    map[sparql.Form]bool{sparql.FormSelect: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultChecker accepts SELECT queries with no predeclared prefixes.
var DefaultChecker = NewChecker()

// CheckQuery checks query with DefaultChecker.
func CheckQuery(query string) Result {
	return DefaultChecker.Check(query)
}

// Check classifies query as empty, unparseable, of a form that is not
// accepted, or valid.
func (c *Checker) Check(query string) Result {
	text := strings.TrimSpace(query)
	if text == "" {
		return Result{Kind: KindEmpty, Message: MessageEmpty}
	}

	parsed, err := sparql.Parse(text, sparql.WithPrefixes(c.prefixes))
	if err != nil {
		return Result{Kind: KindParseError, Message: MessageInvalid + " " + err.Error()}
	}

	if !c.forms[parsed.Form] {
		return Result{Kind: KindStructureError, Message: MessageStructure, Form: parsed.Form}
	}
	return Result{Kind: KindValid, Message: MessageValid, Form: parsed.Form}
}

// Forms lists the accepted forms in declaration order.
func (c *Checker) Forms() []sparql.Form {
	var forms []sparql.Form
	for _, f := range []sparql.Form{sparql.FormSelect, sparql.FormConstruct, sparql.FormDescribe, sparql.FormAsk, sparql.FormUpdate} {
		if c.forms[f] {
			forms = append(forms, f)
		}
	}
	return forms
}
