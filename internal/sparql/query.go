// Package sparql parses SPARQL 1.1 queries and updates.
//
// The parser checks the full query and update grammar and keeps a summary of
// what it saw: the query form, the prologue, the projection, dataset clauses,
// and the variables mentioned anywhere in the text. It does not build an
// algebra tree; callers use it to decide whether a query may be sent to an
// endpoint.
package sparql

import (
	"fmt"
	"strings"
)

// Form is the top-level operation type of a SPARQL request.
type Form int

const (
	FormUnknown Form = iota
	FormSelect
	FormConstruct
	FormDescribe
	FormAsk
	FormUpdate
)

var formNames = map[Form]string{
	FormSelect:    "SELECT",
	FormConstruct: "CONSTRUCT",
	FormDescribe:  "DESCRIBE",
	FormAsk:       "ASK",
	FormUpdate:    "UPDATE",
}

func (f Form) String() string {
	if name, ok := formNames[f]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseForm maps a form name such as "select" or "ASK" to its Form.
func ParseForm(name string) (Form, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for form, n := range formNames {
		if n == upper {
			return form, nil
		}
	}
	return FormUnknown, fmt.Errorf("unknown query form %q", name)
}

// Query summarizes a parsed request.
type Query struct {
	Form     Form
	Base     string
	Prefixes map[string]string

	// Projection lists the projected variable names of a top-level SELECT.
	// Star is set for SELECT * instead.
	Projection []string
	Star       bool
	Distinct   bool
	Reduced    bool

	From      []string
	FromNamed []string

	// Limit and Offset are -1 when absent.
	Limit  int64
	Offset int64

	// Variables holds every variable name in order of first appearance.
	Variables []string

	// Operations lists the update operations of an UPDATE request,
	// e.g. "INSERT DATA" or "LOAD".
	Operations []string
}

// SyntaxError is a grammar violation at a position in the input.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Parse error on line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func newSyntaxError(line, col int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

// Option configures Parse.
type Option func(*options)

type options struct {
	prefixes map[string]string
}

// WithPrefixes predeclares prefixes, the way public endpoints such as Wikidata
// accept wd: and wdt: without a PREFIX line. Declarations in the query text
// take precedence.
func WithPrefixes(prefixes map[string]string) Option {
	return func(o *options) {
		if o.prefixes == nil {
			o.prefixes = make(map[string]string, len(prefixes))
		}
		for k, v := range prefixes {
			o.prefixes[k] = v
		}
	}
}
