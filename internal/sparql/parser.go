package sparql

import (
	"math"
	"strconv"
	"strings"
)

type parser struct {
	toks        []token
	pos         int
	predeclared map[string]string
	query       *Query
	seen        map[string]bool
	depth       int // sub-SELECT nesting
	nesting     int

	bound map[string]bool // variables in scope in the current group
	sel   *selection
	uses  *[]string
	aggOK bool
	inAgg int
}

// maxNesting bounds nested groups, expressions, collections and path groups.
const maxNesting = 256

// nest enters one nesting level; the returned func leaves it.
func (p *parser) nest() (func(), error) {
	if p.nesting >= maxNesting {
		tok := p.peek()
		return nil, newSyntaxError(tok.line, tok.col, "nesting too deep (more than %d levels)", maxNesting)
	}
	p.nesting++
	return func() { p.nesting-- }, nil
}

// Parse checks text against the SPARQL 1.1 query and update grammars and
// returns a summary of the request. Grammar violations are returned as
// *SyntaxError.
func Parse(text string, opts ...Option) (*Query, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	toks, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{
		toks:        toks,
		predeclared: cfg.prefixes,
		seen:        make(map[string]bool),
		bound:       make(map[string]bool),
		query: &Query{
			Prefixes: make(map[string]string),
			Limit:    -1,
			Offset:   -1,
		},
	}
	if err := p.parseRequest(); err != nil {
		return nil, err
	}
	return p.query, nil
}

func (p *parser) parseRequest() error {
	if err := p.parsePrologue(); err != nil {
		return err
	}

	var err error
	switch {
	case p.isKeyword("SELECT"):
		p.query.Form = FormSelect
		err = p.parseSelectQuery()
	case p.isKeyword("CONSTRUCT"):
		p.query.Form = FormConstruct
		err = p.parseConstructQuery()
	case p.isKeyword("DESCRIBE"):
		p.query.Form = FormDescribe
		err = p.parseDescribeQuery()
	case p.isKeyword("ASK"):
		p.query.Form = FormAsk
		err = p.parseAskQuery()
	case p.startsUpdate():
		p.query.Form = FormUpdate
		return p.parseUpdate()
	default:
		return p.unexpected("SELECT, CONSTRUCT, DESCRIBE, ASK or an update operation")
	}
	if err != nil {
		return err
	}

	if err := p.parseValuesClause(); err != nil {
		return err
	}
	if p.peek().kind != tokEOF {
		return p.unexpected("end of query")
	}
	return nil
}

func (p *parser) parsePrologue() error {
	for {
		switch {
		case p.acceptKeyword("BASE"):
			tok := p.peek()
			if tok.kind != tokIRI {
				return p.unexpected("IRI")
			}
			p.next()
			p.query.Base = tok.text
		case p.acceptKeyword("PREFIX"):
			tok := p.peek()
			if tok.kind != tokPName || tok.text != "" {
				return p.unexpected("prefix name")
			}
			p.next()
			iri := p.peek()
			if iri.kind != tokIRI {
				return p.unexpected("IRI")
			}
			p.next()
			p.query.Prefixes[tok.prefix] = iri.text
		default:
			return nil
		}
	}
}

// parseSelectClause parses SELECT with its modifiers and projection.
func (p *parser) parseSelectClause() error {
	p.next() // SELECT
	top := p.depth == 0

	if p.acceptKeyword("DISTINCT") {
		if top {
			p.query.Distinct = true
		}
	} else if p.acceptKeyword("REDUCED") {
		if top {
			p.query.Reduced = true
		}
	}

	if p.isPunct("*") {
		p.sel.star, p.sel.starTok = true, p.next()
		if top {
			p.query.Star = true
		}
		return nil
	}

	for {
		item := projectionItem{tok: p.peek()}
		switch {
		case item.tok.kind == tokVar:
			item.name = p.parseVar()
		case p.acceptPunct("("):
			uses, err := p.collect(p.parseExpression)
			if err != nil {
				return err
			}
			if err := p.expectKeyword("AS"); err != nil {
				return err
			}
			if p.peek().kind != tokVar {
				return p.unexpected("variable")
			}
			item.tok, item.alias, item.uses = p.peek(), true, uses
			item.name = p.parseVar()
			if err := p.expectPunct(")"); err != nil {
				return err
			}
		default:
			if len(p.sel.items) == 0 {
				return p.unexpected("variable, '(' or '*'")
			}
			return nil
		}
		p.sel.items = append(p.sel.items, item)
		if top {
			p.query.Projection = append(p.query.Projection, item.name)
		}
	}
}

func (p *parser) parseSelectQuery() error {
	p.sel = &selection{groupVars: make(map[string]bool)}
	if err := p.parseSelectClause(); err != nil {
		return err
	}
	if err := p.parseDatasetClauses(); err != nil {
		return err
	}
	if err := p.parseWhereClause(); err != nil {
		return err
	}
	p.sel.where = p.bound
	if err := p.parseSolutionModifier(); err != nil {
		return err
	}
	return p.checkSelection(p.sel)
}

// parseSubSelect parses a SELECT nested in a group graph pattern. Only its
// projected variables are in scope outside it.
func (p *parser) parseSubSelect() error {
	p.depth++
	outerSel, outerBound := p.sel, p.bound
	sel := &selection{groupVars: make(map[string]bool)}
	p.sel, p.bound = sel, make(map[string]bool)
	defer func() {
		inner := p.bound
		p.depth--
		p.sel, p.bound = outerSel, outerBound
		if sel.star {
			for name := range inner {
				p.bind(name)
			}
			return
		}
		for _, it := range sel.items {
			p.bind(it.name)
		}
	}()

	if err := p.parseSelectClause(); err != nil {
		return err
	}
	if err := p.parseWhereClause(); err != nil {
		return err
	}
	sel.where = p.bound
	if err := p.parseSolutionModifier(); err != nil {
		return err
	}
	if err := p.checkSelection(sel); err != nil {
		return err
	}
	return p.parseValuesClause()
}

func (p *parser) parseConstructQuery() error {
	p.next() // CONSTRUCT

	if p.isPunct("{") {
		p.next()
		if err := p.parseTriplesTemplate(); err != nil {
			return err
		}
		if err := p.expectPunct("}"); err != nil {
			return err
		}
		if err := p.parseDatasetClauses(); err != nil {
			return err
		}
		if err := p.parseWhereClause(); err != nil {
			return err
		}
		return p.parseSolutionModifier()
	}

	// short form: CONSTRUCT WHERE { template }
	if err := p.parseDatasetClauses(); err != nil {
		return err
	}
	if err := p.expectKeyword("WHERE"); err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	if err := p.parseTriplesTemplate(); err != nil {
		return err
	}
	if err := p.expectPunct("}"); err != nil {
		return err
	}
	return p.parseSolutionModifier()
}

func (p *parser) parseDescribeQuery() error {
	p.next() // DESCRIBE

	if p.acceptPunct("*") {
		p.query.Star = true
	} else {
		n := 0
		for p.startsVarOrIRI() {
			if err := p.parseVarOrIRI(); err != nil {
				return err
			}
			n++
		}
		if n == 0 {
			return p.unexpected("variable, IRI or '*'")
		}
	}

	if err := p.parseDatasetClauses(); err != nil {
		return err
	}
	if p.isKeyword("WHERE") || p.isPunct("{") {
		if err := p.parseWhereClause(); err != nil {
			return err
		}
	}
	return p.parseSolutionModifier()
}

func (p *parser) parseAskQuery() error {
	p.next() // ASK
	if err := p.parseDatasetClauses(); err != nil {
		return err
	}
	if err := p.parseWhereClause(); err != nil {
		return err
	}
	return p.parseSolutionModifier()
}

func (p *parser) parseDatasetClauses() error {
	for p.acceptKeyword("FROM") {
		named := p.acceptKeyword("NAMED")
		iri, err := p.parseIRI()
		if err != nil {
			return err
		}
		if named {
			p.query.FromNamed = append(p.query.FromNamed, iri)
		} else {
			p.query.From = append(p.query.From, iri)
		}
	}
	return nil
}

func (p *parser) parseWhereClause() error {
	p.acceptKeyword("WHERE")
	if !p.isPunct("{") {
		return p.unexpected("'{'")
	}
	return p.parseGroupGraphPattern()
}

func (p *parser) parseSolutionModifier() error {
	if p.isKeyword("GROUP") {
		p.next()
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		n := 0
		for p.peek().kind == tokVar || p.startsConstraint() {
			if err := p.parseGroupCondition(); err != nil {
				return err
			}
			n++
		}
		if n == 0 {
			return p.unexpected("group condition")
		}
		if p.sel != nil {
			p.sel.grouped = true
		}
	}

	if p.acceptKeyword("HAVING") {
		n := 0
		for p.startsConstraint() {
			if err := p.allowAggregates(p.parseConstraint); err != nil {
				return err
			}
			n++
		}
		if n == 0 {
			return p.unexpected("having condition")
		}
	}

	if p.isKeyword("ORDER") {
		p.next()
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		n := 0
		for p.isKeyword("ASC") || p.isKeyword("DESC") || p.peek().kind == tokVar || p.startsConstraint() {
			if err := p.allowAggregates(p.parseOrderCondition); err != nil {
				return err
			}
			n++
		}
		if n == 0 {
			return p.unexpected("order condition")
		}
	}

	return p.parseLimitOffset()
}

// parseGroupCondition parses one GROUP BY condition and records the
// variable it groups by: a plain variable, (?x) or the target of AS.
func (p *parser) parseGroupCondition() error {
	switch {
	case p.peek().kind == tokVar:
		p.groupBy(p.parseVar())
		return nil
	case p.acceptPunct("("):
		if p.peek().kind == tokVar && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == ")" {
			p.groupBy(p.peek().text)
		}
		if err := p.parseExpression(); err != nil {
			return err
		}
		if p.acceptKeyword("AS") {
			if p.peek().kind != tokVar {
				return p.unexpected("variable")
			}
			p.groupBy(p.parseVar())
		}
		return p.expectPunct(")")
	default:
		return p.parseConstraint()
	}
}

func (p *parser) groupBy(name string) {
	if p.sel != nil {
		p.sel.groupVars[name] = true
	}
}

func (p *parser) parseOrderCondition() error {
	if p.acceptKeyword("ASC") || p.acceptKeyword("DESC") {
		if !p.isPunct("(") {
			return p.unexpected("'('")
		}
		return p.parseBrackettedExpression()
	}
	if p.peek().kind == tokVar {
		p.parseVar()
		return nil
	}
	return p.parseConstraint()
}

func (p *parser) parseLimitOffset() error {
	var haveLimit, haveOffset bool
	for {
		switch {
		case !haveLimit && p.isKeyword("LIMIT"):
			haveLimit = true
			p.next()
			n, err := p.parseInteger()
			if err != nil {
				return err
			}
			if p.depth == 0 {
				p.query.Limit = n
			}
		case !haveOffset && p.isKeyword("OFFSET"):
			haveOffset = true
			p.next()
			n, err := p.parseInteger()
			if err != nil {
				return err
			}
			if p.depth == 0 {
				p.query.Offset = n
			}
		default:
			return nil
		}
	}
}

// parseInteger parses a LIMIT or OFFSET value, clamping values beyond int64.
func (p *parser) parseInteger() (int64, error) {
	tok := p.peek()
	if tok.kind != tokInteger {
		return 0, p.unexpected("integer")
	}
	p.next()
	n, err := strconv.ParseInt(tok.text, 10, 64)
	if err != nil {
		return math.MaxInt64, nil
	}
	return n, nil
}

func (p *parser) parseValuesClause() error {
	if !p.acceptKeyword("VALUES") {
		return nil
	}
	return p.parseDataBlock()
}

// parseDataBlock parses the body of VALUES in either one-variable or full form.
func (p *parser) parseDataBlock() error {
	if p.peek().kind == tokVar {
		p.bind(p.parseVar())
		if err := p.expectPunct("{"); err != nil {
			return err
		}
		for !p.isPunct("}") {
			if err := p.parseDataBlockValue(); err != nil {
				return err
			}
		}
		p.next()
		return nil
	}

	if err := p.expectPunct("("); err != nil {
		return err
	}
	width := 0
	for p.peek().kind == tokVar {
		p.bind(p.parseVar())
		width++
	}
	if err := p.expectPunct(")"); err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for p.isPunct("(") {
		open := p.next()
		n := 0
		for !p.isPunct(")") {
			if err := p.parseDataBlockValue(); err != nil {
				return err
			}
			n++
		}
		p.next()
		if n != width {
			return newSyntaxError(open.line, open.col, "VALUES row has %d values, expected %d", n, width)
		}
	}
	return p.expectPunct("}")
}

func (p *parser) parseDataBlockValue() error {
	tok := p.peek()
	switch {
	case p.acceptKeyword("UNDEF"):
		return nil
	case tok.kind == tokIRI || tok.kind == tokPName:
		_, err := p.parseIRI()
		return err
	case tok.kind == tokString:
		return p.parseRDFLiteral()
	case p.startsNumber():
		p.parseNumber()
		return nil
	case p.isKeyword("true") || p.isKeyword("false"):
		p.next()
		return nil
	}
	return p.unexpected("data value")
}

// token helpers

func (p *parser) peek() token { return p.peekAt(0) }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) isKeyword(kw string) bool {
	tok := p.peek()
	return tok.kind == tokName && strings.EqualFold(tok.text, kw)
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return p.unexpected(kw)
	}
	return nil
}

func (p *parser) isPunct(s string) bool {
	tok := p.peek()
	return tok.kind == tokPunct && tok.text == s
}

func (p *parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return p.unexpected("'" + s + "'")
	}
	return nil
}

func (p *parser) unexpected(expected string) error {
	tok := p.peek()
	return newSyntaxError(tok.line, tok.col, "expected %s, got %s", expected, tok.describe())
}

func (p *parser) parseVar() string {
	name := p.next().text
	if !p.seen[name] {
		p.seen[name] = true
		p.query.Variables = append(p.query.Variables, name)
	}
	return name
}

// parseIRI accepts an IRIREF or a prefixed name with a known prefix.
func (p *parser) parseIRI() (string, error) {
	tok := p.peek()
	switch tok.kind {
	case tokIRI:
		p.next()
		return tok.text, nil
	case tokPName:
		ns, ok := p.query.Prefixes[tok.prefix]
		if !ok {
			ns, ok = p.predeclared[tok.prefix]
		}
		if !ok {
			return "", newSyntaxError(tok.line, tok.col, "Unknown prefix: %s", tok.prefix)
		}
		p.next()
		return ns + tok.text, nil
	}
	return "", p.unexpected("IRI")
}

func (p *parser) startsVarOrIRI() bool {
	switch p.peek().kind {
	case tokVar, tokIRI, tokPName:
		return true
	}
	return false
}

func (p *parser) parseVarOrIRI() error {
	if p.peek().kind == tokVar {
		p.parseVar()
		return nil
	}
	_, err := p.parseIRI()
	return err
}
