package sparql

func (p *parser) parseGroupGraphPattern() error {
	leave, err := p.nest()
	if err != nil {
		return err
	}
	defer leave()
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	defer p.enterGroup()()
	if p.isKeyword("SELECT") {
		if err := p.parseSubSelect(); err != nil {
			return err
		}
	} else if err := p.parseGroupGraphPatternSub(); err != nil {
		return err
	}
	return p.expectPunct("}")
}

// parseGroupGraphPatternSub parses the body of a group up to its closing brace.
// Consecutive triple blocks must be separated by '.'.
func (p *parser) parseGroupGraphPatternSub() error {
	needDot := false
	for {
		if p.isPunct("}") {
			return nil
		}
		if p.startsTriples() {
			if needDot {
				return p.unexpected("'.' or '}'")
			}
			if err := p.parseTriplesSameSubject(true); err != nil {
				return err
			}
			needDot = !p.acceptPunct(".")
			continue
		}

		ok, err := p.parseGraphPatternNotTriples()
		if err != nil {
			return err
		}
		if !ok {
			return p.unexpected("'}'")
		}
		p.acceptPunct(".")
		needDot = false
	}
}

// parseGraphPatternNotTriples reports false without consuming input when the
// next token does not start such a pattern.
func (p *parser) parseGraphPatternNotTriples() (bool, error) {
	switch {
	case p.isPunct("{"):
		if err := p.parseGroupGraphPattern(); err != nil {
			return true, err
		}
		for p.acceptKeyword("UNION") {
			if err := p.parseGroupGraphPattern(); err != nil {
				return true, err
			}
		}
		return true, nil

	case p.acceptKeyword("OPTIONAL"):
		return true, p.parseGroupGraphPattern()

	case p.acceptKeyword("MINUS"):
		return true, p.parseIsolatedGroup()

	case p.acceptKeyword("GRAPH"):
		if !p.startsVarOrIRI() {
			return true, p.unexpected("variable or IRI")
		}
		if tok := p.peek(); tok.kind == tokVar {
			p.bind(tok.text)
		}
		if err := p.parseVarOrIRI(); err != nil {
			return true, err
		}
		return true, p.parseGroupGraphPattern()

	case p.acceptKeyword("SERVICE"):
		p.acceptKeyword("SILENT")
		if !p.startsVarOrIRI() {
			return true, p.unexpected("variable or IRI")
		}
		if err := p.parseVarOrIRI(); err != nil {
			return true, err
		}
		return true, p.parseGroupGraphPattern()

	case p.acceptKeyword("FILTER"):
		if !p.startsConstraint() {
			return true, p.unexpected("filter constraint")
		}
		return true, p.parseConstraint()

	case p.acceptKeyword("BIND"):
		if err := p.expectPunct("("); err != nil {
			return true, err
		}
		if err := p.parseExpression(); err != nil {
			return true, err
		}
		if err := p.expectKeyword("AS"); err != nil {
			return true, err
		}
		if p.peek().kind != tokVar {
			return true, p.unexpected("variable")
		}
		if err := p.checkBindTarget(p.peek()); err != nil {
			return true, err
		}
		p.bind(p.parseVar())
		return true, p.expectPunct(")")

	case p.acceptKeyword("VALUES"):
		return true, p.parseDataBlock()
	}
	return false, nil
}

// startsTriples reports whether the next token can begin a subject.
func (p *parser) startsTriples() bool {
	tok := p.peek()
	switch tok.kind {
	case tokVar, tokIRI, tokPName, tokBlank, tokString, tokInteger, tokDecimal, tokDouble:
		return true
	case tokName:
		return p.isKeyword("true") || p.isKeyword("false")
	case tokPunct:
		return tok.text == "[" || tok.text == "(" || p.startsNumber()
	}
	return false
}

// parseTriplesSameSubject parses a subject and its property list. With paths
// set, predicates may be property paths.
func (p *parser) parseTriplesSameSubject(paths bool) error {
	if p.startsTriplesNode() {
		if err := p.parseTriplesNode(paths); err != nil {
			return err
		}
		if p.startsVerb(paths) {
			return p.parsePropertyList(paths)
		}
		return nil
	}
	if err := p.parseVarOrTerm(); err != nil {
		return err
	}
	if !p.startsVerb(paths) {
		return p.unexpected("predicate")
	}
	return p.parsePropertyList(paths)
}

func (p *parser) parsePropertyList(paths bool) error {
	for {
		if err := p.parseVerb(paths); err != nil {
			return err
		}
		if err := p.parseObjectList(paths); err != nil {
			return err
		}
		if !p.acceptPunct(";") {
			return nil
		}
		for p.acceptPunct(";") {
		}
		if !p.startsVerb(paths) {
			return nil
		}
	}
}

func (p *parser) startsVerb(paths bool) bool {
	tok := p.peek()
	switch tok.kind {
	case tokVar, tokIRI, tokPName:
		return true
	case tokName:
		return tok.text == "a"
	case tokPunct:
		return paths && (tok.text == "^" || tok.text == "!" || tok.text == "(")
	}
	return false
}

func (p *parser) parseVerb(paths bool) error {
	tok := p.peek()
	switch {
	case tok.kind == tokVar:
		p.bind(p.parseVar())
		return nil
	case paths:
		return p.parsePath()
	case tok.kind == tokName && tok.text == "a":
		p.next()
		return nil
	}
	_, err := p.parseIRI()
	return err
}

func (p *parser) parseObjectList(paths bool) error {
	for {
		if err := p.parseGraphNode(paths); err != nil {
			return err
		}
		if !p.acceptPunct(",") {
			return nil
		}
	}
}

func (p *parser) parseGraphNode(paths bool) error {
	if p.startsTriplesNode() {
		return p.parseTriplesNode(paths)
	}
	return p.parseVarOrTerm()
}

// startsTriplesNode reports a collection or a blank node property list, as
// opposed to the empty forms () and [].
func (p *parser) startsTriplesNode() bool {
	next := p.peekAt(1)
	closed := next.kind == tokPunct && (next.text == ")" || next.text == "]")
	return (p.isPunct("(") || p.isPunct("[")) && !closed
}

func (p *parser) parseTriplesNode(paths bool) error {
	leave, err := p.nest()
	if err != nil {
		return err
	}
	defer leave()
	if p.acceptPunct("(") {
		if p.isPunct(")") {
			return p.unexpected("collection member")
		}
		for !p.isPunct(")") {
			if err := p.parseGraphNode(paths); err != nil {
				return err
			}
		}
		p.next()
		return nil
	}

	if err := p.expectPunct("["); err != nil {
		return err
	}
	if !p.startsVerb(paths) {
		return p.unexpected("predicate")
	}
	if err := p.parsePropertyList(paths); err != nil {
		return err
	}
	return p.expectPunct("]")
}

func (p *parser) parseVarOrTerm() error {
	tok := p.peek()
	switch {
	case tok.kind == tokVar:
		p.bind(p.parseVar())
		return nil
	case tok.kind == tokIRI || tok.kind == tokPName:
		_, err := p.parseIRI()
		return err
	case tok.kind == tokBlank:
		p.next()
		return nil
	case tok.kind == tokString:
		return p.parseRDFLiteral()
	case p.startsNumber():
		p.parseNumber()
		return nil
	case p.isKeyword("true") || p.isKeyword("false"):
		p.next()
		return nil
	case p.isPunct("[") || p.isPunct("("):
		// ANON or NIL; triples nodes are handled by the caller
		open := p.next().text
		if open == "[" {
			return p.expectPunct("]")
		}
		return p.expectPunct(")")
	}
	return p.unexpected("term")
}

func (p *parser) parseRDFLiteral() error {
	p.next() // string
	if p.peek().kind == tokLangTag {
		p.next()
		return nil
	}
	if p.acceptPunct("^^") {
		_, err := p.parseIRI()
		return err
	}
	return nil
}

// startsNumber reports an unsigned number or a sign directly followed by one.
func (p *parser) startsNumber() bool {
	tok := p.peek()
	switch tok.kind {
	case tokInteger, tokDecimal, tokDouble:
		return true
	case tokPunct:
		if tok.text != "+" && tok.text != "-" {
			return false
		}
		switch p.peekAt(1).kind {
		case tokInteger, tokDecimal, tokDouble:
			return true
		}
	}
	return false
}

func (p *parser) parseNumber() {
	if p.isPunct("+") || p.isPunct("-") {
		p.next()
	}
	p.next()
}

// Property paths

func (p *parser) parsePath() error {
	leave, err := p.nest()
	if err != nil {
		return err
	}
	defer leave()
	if err := p.parsePathSequence(); err != nil {
		return err
	}
	for p.acceptPunct("|") {
		if err := p.parsePathSequence(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parsePathSequence() error {
	if err := p.parsePathEltOrInverse(); err != nil {
		return err
	}
	for p.acceptPunct("/") {
		if err := p.parsePathEltOrInverse(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parsePathEltOrInverse() error {
	p.acceptPunct("^")
	if err := p.parsePathPrimary(); err != nil {
		return err
	}
	if p.isPunct("?") || p.isPunct("*") || p.isPunct("+") {
		p.next()
	}
	return nil
}

func (p *parser) parsePathPrimary() error {
	switch tok := p.peek(); {
	case tok.kind == tokName && tok.text == "a":
		p.next()
		return nil
	case p.acceptPunct("!"):
		return p.parsePathNegatedPropertySet()
	case p.acceptPunct("("):
		if err := p.parsePath(); err != nil {
			return err
		}
		return p.expectPunct(")")
	}
	_, err := p.parseIRI()
	return err
}

func (p *parser) parsePathNegatedPropertySet() error {
	if !p.acceptPunct("(") {
		return p.parsePathOneInPropertySet()
	}
	if p.acceptPunct(")") {
		return nil
	}
	for {
		if err := p.parsePathOneInPropertySet(); err != nil {
			return err
		}
		if !p.acceptPunct("|") {
			return p.expectPunct(")")
		}
	}
}

func (p *parser) parsePathOneInPropertySet() error {
	p.acceptPunct("^")
	if tok := p.peek(); tok.kind == tokName && tok.text == "a" {
		p.next()
		return nil
	}
	_, err := p.parseIRI()
	return err
}

// parseTriplesTemplate parses triples without property paths, as used in
// CONSTRUCT templates and update data blocks, stopping before '}' or GRAPH.
func (p *parser) parseTriplesTemplate() error {
	for p.startsTriples() {
		if err := p.parseTriplesSameSubject(false); err != nil {
			return err
		}
		if !p.acceptPunct(".") {
			return nil
		}
	}
	return nil
}
