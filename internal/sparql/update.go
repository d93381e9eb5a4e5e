package sparql

import "strings"

var updateKeywords = []string{"LOAD", "CLEAR", "DROP", "CREATE", "ADD", "MOVE", "COPY", "INSERT", "DELETE", "WITH"}

func (p *parser) startsUpdate() bool {
	for _, kw := range updateKeywords {
		if p.isKeyword(kw) {
			return true
		}
	}
	return false
}

// parseUpdate parses a sequence of update operations separated by ';', each
// optionally preceded by its own prologue.
func (p *parser) parseUpdate() error {
	for {
		if err := p.parseUpdateOperation(); err != nil {
			return err
		}
		if !p.acceptPunct(";") {
			break
		}
		if err := p.parsePrologue(); err != nil {
			return err
		}
		if p.peek().kind == tokEOF {
			break
		}
		if !p.startsUpdate() {
			return p.unexpected("update operation")
		}
	}
	if p.peek().kind != tokEOF {
		return p.unexpected("';' or end of update")
	}
	return nil
}

func (p *parser) parseUpdateOperation() error {
	tok := p.peek()
	switch {
	case p.acceptKeyword("LOAD"):
		p.record("LOAD")
		p.acceptKeyword("SILENT")
		if _, err := p.parseIRI(); err != nil {
			return err
		}
		if p.acceptKeyword("INTO") {
			return p.parseGraphRef()
		}
		return nil

	case p.acceptKeyword("CLEAR"), p.acceptKeyword("DROP"):
		p.record(strings.ToUpper(tok.text))
		p.acceptKeyword("SILENT")
		return p.parseGraphRefAll()

	case p.acceptKeyword("CREATE"):
		p.record("CREATE")
		p.acceptKeyword("SILENT")
		return p.parseGraphRef()

	case p.acceptKeyword("ADD"), p.acceptKeyword("MOVE"), p.acceptKeyword("COPY"):
		p.record(strings.ToUpper(tok.text))
		p.acceptKeyword("SILENT")
		if err := p.parseGraphOrDefault(); err != nil {
			return err
		}
		if err := p.expectKeyword("TO"); err != nil {
			return err
		}
		return p.parseGraphOrDefault()

	case p.isKeyword("INSERT") && p.keywordAt(1, "DATA"):
		p.next()
		p.next()
		p.record("INSERT DATA")
		return p.parseQuadData()

	case p.isKeyword("DELETE") && p.keywordAt(1, "DATA"):
		p.next()
		p.next()
		p.record("DELETE DATA")
		return p.parseQuadData()

	case p.isKeyword("DELETE") && p.keywordAt(1, "WHERE"):
		p.next()
		p.next()
		p.record("DELETE WHERE")
		return p.parseQuadPattern()
	}
	return p.parseModify()
}

// parseModify parses [WITH iri] DELETE/INSERT templates, USING clauses and
// the WHERE pattern.
func (p *parser) parseModify() error {
	p.record("MODIFY")
	if p.acceptKeyword("WITH") {
		if _, err := p.parseIRI(); err != nil {
			return err
		}
	}

	templates := 0
	if p.acceptKeyword("DELETE") {
		if err := p.parseQuadPattern(); err != nil {
			return err
		}
		templates++
	}
	if p.acceptKeyword("INSERT") {
		if err := p.parseQuadPattern(); err != nil {
			return err
		}
		templates++
	}
	if templates == 0 {
		return p.unexpected("DELETE or INSERT")
	}

	for p.acceptKeyword("USING") {
		p.acceptKeyword("NAMED")
		if _, err := p.parseIRI(); err != nil {
			return err
		}
	}
	if err := p.expectKeyword("WHERE"); err != nil {
		return err
	}
	return p.parseGroupGraphPattern()
}

func (p *parser) parseGraphRef() error {
	if err := p.expectKeyword("GRAPH"); err != nil {
		return err
	}
	_, err := p.parseIRI()
	return err
}

func (p *parser) parseGraphRefAll() error {
	if p.acceptKeyword("DEFAULT") || p.acceptKeyword("NAMED") || p.acceptKeyword("ALL") {
		return nil
	}
	return p.parseGraphRef()
}

func (p *parser) parseGraphOrDefault() error {
	if p.acceptKeyword("DEFAULT") {
		return nil
	}
	p.acceptKeyword("GRAPH")
	_, err := p.parseIRI()
	return err
}

// parseQuadData parses a quad block that may not contain variables.
func (p *parser) parseQuadData() error {
	start := p.pos
	if err := p.parseQuadPattern(); err != nil {
		return err
	}
	for _, tok := range p.toks[start:p.pos] {
		if tok.kind == tokVar {
			return newSyntaxError(tok.line, tok.col, "variables are not allowed in data blocks, got %s", tok.describe())
		}
	}
	return nil
}

func (p *parser) parseQuadPattern() error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	if err := p.parseTriplesTemplate(); err != nil {
		return err
	}
	for p.acceptKeyword("GRAPH") {
		if !p.startsVarOrIRI() {
			return p.unexpected("variable or IRI")
		}
		if err := p.parseVarOrIRI(); err != nil {
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
		p.acceptPunct(".")
		if err := p.parseTriplesTemplate(); err != nil {
			return err
		}
	}
	return p.expectPunct("}")
}

func (p *parser) keywordAt(n int, kw string) bool {
	tok := p.peekAt(n)
	return tok.kind == tokName && strings.ToUpper(tok.text) == kw
}

func (p *parser) record(op string) {
	p.query.Operations = append(p.query.Operations, op)
}
