package sparql

import (
	"strconv"
	"strings"
)

// arity bounds the argument count of a built-in call; max < 0 means unbounded.
type arity struct{ min, max int }

var builtins = map[string]arity{
	"STR": {1, 1}, "LANG": {1, 1}, "LANGMATCHES": {2, 2}, "DATATYPE": {1, 1},
	"IRI": {1, 1}, "URI": {1, 1}, "BNODE": {0, 1}, "RAND": {0, 0},
	"ABS": {1, 1}, "CEIL": {1, 1}, "FLOOR": {1, 1}, "ROUND": {1, 1},
	"CONCAT": {0, -1}, "SUBSTR": {2, 3}, "STRLEN": {1, 1}, "REPLACE": {3, 4},
	"UCASE": {1, 1}, "LCASE": {1, 1}, "ENCODE_FOR_URI": {1, 1},
	"CONTAINS": {2, 2}, "STRSTARTS": {2, 2}, "STRENDS": {2, 2},
	"STRBEFORE": {2, 2}, "STRAFTER": {2, 2},
	"YEAR": {1, 1}, "MONTH": {1, 1}, "DAY": {1, 1}, "HOURS": {1, 1},
	"MINUTES": {1, 1}, "SECONDS": {1, 1}, "TIMEZONE": {1, 1}, "TZ": {1, 1},
	"NOW": {0, 0}, "UUID": {0, 0}, "STRUUID": {0, 0},
	"MD5": {1, 1}, "SHA1": {1, 1}, "SHA256": {1, 1}, "SHA384": {1, 1}, "SHA512": {1, 1},
	"COALESCE": {0, -1}, "IF": {3, 3}, "STRLANG": {2, 2}, "STRDT": {2, 2},
	"SAMETERM": {2, 2}, "ISIRI": {1, 1}, "ISURI": {1, 1}, "ISBLANK": {1, 1},
	"ISLITERAL": {1, 1}, "ISNUMERIC": {1, 1}, "REGEX": {2, 3},
}

var aggregates = map[string]bool{
	"COUNT": true, "SUM": true, "MIN": true, "MAX": true,
	"AVG": true, "SAMPLE": true, "GROUP_CONCAT": true,
}

// isBuiltinName reports whether tok names a built-in call, aggregate or
// EXISTS form.
func (p *parser) isBuiltinName(tok token) bool {
	if tok.kind != tokName {
		return false
	}
	upper := strings.ToUpper(tok.text)
	if _, ok := builtins[upper]; ok {
		return true
	}
	switch upper {
	case "BOUND", "EXISTS":
		return true
	case "NOT":
		next := p.peekAt(1)
		return next.kind == tokName && strings.EqualFold(next.text, "EXISTS")
	}
	return aggregates[upper]
}

// startsConstraint reports a bracketted expression, built-in call or function
// call, the forms FILTER, HAVING and ORDER BY accept.
func (p *parser) startsConstraint() bool {
	tok := p.peek()
	switch tok.kind {
	case tokPunct:
		return tok.text == "("
	case tokIRI, tokPName:
		return true
	}
	return p.isBuiltinName(tok)
}

func (p *parser) parseConstraint() error {
	tok := p.peek()
	switch {
	case p.isPunct("("):
		return p.parseBrackettedExpression()
	case tok.kind == tokIRI || tok.kind == tokPName:
		if _, err := p.parseIRI(); err != nil {
			return err
		}
		if !p.isPunct("(") {
			return p.unexpected("'('")
		}
		return p.parseArgList(true)
	case p.isBuiltinName(tok):
		return p.parseBuiltinCall()
	}
	return p.unexpected("constraint")
}

func (p *parser) parseBrackettedExpression() error {
	if err := p.expectPunct("("); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	return p.expectPunct(")")
}

func (p *parser) parseExpression() error {
	leave, err := p.nest()
	if err != nil {
		return err
	}
	defer leave()
	if err := p.parseAndExpression(); err != nil {
		return err
	}
	for p.acceptPunct("||") {
		if err := p.parseAndExpression(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseAndExpression() error {
	if err := p.parseRelationalExpression(); err != nil {
		return err
	}
	for p.acceptPunct("&&") {
		if err := p.parseRelationalExpression(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseRelationalExpression() error {
	if err := p.parseAdditiveExpression(); err != nil {
		return err
	}
	for _, op := range []string{"=", "!=", "<", ">", "<=", ">="} {
		if p.acceptPunct(op) {
			return p.parseAdditiveExpression()
		}
	}
	if p.acceptKeyword("IN") {
		return p.parseExpressionList()
	}
	if p.isKeyword("NOT") && strings.EqualFold(p.peekAt(1).text, "IN") && p.peekAt(1).kind == tokName {
		p.next()
		p.next()
		return p.parseExpressionList()
	}
	return nil
}

func (p *parser) parseAdditiveExpression() error {
	if err := p.parseMultiplicativeExpression(); err != nil {
		return err
	}
	for p.acceptPunct("+") || p.acceptPunct("-") {
		if err := p.parseMultiplicativeExpression(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseMultiplicativeExpression() error {
	if err := p.parseUnaryExpression(); err != nil {
		return err
	}
	for p.acceptPunct("*") || p.acceptPunct("/") {
		if err := p.parseUnaryExpression(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseUnaryExpression() error {
	if p.isPunct("!") || p.isPunct("+") || p.isPunct("-") {
		p.next()
	}
	return p.parsePrimaryExpression()
}

func (p *parser) parsePrimaryExpression() error {
	tok := p.peek()
	switch {
	case p.isPunct("("):
		return p.parseBrackettedExpression()
	case tok.kind == tokVar:
		p.use(p.parseVar())
		return nil
	case tok.kind == tokIRI || tok.kind == tokPName:
		if _, err := p.parseIRI(); err != nil {
			return err
		}
		if p.isPunct("(") {
			return p.parseArgList(true)
		}
		return nil
	case tok.kind == tokString:
		return p.parseRDFLiteral()
	case tok.kind == tokInteger || tok.kind == tokDecimal || tok.kind == tokDouble:
		p.next()
		return nil
	case p.isKeyword("true") || p.isKeyword("false"):
		p.next()
		return nil
	case p.isBuiltinName(tok):
		return p.parseBuiltinCall()
	}
	return p.unexpected("expression")
}

// parseArgList parses a function argument list; distinct allows the DISTINCT
// modifier extension functions may take.
func (p *parser) parseArgList(distinct bool) error {
	if err := p.expectPunct("("); err != nil {
		return err
	}
	if p.acceptPunct(")") {
		return nil
	}
	if distinct {
		p.acceptKeyword("DISTINCT")
	}
	for {
		if err := p.parseExpression(); err != nil {
			return err
		}
		if !p.acceptPunct(",") {
			return p.expectPunct(")")
		}
	}
}

func (p *parser) parseExpressionList() error {
	_, err := p.parseCountedArgs()
	return err
}

// parseCountedArgs parses '(' [expr (',' expr)*] ')' and returns the count.
func (p *parser) parseCountedArgs() (int, error) {
	if err := p.expectPunct("("); err != nil {
		return 0, err
	}
	if p.acceptPunct(")") {
		return 0, nil
	}
	n := 0
	for {
		if err := p.parseExpression(); err != nil {
			return n, err
		}
		n++
		if !p.acceptPunct(",") {
			return n, p.expectPunct(")")
		}
	}
}

func (p *parser) parseBuiltinCall() error {
	tok := p.next()
	name := strings.ToUpper(tok.text)

	switch name {
	case "BOUND":
		if err := p.expectPunct("("); err != nil {
			return err
		}
		if p.peek().kind != tokVar {
			return p.unexpected("variable")
		}
		p.use(p.parseVar())
		return p.expectPunct(")")
	case "EXISTS":
		return p.parseIsolatedGroup()
	case "NOT":
		p.next() // EXISTS
		return p.parseIsolatedGroup()
	}
	if aggregates[name] {
		if !p.aggOK {
			return newSyntaxError(tok.line, tok.col, "aggregate %s is only allowed in SELECT, HAVING and ORDER BY", name)
		}
		if p.sel != nil {
			p.sel.aggregated = true
		}
		p.inAgg++
		defer func() { p.inAgg-- }()
		return p.parseAggregate(name)
	}

	bounds := builtins[name]
	n, err := p.parseCountedArgs()
	if err != nil {
		return err
	}
	if n < bounds.min || (bounds.max >= 0 && n > bounds.max) {
		return newSyntaxError(tok.line, tok.col, "%s takes %s, got %d", name, bounds.describe(), n)
	}
	return nil
}

func (p *parser) parseAggregate(name string) error {
	if err := p.expectPunct("("); err != nil {
		return err
	}
	p.acceptKeyword("DISTINCT")
	if name == "COUNT" && p.acceptPunct("*") {
		return p.expectPunct(")")
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	if name == "GROUP_CONCAT" && p.acceptPunct(";") {
		if err := p.expectKeyword("SEPARATOR"); err != nil {
			return err
		}
		if err := p.expectPunct("="); err != nil {
			return err
		}
		if p.peek().kind != tokString {
			return p.unexpected("string literal")
		}
		p.next()
	}
	return p.expectPunct(")")
}

func (a arity) describe() string {
	switch {
	case a.max < 0:
		return "any number of arguments"
	case a.min == a.max && a.min == 1:
		return "1 argument"
	case a.min == a.max:
		return strconv.Itoa(a.min) + " arguments"
	}
	return strconv.Itoa(a.min) + " to " + strconv.Itoa(a.max) + " arguments"
}
