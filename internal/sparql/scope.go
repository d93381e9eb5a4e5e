package sparql

// selection tracks one SELECT for the projection and grouping rules of
// SPARQL 1.1 section 18.2.4.1 and the AS rule of section 18.2.1.
type selection struct {
	star       bool
	starTok    token
	items      []projectionItem
	groupVars  map[string]bool
	grouped    bool
	aggregated bool
	where      map[string]bool
}

type projectionItem struct {
	name  string
	tok   token
	alias bool
	uses  []string // variables read outside aggregates
}

// bind marks name as in scope in the current group.
func (p *parser) bind(name string) {
	if p.bound != nil {
		p.bound[name] = true
	}
}

// use records a variable read by the expression being collected.
func (p *parser) use(name string) {
	if p.uses != nil && p.inAgg == 0 {
		*p.uses = append(*p.uses, name)
	}
}

// collect parses an expression with aggregates allowed and returns the
// variables it reads outside aggregates.
func (p *parser) collect(parse func() error) ([]string, error) {
	prevUses, prevAggOK := p.uses, p.aggOK
	uses := []string{}
	p.uses, p.aggOK = &uses, true
	err := parse()
	p.uses, p.aggOK = prevUses, prevAggOK
	return uses, err
}

// allowAggregates parses with aggregates allowed, as in HAVING and ORDER BY.
func (p *parser) allowAggregates(parse func() error) error {
	prev := p.aggOK
	p.aggOK = true
	err := parse()
	p.aggOK = prev
	return err
}

// enterGroup starts a new group scope; the returned func ends it and merges
// its variables into the enclosing scope.
func (p *parser) enterGroup() func() {
	outer, prevUses, prevAggOK := p.bound, p.uses, p.aggOK
	p.bound, p.uses, p.aggOK = make(map[string]bool), nil, false
	return func() {
		inner := p.bound
		p.bound, p.uses, p.aggOK = outer, prevUses, prevAggOK
		for name := range inner {
			p.bind(name)
		}
	}
}

// parseIsolatedGroup parses a group whose variables do not leave it, as for
// MINUS and EXISTS.
func (p *parser) parseIsolatedGroup() error {
	outer := p.bound
	p.bound = make(map[string]bool)
	err := p.parseGroupGraphPattern()
	p.bound = outer
	return err
}

func (p *parser) checkBindTarget(tok token) error {
	if p.bound[tok.text] {
		return newSyntaxError(tok.line, tok.col, "variable ?%s is already in scope and cannot be the target of BIND", tok.text)
	}
	return nil
}

func (p *parser) checkSelection(s *selection) error {
	aggregate := s.grouped || s.aggregated
	if s.star && aggregate {
		return newSyntaxError(s.starTok.line, s.starTok.col, "SELECT * is not allowed with GROUP BY or aggregates")
	}

	earlier := make(map[string]bool)
	for _, it := range s.items {
		if it.alias && (earlier[it.name] || s.where[it.name]) {
			return newSyntaxError(it.tok.line, it.tok.col, "variable ?%s is already in scope and cannot be the target of AS", it.name)
		}
		if aggregate {
			reads := it.uses
			if !it.alias {
				reads = []string{it.name}
			}
			for _, name := range reads {
				if !s.groupVars[name] && !earlier[name] {
					return newSyntaxError(it.tok.line, it.tok.col, "projection of ungrouped variable ?%s", name)
				}
			}
		}
		earlier[it.name] = true
	}
	return nil
}
