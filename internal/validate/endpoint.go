package validate

import (
	"net/url"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)^(https?|ftp)://[^\s/$.?#].[^\s]*$`)

var sparqlPathSuffixes = []string{"/sparql", "/query"}

// Problem names an endpoint diagnostic.
type Problem string

const (
	ProblemMalformed     Problem = "malformed"
	ProblemNotSparqlLike Problem = "not_sparql_like"
)

// EndpointCheck holds the flags computed for an endpoint URL.
type EndpointCheck struct {
	// Configured is false for an empty URL; callers decide whether that is
	// an error.
	Configured              bool
	WellFormed              bool
	LooksLikeSparqlEndpoint bool
}

// CheckEndpoint reports whether raw is a well-formed http(s) or ftp URL and
// whether its path ends in /sparql or /query.
func CheckEndpoint(raw string) EndpointCheck {
	if raw == "" {
		return EndpointCheck{}
	}
	check := EndpointCheck{Configured: true}
	if !urlPattern.MatchString(raw) {
		return check
	}
	check.WellFormed = true
	check.LooksLikeSparqlEndpoint = hasSparqlPath(raw)
	return check
}

func hasSparqlPath(raw string) bool {
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		path = raw[:i]
	}
	path = strings.ToLower(path)
	for _, suffix := range sparqlPathSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Problems lists the diagnostics for a configured endpoint. An unconfigured
// endpoint has none.
func (c EndpointCheck) Problems() []Problem {
	if !c.Configured {
		return nil
	}
	if !c.WellFormed {
		return []Problem{ProblemMalformed, ProblemNotSparqlLike}
	}
	if !c.LooksLikeSparqlEndpoint {
		return []Problem{ProblemNotSparqlLike}
	}
	return nil
}

// OK reports a configured, well-formed, SPARQL-looking endpoint.
func (c EndpointCheck) OK() bool {
	return c.Configured && c.WellFormed && c.LooksLikeSparqlEndpoint
}
