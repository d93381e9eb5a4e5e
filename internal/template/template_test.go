package template

import (
	"testing"

	"evalgo.org/sparqlds/internal/domain"
)

func TestSubstitute(t *testing.T) {
	scope := domain.Scope{
		"lang":    {Value: []string{"en"}},
		"limit":   {Value: []string{"25"}},
		"classes": {Value: []string{"wd:Q5", "wd:Q146"}},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "dollar reference",
			text: `FILTER(lang(?label) = "$lang")`,
			want: `FILTER(lang(?label) = "en")`,
		},
		{
			name: "braced reference",
			text: "SELECT ?s WHERE { ?s ?p ?o } LIMIT ${limit}",
			want: "SELECT ?s WHERE { ?s ?p ?o } LIMIT 25",
		},
		{
			name: "bracket reference",
			text: "LIMIT [[limit]]",
			want: "LIMIT 25",
		},
		{
			name: "multi value",
			text: "VALUES ?class { $classes }",
			want: "VALUES ?class { wd:Q5 wd:Q146 }",
		},
		{
			name: "sparql dollar variable survives",
			text: "SELECT $s WHERE { $s ?p ?o } LIMIT $limit",
			want: "SELECT $s WHERE { $s ?p ?o } LIMIT 25",
		},
		{
			name: "unknown bracket reference survives",
			text: "LIMIT [[other]]",
			want: "LIMIT [[other]]",
		},
		{
			name: "braced and bare references together",
			text: "SELECT ?s WHERE { ?s ?p ?o FILTER(lang(?o) = \"${lang}\") } LIMIT $limit",
			want: "SELECT ?s WHERE { ?s ?p ?o FILTER(lang(?o) = \"en\") } LIMIT 25",
		},
		{
			name: "name prefix is not a reference",
			text: "LIMIT $limits",
			want: "LIMIT $limits",
		},
		{
			name: "no references",
			text: "SELECT ?s WHERE { ?s ?p ?o }",
			want: "SELECT ?s WHERE { ?s ?p ?o }",
		},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Substitute(tt.text, scope)
			if err != nil {
				t.Fatalf("Substitute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Substitute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubstituteKeepsOtherText(t *testing.T) {
	scope := domain.Scope{"lang": {Value: []string{"en"}}}

	tests := []struct {
		name string
		text string
	}{
		{"backslash escapes", `SELECT ?l WHERE { ?s ?p ?l FILTER regex(?l, "\\d+\\$") }`},
		{"double dollar", `SELECT ?p WHERE { ?s ?p "$$5" }`},
		{"shell case modifier", `SELECT ?s WHERE { ?s ?p "${foo^^}" }`},
		{"shell default", `SELECT ?s WHERE { ?s ?p "${foo:-bar}" }`},
		{"unclosed brace", `SELECT ?s WHERE { ?s ?p "${foo" }`},
		{"unclosed bracket", `SELECT ?s WHERE { ?s ?p "[[foo" }`},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Substitute(tt.text, scope)
			if err != nil {
				t.Fatalf("Substitute() error = %v", err)
			}
			if got != tt.text {
				t.Errorf("Substitute() = %q, want unchanged %q", got, tt.text)
			}
		})
	}
}

func TestSubstituteDoesNotExpandValues(t *testing.T) {
	scope := domain.Scope{
		"a": {Value: []string{"$b [[b]] ${b}"}},
		"b": {Value: []string{"x"}},
	}
	got, err := New().Substitute("$a ${a} [[a]]", scope)
	if err != nil {
		t.Fatalf("Substitute() error = %v", err)
	}
	want := "$b [[b]] ${b} $b [[b]] ${b} $b [[b]] ${b}"
	if got != want {
		t.Errorf("Substitute() = %q, want %q", got, want)
	}
}

func TestSubstituteEmptyScope(t *testing.T) {
	text := "SELECT $s WHERE { $s ?p ?o } LIMIT ${limit}"
	got, err := New().Substitute(text, nil)
	if err != nil {
		t.Fatalf("Substitute() error = %v", err)
	}
	if got != text {
		t.Errorf("Substitute() = %q, want unchanged", got)
	}
}

func TestSubstituterFunc(t *testing.T) {
	var s Substituter = SubstituterFunc(func(text string, scope domain.Scope) (string, error) {
		return text + "!", nil
	})
	got, _ := s.Substitute("x", nil)
	if got != "x!" {
		t.Errorf("got %q", got)
	}

	got, _ = Identity.Substitute("$a", domain.Scope{"a": {Value: []string{"b"}}})
	if got != "$a" {
		t.Errorf("Identity changed text: %q", got)
	}
}
