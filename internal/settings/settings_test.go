package settings

import (
	"errors"
	"strings"
	"testing"
	"time"

	"evalgo.org/sparqlds/internal/domain"
	"evalgo.org/sparqlds/internal/validate"
)

func TestLoad(t *testing.T) {
	jsonData := []byte(`{"url":"http://localhost:7200","Repository":"demo","username":"admin","timeoutSeconds":5}`)
	s, err := Load(jsonData, map[string]string{"password": "secret"})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if s.URL != "http://localhost:7200" {
		t.Errorf("URL = %q", s.URL)
	}
	if s.Repository != "demo" {
		t.Errorf("Repository = %q", s.Repository)
	}
	if s.Password() != "secret" {
		t.Errorf("Password() = %q", s.Password())
	}
	if s.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v", s.Timeout())
	}
	if s.Auth() != AuthBasic {
		t.Errorf("Auth() = %v, want basic", s.Auth())
	}
	if got := s.Endpoint(); got != "http://localhost:7200/repositories/demo" {
		t.Errorf("Endpoint() = %q", got)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	if _, err := Load([]byte(`{"url":`), nil); err == nil {
		t.Error("Load() should fail on truncated JSON")
	}
}

func TestJSONOmitsSecureFields(t *testing.T) {
	s := Settings{}.WithURL("https://dbpedia.org/sparql").WithCredentials("bob", "hunter2")
	data, err := s.JSON()
	if err != nil {
		t.Fatalf("JSON() failed: %v", err)
	}
	if strings.Contains(string(data), "hunter2") {
		t.Errorf("JSON() leaked the password: %s", data)
	}
	if !s.Masked()[SecurePassword] {
		t.Error("Masked() should flag the password as set")
	}
	if s.Secure()[SecurePassword] != "hunter2" {
		t.Error("Secure() should return the password")
	}
}

func TestWithDoesNotModifyReceiver(t *testing.T) {
	base := Settings{}.WithURL("https://example.org/sparql").WithPrefixes(map[string]string{"ex": "http://example.org/"})

	updated := base.WithURL("https://other.org/sparql").
		WithRepository("repo").
		WithPrefixes(map[string]string{"wd": "http://www.wikidata.org/entity/"}).
		WithAllowedForms("select", "ask").
		WithTimeout(10 * time.Second).
		WithPassword("x")

	if base.URL != "https://example.org/sparql" {
		t.Errorf("base URL changed to %q", base.URL)
	}
	if _, ok := base.Prefixes["wd"]; ok {
		t.Error("base prefixes changed")
	}
	if base.Password() != "" || base.AllowedForms != nil || base.Repository != "" {
		t.Error("base settings changed")
	}
	if updated.TimeoutSeconds != 10 || updated.Password() != "x" {
		t.Errorf("updated = %+v", updated)
	}

	// mutating the argument map must not leak into the settings
	prefixes := map[string]string{"a": "http://a/"}
	s := base.WithPrefixes(prefixes)
	prefixes["b"] = "http://b/"
	if _, ok := s.Prefixes["b"]; ok {
		t.Error("WithPrefixes kept a reference to the argument")
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		url, repo, want string
	}{
		{"https://dbpedia.org/sparql", "", "https://dbpedia.org/sparql"},
		{"http://localhost:7200/", "demo", "http://localhost:7200/repositories/demo"},
		{"http://localhost:7200", "my repo", "http://localhost:7200/repositories/my%20repo"},
	}
	for _, tt := range tests {
		s := Settings{}.WithURL(tt.url).WithRepository(tt.repo)
		if got := s.Endpoint(); got != tt.want {
			t.Errorf("Endpoint(%q, %q) = %q, want %q", tt.url, tt.repo, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		field   string
		wantErr bool
	}{
		{"empty is allowed", Settings{}, "", false},
		{"valid", Settings{}.WithURL("https://dbpedia.org/sparql"), "", false},
		{"malformed url", Settings{}.WithURL("not a url"), "url", true},
		{"negative timeout", Settings{URL: "https://dbpedia.org/sparql", TimeoutSeconds: -1}, "timeoutSeconds", true},
		{"unknown auth", Settings{}.WithAuthType("kerberos").WithCredentials("u", "p"), "authType", true},
		{"digest without username", Settings{}.WithAuthType(AuthDigest), "username", true},
		{"unknown form", Settings{}.WithAllowedForms("select", "explain"), "allowedForms", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() error type = %T, want *domain.ValidationError", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.field)
			}
		})
	}
}

func TestChecker(t *testing.T) {
	s := Settings{}.
		WithAllowedForms("SELECT", "ASK").
		WithPrefixes(map[string]string{"wdt": "http://www.wikidata.org/prop/direct/"})

	c := s.Checker()
	if got := c.Check("ASK { ?x wdt:P31 ?y }"); got.Kind != validate.KindValid {
		t.Errorf("ASK result = %v: %s", got.Kind, got.Message)
	}
	if got := c.Check("CONSTRUCT WHERE { ?x wdt:P31 ?y }"); got.Kind != validate.KindStructureError {
		t.Errorf("CONSTRUCT result = %v", got.Kind)
	}

	if got := (Settings{}).Checker().Check("ASK { ?x ?y ?z }"); got.Kind != validate.KindStructureError {
		t.Errorf("default checker accepted ASK: %v", got.Kind)
	}
}
