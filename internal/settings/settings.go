// Package settings holds the configuration of a SPARQL datasource.
//
// Settings is an immutable value: the With* methods return an updated copy
// and never modify the receiver. The JSON shape matches the datasource
// options a dashboard host stores (url, Repository, username) with the
// password kept apart as a secure field.
package settings

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"evalgo.org/sparqlds/internal/domain"
	"evalgo.org/sparqlds/internal/sparql"
	"evalgo.org/sparqlds/internal/validate"
)

// AuthType selects how credentials are sent to the endpoint.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthDigest AuthType = "digest"
)

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// SecurePassword is the name of the secure password field.
const SecurePassword = "password"

// Settings configures one datasource.
type Settings struct {
	URL            string            `json:"url"`
	Repository     string            `json:"Repository,omitempty"`
	Username       string            `json:"username,omitempty"`
	AuthType       AuthType          `json:"authType,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty"`
	Prefixes       map[string]string `json:"prefixes,omitempty"`
	AllowedForms   []string          `json:"allowedForms,omitempty"`

	password string
}

// Load parses the options JSON and the decrypted secure fields.
func Load(jsonData []byte, secure map[string]string) (Settings, error) {
	var s Settings
	if len(jsonData) > 0 {
		if err := json.Unmarshal(jsonData, &s); err != nil {
			return Settings{}, fmt.Errorf("failed to parse datasource settings: %w", err)
		}
	}
	s.password = secure[SecurePassword]
	return s, nil
}

// JSON returns the options JSON without secure fields.
func (s Settings) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Secure returns the secure fields that are set.
func (s Settings) Secure() map[string]string {
	secure := make(map[string]string)
	if s.password != "" {
		secure[SecurePassword] = s.password
	}
	return secure
}

// Password returns the secure password field.
func (s Settings) Password() string { return s.password }

// Masked reports which secure fields are set without revealing them.
func (s Settings) Masked() map[string]bool {
	return map[string]bool{SecurePassword: s.password != ""}
}

func (s Settings) clone() Settings {
	c := s
	if s.Prefixes != nil {
		c.Prefixes = make(map[string]string, len(s.Prefixes))
		for k, v := range s.Prefixes {
			c.Prefixes[k] = v
		}
	}
	if s.AllowedForms != nil {
		c.AllowedForms = append([]string(nil), s.AllowedForms...)
	}
	return c
}

// WithURL returns a copy with the endpoint URL set.
func (s Settings) WithURL(u string) Settings {
	c := s.clone()
	c.URL = strings.TrimSpace(u)
	return c
}

// WithRepository returns a copy with the repository set.
func (s Settings) WithRepository(repo string) Settings {
	c := s.clone()
	c.Repository = strings.TrimSpace(repo)
	return c
}

// WithCredentials returns a copy with username and password set.
func (s Settings) WithCredentials(username, password string) Settings {
	c := s.clone()
	c.Username = username
	c.password = password
	return c
}

// WithPassword returns a copy with only the password replaced. An empty
// password resets the secure field.
func (s Settings) WithPassword(password string) Settings {
	c := s.clone()
	c.password = password
	return c
}

// WithAuthType returns a copy with the auth type set.
func (s Settings) WithAuthType(t AuthType) Settings {
	c := s.clone()
	c.AuthType = t
	return c
}

// WithTimeout returns a copy with the request timeout set, rounded down to
// whole seconds.
func (s Settings) WithTimeout(d time.Duration) Settings {
	c := s.clone()
	c.TimeoutSeconds = int(d / time.Second)
	return c
}

// WithPrefixes returns a copy with the predeclared prefixes replaced.
func (s Settings) WithPrefixes(prefixes map[string]string) Settings {
	c := s.clone()
	c.Prefixes = make(map[string]string, len(prefixes))
	for k, v := range prefixes {
		c.Prefixes[k] = v
	}
	return c
}

// WithAllowedForms returns a copy accepting the given query forms.
func (s Settings) WithAllowedForms(forms ...string) Settings {
	c := s.clone()
	c.AllowedForms = append([]string(nil), forms...)
	return c
}

// Auth resolves the effective auth type: a username without an explicit
// type means basic auth.
func (s Settings) Auth() AuthType {
	if s.AuthType != "" {
		return s.AuthType
	}
	if s.Username != "" {
		return AuthBasic
	}
	return AuthNone
}

// Timeout returns the request timeout.
func (s Settings) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Configured reports whether an endpoint URL is set.
func (s Settings) Configured() bool { return s.URL != "" }

// Endpoint resolves the query URL. With a repository set it follows the
// GraphDB and RDF4J layout <url>/repositories/<repository>.
func (s Settings) Endpoint() string {
	if s.Repository == "" {
		return s.URL
	}
	return strings.TrimRight(s.URL, "/") + "/repositories/" + url.PathEscape(s.Repository)
}

// Validate checks the settings. An empty URL is allowed.
func (s Settings) Validate() error {
	if s.URL != "" && !validate.CheckEndpoint(s.URL).WellFormed {
		return domain.NewValidationError("url", fmt.Sprintf("malformed endpoint URL: %s", s.URL))
	}
	if s.TimeoutSeconds < 0 {
		return domain.NewValidationError("timeoutSeconds", "timeout must not be negative")
	}
	switch s.Auth() {
	case AuthNone, AuthBasic, AuthDigest:
	default:
		return domain.NewValidationError("authType", fmt.Sprintf("unknown auth type: %s", s.AuthType))
	}
	if s.Auth() != AuthNone && s.Username == "" {
		return domain.NewValidationError("username", "username is required for "+string(s.Auth())+" auth")
	}
	if _, err := s.forms(); err != nil {
		return domain.NewValidationError("allowedForms", err.Error())
	}
	return nil
}

func (s Settings) forms() ([]sparql.Form, error) {
	forms := make([]sparql.Form, 0, len(s.AllowedForms))
	for _, name := range s.AllowedForms {
		f, err := sparql.ParseForm(name)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, nil
}

// Checker returns the query checker for this datasource: SELECT only unless
// other forms are allowed, with the configured prefixes predeclared.
func (s Settings) Checker() *validate.Checker {
	opts := []validate.Option{validate.WithPrefixes(s.Prefixes)}
	if forms, err := s.forms(); err == nil && len(forms) > 0 {
		opts = append(opts, validate.WithForms(forms...))
	}
	return validate.NewChecker(opts...)
}
