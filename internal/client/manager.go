// Package client manages SPARQL endpoint clients.
package client

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sync"
	"time"

	"evalgo.org/sparqlds/internal/settings"
	"github.com/knakk/sparql"
	"github.com/sirupsen/logrus"
)

// Manager handles SPARQL repo creation and caching
type Manager struct {
	log   *logrus.Entry
	cache map[string]*sparql.Repo
	mu    sync.RWMutex
}

// NewManager creates a new client manager
func NewManager(log *logrus.Entry) *Manager {
	return &Manager{
		log:   log,
		cache: make(map[string]*sparql.Repo),
	}
}

// Repo returns the SPARQL repo for the endpoint, credentials and timeout of
// cfg. Repos are cached to avoid recreating them.
func (m *Manager) Repo(cfg settings.Settings) (*sparql.Repo, error) {
	key := cacheKey(cfg)

	m.mu.RLock()
	if repo, exists := m.cache[key]; exists {
		m.mu.RUnlock()
		return repo, nil
	}
	m.mu.RUnlock()

	repo, err := newRepo(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[key] = repo
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint(),
		"auth":     cfg.Auth(),
		"timeout":  cfg.Timeout().String(),
	}).Debug("Created SPARQL repo")

	return repo, nil
}

// ClearCache clears the cached repos
func (m *Manager) ClearCache() {
	m.mu.Lock()
	m.cache = make(map[string]*sparql.Repo)
	m.mu.Unlock()
}

// Forget drops the cached repo for cfg, if any. Callers use it when a
// datasource changes or is removed.
func (m *Manager) Forget(cfg settings.Settings) {
	m.mu.Lock()
	delete(m.cache, cacheKey(cfg))
	m.mu.Unlock()
}

// Size returns the number of cached repos.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

// cacheKey hashes the repo settings so that passwords are not kept as map keys.
func cacheKey(cfg settings.Settings) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%d",
		cfg.Endpoint(), cfg.Auth(), cfg.Username, cfg.Password(), cfg.Timeout()/time.Millisecond)))
	return hex.EncodeToString(sum[:])
}

// newRepo builds a repo for cfg. Basic credentials travel as URL user info,
// which net/http turns into an Authorization header.
func newRepo(cfg settings.Settings) (*sparql.Repo, error) {
	endpoint := cfg.Endpoint()
	if endpoint == "" {
		return nil, fmt.Errorf("no endpoint configured")
	}

	opts := []func(*sparql.Repo) error{sparql.Timeout(cfg.Timeout())}
	switch cfg.Auth() {
	case settings.AuthBasic:
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %s: %w", endpoint, err)
		}
		u.User = url.UserPassword(cfg.Username, cfg.Password())
		endpoint = u.String()
	case settings.AuthDigest:
		opts = append(opts, sparql.DigestAuth(cfg.Username, cfg.Password()))
	}

	repo, err := sparql.NewRepo(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SPARQL repo: %w", err)
	}
	return repo, nil
}
