package client

import (
	"io"
	"strings"
	"testing"
	"time"

	"evalgo.org/sparqlds/internal/settings"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestManagerCachesRepos(t *testing.T) {
	m := NewManager(testLogger())
	cfg := settings.Settings{}.WithURL("https://dbpedia.org/sparql")

	a, err := m.Repo(cfg)
	if err != nil {
		t.Fatalf("Repo() failed: %v", err)
	}
	b, err := m.Repo(cfg)
	if err != nil {
		t.Fatalf("Repo() failed: %v", err)
	}
	if a != b {
		t.Error("Repo() should return the cached repo for identical settings")
	}

	c, err := m.Repo(cfg.WithTimeout(5 * time.Second))
	if err != nil {
		t.Fatalf("Repo() failed: %v", err)
	}
	if c == a {
		t.Error("Repo() should not share repos across timeouts")
	}
	if m.Size() != 2 {
		t.Errorf("Size() = %d, want 2", m.Size())
	}

	m.ClearCache()
	if m.Size() != 0 {
		t.Errorf("Size() after ClearCache = %d", m.Size())
	}
}

func TestManagerForget(t *testing.T) {
	m := NewManager(testLogger())
	old := settings.Settings{}.WithURL("http://localhost:7200").WithRepository("demo").WithCredentials("u", "old-secret")
	current := old.WithPassword("new-secret")

	a, err := m.Repo(old)
	if err != nil {
		t.Fatalf("Repo() failed: %v", err)
	}
	if _, err := m.Repo(current); err != nil {
		t.Fatalf("Repo() failed: %v", err)
	}

	m.Forget(old)
	if m.Size() != 1 {
		t.Errorf("Size() after Forget = %d, want 1", m.Size())
	}
	b, err := m.Repo(old)
	if err != nil {
		t.Fatalf("Repo() failed: %v", err)
	}
	if a == b {
		t.Error("Repo() returned a forgotten repo")
	}

	m.Forget(settings.Settings{}.WithURL("https://unknown.example.org/sparql"))
	if m.Size() != 2 {
		t.Errorf("Size() = %d, want 2", m.Size())
	}
}

func TestCacheKeyHidesPassword(t *testing.T) {
	cfg := settings.Settings{}.WithURL("http://localhost:7200/sparql").WithCredentials("u", "hunter2")
	key := cacheKey(cfg)
	if strings.Contains(key, "hunter2") {
		t.Errorf("cache key %q contains the password", key)
	}
	if key == cacheKey(cfg.WithPassword("other")) {
		t.Error("cache key should depend on the password")
	}
}

func TestManagerAuthModes(t *testing.T) {
	m := NewManager(testLogger())

	basic := settings.Settings{}.WithURL("http://localhost:7200").WithRepository("demo").WithCredentials("u", "p")
	if _, err := m.Repo(basic); err != nil {
		t.Errorf("Repo() basic failed: %v", err)
	}

	digest := basic.WithAuthType(settings.AuthDigest)
	if _, err := m.Repo(digest); err != nil {
		t.Errorf("Repo() digest failed: %v", err)
	}

	if m.Size() != 2 {
		t.Errorf("Size() = %d, want 2", m.Size())
	}
}

func TestManagerRequiresEndpoint(t *testing.T) {
	m := NewManager(testLogger())
	if _, err := m.Repo(settings.Settings{}); err == nil {
		t.Error("Repo() without URL should fail")
	}
}
