// Package store persists datasource definitions to the filesystem.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"evalgo.org/sparqlds/internal/domain"
	"evalgo.org/sparqlds/internal/secret"
	"evalgo.org/sparqlds/internal/settings"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	SchemaVersion = "1.0.0"
)

// Datasource is a persisted datasource. Secure fields are stored sealed.
type Datasource struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	JSONData       settings.Settings `json:"jsonData"`
	SecureJSONData map[string]string `json:"secureJsonData,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// SecureJSONFields reports which secure fields are set.
func (d Datasource) SecureJSONFields() map[string]bool {
	fields := map[string]bool{settings.SecurePassword: false}
	for k := range d.SecureJSONData {
		fields[k] = true
	}
	return fields
}

// Database is the on-disk layout.
type Database struct {
	Version     string                `json:"version"`
	Datasources map[string]Datasource `json:"datasources"` // Key: datasource ID
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Store manages datasource persistence
type Store struct {
	dataDir  string
	box      *secret.Box
	lockFile *flock.Flock
	mu       sync.Mutex
}

// NewStore creates a new datasource store under dataDir
func NewStore(dataDir string, box *secret.Box) (*Store, error) {
	dir := filepath.Join(dataDir, "datasources")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create datasources directory: %w", err)
	}

	return &Store{
		dataDir:  dataDir,
		box:      box,
		lockFile: flock.New(filepath.Join(dir, ".datasources.lock")),
	}, nil
}

func (s *Store) filePath() string {
	return filepath.Join(s.dataDir, "datasources", "datasources.json")
}

// Load loads the datasource database from disk
func (s *Store) Load() (*Database, error) {
	filePath := s.filePath()

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return &Database{
			Version:     SchemaVersion,
			Datasources: make(map[string]Datasource),
			UpdatedAt:   time.Now(),
		}, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read datasources file: %w", err)
	}

	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("failed to parse datasources file: %w", err)
	}
	if db.Datasources == nil {
		db.Datasources = make(map[string]Datasource)
	}
	return &db, nil
}

// Save writes the database to disk with file locking
func (s *Store) Save(db *Database) error {
	filePath := s.filePath()

	locked, err := s.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return errors.New("unable to acquire lock - another process is writing")
	}
	defer s.lockFile.Unlock()

	if _, err := os.Stat(filePath); err == nil {
		if data, err := os.ReadFile(filePath); err == nil {
			_ = os.WriteFile(filePath+".backup", data, 0600)
		}
	}

	db.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal database: %w", err)
	}

	// Write atomically (write to temp, then rename)
	tempFile := filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, filePath); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Create stores a new datasource. Names are unique.
func (s *Store) Create(name string, cfg settings.Settings) (*Datasource, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.Load()
	if err != nil {
		return nil, err
	}
	if _, exists := findByName(db, name); exists {
		return nil, domain.NewConflictError("datasource", name)
	}

	sealed, err := s.box.SealMap(cfg.Secure())
	if err != nil {
		return nil, fmt.Errorf("failed to seal secure fields: %w", err)
	}

	now := time.Now()
	ds := Datasource{
		ID:             uuid.New().String(),
		Name:           name,
		JSONData:       cfg.WithPassword(""),
		SecureJSONData: sealed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	db.Datasources[ds.ID] = ds

	if err := s.Save(db); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Get retrieves a datasource by ID
func (s *Store) Get(id string) (*Datasource, error) {
	db, err := s.Load()
	if err != nil {
		return nil, err
	}
	ds, exists := db.Datasources[id]
	if !exists {
		return nil, domain.NewNotFoundError("datasource", id)
	}
	return &ds, nil
}

// Settings returns the settings of a datasource with its secure fields
// opened.
func (s *Store) Settings(id string) (settings.Settings, error) {
	ds, err := s.Get(id)
	if err != nil {
		return settings.Settings{}, err
	}
	secure, err := s.box.OpenMap(ds.SecureJSONData)
	if err != nil {
		return settings.Settings{}, domain.NewOperationError("open-secure-fields", ds.Name, err)
	}
	return ds.JSONData.WithPassword(secure[settings.SecurePassword]), nil
}

// Update replaces the name and settings of a datasource. An empty password
// in cfg keeps the stored one unless resetPassword is set.
func (s *Store) Update(id, name string, cfg settings.Settings, resetPassword bool) (*Datasource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.Load()
	if err != nil {
		return nil, err
	}
	ds, exists := db.Datasources[id]
	if !exists {
		return nil, domain.NewNotFoundError("datasource", id)
	}
	if name != "" && name != ds.Name {
		if _, taken := findByName(db, name); taken {
			return nil, domain.NewConflictError("datasource", name)
		}
		ds.Name = name
	}

	sealed := ds.SecureJSONData
	switch {
	case cfg.Password() != "":
		sealed, err = s.box.SealMap(cfg.Secure())
		if err != nil {
			return nil, fmt.Errorf("failed to seal secure fields: %w", err)
		}
	case resetPassword:
		sealed = nil
	}

	ds.JSONData = cfg.WithPassword("")
	ds.SecureJSONData = sealed
	ds.UpdatedAt = time.Now()
	db.Datasources[id] = ds

	if err := s.Save(db); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Delete deletes a datasource
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.Load()
	if err != nil {
		return err
	}
	if _, exists := db.Datasources[id]; !exists {
		return domain.NewNotFoundError("datasource", id)
	}
	delete(db.Datasources, id)
	return s.Save(db)
}

// List returns all datasources ordered by name
func (s *Store) List() ([]Datasource, error) {
	db, err := s.Load()
	if err != nil {
		return nil, err
	}

	list := make([]Datasource, 0, len(db.Datasources))
	for _, ds := range db.Datasources {
		list = append(list, ds)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func findByName(db *Database, name string) (Datasource, bool) {
	for _, ds := range db.Datasources {
		if ds.Name == name {
			return ds, true
		}
	}
	return Datasource{}, false
}
