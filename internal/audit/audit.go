// Package audit records executed queries in daily JSON files.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const dateLayout = "2006-01-02"

// Outcomes of an audited query.
const (
	OutcomeSuccess = "success"
	OutcomeBlocked = "blocked"
	OutcomeError   = "error"
)

// Entry represents a single audited query
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Datasource string    `json:"datasource"`
	RefID      string    `json:"ref_id"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Outcome    string    `json:"outcome"`
	DurationMS int64     `json:"duration_ms"`
	Rows       int       `json:"rows"`
	ErrorMsg   string    `json:"error,omitempty"`
}

// Log represents a day's worth of entries
type Log struct {
	Date    string  `json:"date"` // YYYY-MM-DD format
	Entries []Entry `json:"entries"`
}

// Logger handles audit log storage and rotation
type Logger struct {
	dir      string
	mutex    sync.RWMutex
	lockFile *flock.Flock
}

// NewLogger creates a new audit logger under dataDir/audit
func NewLogger(dataDir string) (*Logger, error) {
	dir := filepath.Join(dataDir, "audit")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	return &Logger{
		dir:      dir,
		lockFile: flock.New(filepath.Join(dir, ".audit.lock")),
	}, nil
}

func (l *Logger) fileFor(date string) string {
	return filepath.Join(l.dir, fmt.Sprintf("audit_%s.json", date))
}

// Record appends an entry to the log of its day
func (l *Logger) Record(entry Entry) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	locked, err := l.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire lock")
	}
	defer l.lockFile.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	date := entry.Timestamp.Format(dateLayout)
	logFile := l.fileFor(date)

	var log Log
	if data, err := os.ReadFile(logFile); err == nil {
		if err := json.Unmarshal(data, &log); err != nil {
			return fmt.Errorf("failed to parse existing log: %w", err)
		}
	} else {
		log = Log{Date: date, Entries: []Entry{}}
	}
	log.Entries = append(log.Entries, entry)

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	tempFile := logFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, logFile); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// EntriesForDate retrieves all entries for a date in YYYY-MM-DD format
func (l *Logger) EntriesForDate(date string) ([]Entry, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.readDate(date)
}

func (l *Logger) readDate(date string) ([]Entry, error) {
	data, err := os.ReadFile(l.fileFor(date))
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse log file: %w", err)
	}
	return log.Entries, nil
}

// Recent returns up to limit entries of the last days days, newest last
func (l *Logger) Recent(days, limit int) ([]Entry, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	end := time.Now()
	var entries []Entry
	for date := end.AddDate(0, 0, -days); !date.After(end); date = date.AddDate(0, 0, 1) {
		day, err := l.readDate(date.Format(dateLayout))
		if err != nil {
			continue
		}
		entries = append(entries, day...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:], nil
	}
	return entries, nil
}

func (l *Logger) files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(l.dir, "audit_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	return files, nil
}

// Files returns all audit log files
func (l *Logger) Files() ([]string, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.files()
}

// Rotate removes log files older than daysToKeep days
func (l *Logger) Rotate(daysToKeep int) (int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	cutoff := time.Now().AddDate(0, 0, -daysToKeep)

	files, err := l.files()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, file := range files {
		base := filepath.Base(file)
		if len(base) < 17 { // "audit_YYYY-MM-DD.json"
			continue
		}
		fileDate, err := time.Parse(dateLayout, base[6:16])
		if err != nil {
			continue
		}
		if fileDate.Before(cutoff) {
			if err := os.Remove(file); err != nil {
				return removed, fmt.Errorf("failed to remove old log file: %w", err)
			}
			removed++
		}
	}
	return removed, nil
}
