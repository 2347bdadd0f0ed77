// Package avstore persists attribute views as JSON files under the
// workspace data directory.
package avstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/marcus/attrview/internal/view"
)

// Dir returns the view directory under dataDir.
func Dir(dataDir string) string {
	return filepath.Join(dataDir, "storage", "av")
}

// Store reads and writes <dir>/<avID>.json.
type Store struct {
	dir string

	mu sync.Mutex
	// own records the last time this process wrote each view, so watchers
	// can ignore their own writes.
	own map[string]time.Time
}

// New returns a store rooted at the view directory of dataDir.
func New(dataDir string) *Store {
	return &Store{dir: Dir(dataDir), own: make(map[string]time.Time)}
}

// Path returns the file path of avID.
func (s *Store) Path(avID string) string {
	return filepath.Join(s.dir, avID+".json")
}

// Load reads the view avID. A missing file is view.ErrNotFound.
func (s *Store) Load(avID string) (*view.View, error) {
	if !validID(avID) {
		return nil, fmt.Errorf("avstore: invalid id %q", avID)
	}
	data, err := os.ReadFile(s.Path(avID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("avstore: %s: %w", avID, view.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("avstore: read %s: %w", avID, err)
	}
	var v view.View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("avstore: decode %s: %w", avID, err)
	}
	if v.AvID == "" {
		v.AvID = avID
	}
	if v.Kind == "" {
		v.Kind = view.KindTable
	}
	return &v, nil
}

// Save writes v atomically.
func (s *Store) Save(v *view.View) error {
	if !validID(v.AvID) {
		return fmt.Errorf("avstore: invalid id %q", v.AvID)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("avstore: encode %s: %w", v.AvID, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("avstore: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+v.AvID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("avstore: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("avstore: write %s: %w", v.AvID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("avstore: write %s: %w", v.AvID, err)
	}

	s.mu.Lock()
	s.own[v.AvID] = time.Now()
	s.mu.Unlock()

	if err := os.Rename(tmp.Name(), s.Path(v.AvID)); err != nil {
		return fmt.Errorf("avstore: rename %s: %w", v.AvID, err)
	}
	return nil
}

// List returns the ids of stored views, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("avstore: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if id, ok := idFromName(e.Name()); ok && !e.IsDir() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// wroteRecently reports whether this store saved avID within window.
func (s *Store) wroteRecently(avID string, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.own[avID]
	return ok && time.Since(t) < window
}

func idFromName(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	id := strings.TrimSuffix(name, ".json")
	return id, validID(id)
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
