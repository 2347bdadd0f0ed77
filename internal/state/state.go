package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// State holds persistent user preferences.
type State struct {
	LastAvID   string `json:"lastAvId,omitempty"`
	LastViewID string `json:"lastViewId,omitempty"`

	// Column widths in cells, keyed by "<avID>/<colID>".
	ColumnWidths map[string]int `json:"columnWidths,omitempty"`

	// Cursor position per attribute view, keyed by avID.
	Cursors map[string]Cursor `json:"cursors,omitempty"`
}

// Cursor is a saved grid position.
type Cursor struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

var (
	current *State
	mu      sync.RWMutex
	path    string
)

// Init loads state from the default location.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "attrview"))
}

// InitWithDir loads state from a specified directory.
// This is primarily for testing to avoid reading real user state.
func InitWithDir(dir string) error {
	path = filepath.Join(dir, "state.json")
	return Load()
}

// Load reads state from disk.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = &State{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, current)
}

// Save writes state to disk.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// update mutates state under the write lock, then saves.
func update(fn func(s *State)) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	fn(current)
	mu.Unlock()
	return Save()
}

// GetLastView returns the attribute view and view shown last.
func GetLastView() (avID, viewID string) {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return "", ""
	}
	return current.LastAvID, current.LastViewID
}

// SetLastView records the attribute view being shown.
func SetLastView(avID, viewID string) error {
	return update(func(s *State) {
		s.LastAvID, s.LastViewID = avID, viewID
	})
}

// GetColumnWidth returns the saved width of a column, or 0.
func GetColumnWidth(avID, colID string) int {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return 0
	}
	return current.ColumnWidths[avID+"/"+colID]
}

// SetColumnWidth saves the width of a column. A width of 0 clears it.
func SetColumnWidth(avID, colID string, width int) error {
	return update(func(s *State) {
		key := avID + "/" + colID
		if width <= 0 {
			delete(s.ColumnWidths, key)
			return
		}
		if s.ColumnWidths == nil {
			s.ColumnWidths = make(map[string]int)
		}
		s.ColumnWidths[key] = width
	})
}

// GetCursor returns the saved cursor of an attribute view.
func GetCursor(avID string) Cursor {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Cursor{}
	}
	return current.Cursors[avID]
}

// SetCursor saves the cursor of an attribute view.
func SetCursor(avID string, c Cursor) error {
	return update(func(s *State) {
		if s.Cursors == nil {
			s.Cursors = make(map[string]Cursor)
		}
		s.Cursors[avID] = c
	})
}
