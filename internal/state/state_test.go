package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// withTempState points the package at a fresh state file for one test.
func withTempState(t *testing.T) string {
	t.Helper()
	originalPath, originalCurrent := path, current
	t.Cleanup(func() {
		path, current = originalPath, originalCurrent
	})
	dir := t.TempDir()
	if err := InitWithDir(dir); err != nil {
		t.Fatalf("InitWithDir() failed: %v", err)
	}
	return filepath.Join(dir, "state.json")
}

func TestLoad_NonExistent(t *testing.T) {
	withTempState(t)
	if current == nil {
		t.Fatal("current should be initialized with defaults")
	}
	if avID, viewID := GetLastView(); avID != "" || viewID != "" {
		t.Errorf("expected no last view, got %q %q", avID, viewID)
	}
}

func TestLoad_ExistingFile(t *testing.T) {
	file := withTempState(t)
	data, _ := json.Marshal(State{LastAvID: "av1", ColumnWidths: map[string]int{"av1/c": 12}})
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if avID, _ := GetLastView(); avID != "av1" {
		t.Errorf("LastAvID = %q", avID)
	}
	if w := GetColumnWidth("av1", "c"); w != 12 {
		t.Errorf("width = %d, want 12", w)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	file := withTempState(t)
	if err := os.WriteFile(file, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Load(); err == nil {
		t.Error("Load() should fail on invalid JSON")
	}
}

func TestSave_NilCurrent(t *testing.T) {
	withTempState(t)
	current = nil
	if err := Save(); err != nil {
		t.Errorf("Save() with nil state should be a no-op, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	file := withTempState(t)

	if err := SetLastView("av1", "view1"); err != nil {
		t.Fatal(err)
	}
	if err := SetColumnWidth("av1", "name", 24); err != nil {
		t.Fatal(err)
	}
	if err := SetCursor("av1", Cursor{Row: 3, Col: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("state file not written: %v", err)
	}

	current = nil
	if err := Load(); err != nil {
		t.Fatal(err)
	}
	if avID, viewID := GetLastView(); avID != "av1" || viewID != "view1" {
		t.Errorf("last view = %q %q", avID, viewID)
	}
	if GetColumnWidth("av1", "name") != 24 {
		t.Error("column width lost")
	}
	if c := GetCursor("av1"); c != (Cursor{Row: 3, Col: 1}) {
		t.Errorf("cursor = %+v", c)
	}

	if err := SetColumnWidth("av1", "name", 0); err != nil {
		t.Fatal(err)
	}
	if GetColumnWidth("av1", "name") != 0 {
		t.Error("zero width should clear the entry")
	}
}

func TestConcurrentAccess(t *testing.T) {
	withTempState(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = SetColumnWidth("av", "c", i+1)
		}(i)
		go func() {
			defer wg.Done()
			_ = GetColumnWidth("av", "c")
		}()
	}
	wg.Wait()

	if GetColumnWidth("av", "c") == 0 {
		t.Error("expected a width after concurrent writes")
	}
}
