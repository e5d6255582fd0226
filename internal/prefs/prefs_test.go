package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("TUTORVIEW_CONFIG_DIR", t.TempDir())
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved := Prefs{Theme: ThemeDark, LastPage: 42}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := store.Load(); got != saved {
		t.Fatalf("Load = %#v, want %#v", got, saved)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	store := newTestStore(t)

	if got := store.Load(); got != Default() {
		t.Fatalf("Load = %#v, want defaults", got)
	}
}

func TestLoadCorruptFileYieldsDefaults(t *testing.T) {
	store := newTestStore(t)

	if err := os.WriteFile(store.path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := store.Load(); got != Default() {
		t.Fatalf("Load = %#v, want defaults", got)
	}
}

func TestLoadSanitizesInvalidValues(t *testing.T) {
	store := newTestStore(t)

	if err := os.WriteFile(store.path, []byte(`{"theme": "sepia", "lastPage": -3}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := store.Load()
	if got.Theme != ThemeLight {
		t.Fatalf("theme = %q, want light fallback", got.Theme)
	}
	if got.LastPage != 1 {
		t.Fatalf("lastPage = %d, want 1", got.LastPage)
	}
}

func TestThemeToggle(t *testing.T) {
	t.Parallel()

	if ThemeLight.Toggle() != ThemeDark || ThemeDark.Toggle() != ThemeLight {
		t.Fatal("toggle should flip between the two themes")
	}
	if Theme("sepia").Toggle() != ThemeDark {
		t.Fatal("unknown theme should toggle to dark like light does")
	}
}

func TestStoreUsesEnvDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TUTORVIEW_CONFIG_DIR", dir)
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if filepath.Dir(store.path) != dir {
		t.Fatalf("path = %q, want inside %q", store.path, dir)
	}
}
