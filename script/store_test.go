package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "scripts"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return st
}

func TestStoreSaveLoad(t *testing.T) {
	st := newTestStore(t)

	s, err := Parse("Kitchen", "INT. KITCHEN\nALEX (angry): Out.\nSAM: No.")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	created := s.CreatedAt

	if err := st.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if s.UpdatedAt.Before(created) {
		t.Error("Save should bump UpdatedAt")
	}

	loaded, err := st.Load(s.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.ID != s.ID || loaded.Title != "Kitchen" {
		t.Errorf("Identity mismatch: %s %q", loaded.ID, loaded.Title)
	}
	if loaded.LineCount() != s.LineCount() {
		t.Fatalf("Expected %d lines, got %d", s.LineCount(), loaded.LineCount())
	}
	if loaded.Lines[1].Speaker != "ALEX" || loaded.Lines[1].Tones[0] != "angry" {
		t.Errorf("Derived fields not rebuilt: %+v", loaded.Lines[1])
	}
	if !loaded.CreatedAt.Equal(s.CreatedAt) {
		t.Errorf("CreatedAt changed: %v vs %v", loaded.CreatedAt, s.CreatedAt)
	}
}

func TestStoreList(t *testing.T) {
	st := newTestStore(t)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st.parser.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var ids []string
	for _, raw := range []string{"A: one", "B: two", "C: three"} {
		s, err := st.parser.Parse("", raw)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if err := st.Save(s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		ids = append(ids, s.ID)
	}

	// A stray file is ignored.
	if err := os.WriteFile(filepath.Join(st.Dir(), "broken.yaml"), []byte("::: not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	scripts, err := st.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(scripts) != 3 {
		t.Fatalf("Expected 3 scripts, got %d", len(scripts))
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if scripts[i].ID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, scripts[i].ID)
		}
	}
}

func TestStoreErrors(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := st.Load("../etc/passwd"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
	if err := st.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := st.Save(&Script{ID: "a/b"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	st := newTestStore(t)

	s, _ := Parse("", "A: hi")
	if err := st.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := st.Delete(s.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := st.Load(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "play.txt")
	if err := os.WriteFile(path, []byte("A: one"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Keep writing until the watcher is up and reports the change.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(400 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-changed:
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch returned error: %v", err)
			}
			return
		case <-tick.C:
			_ = os.WriteFile(path, []byte("A: one\nB: two"), 0o644)
		case <-deadline:
			t.Fatal("Timed out waiting for change notification")
		}
	}
}
