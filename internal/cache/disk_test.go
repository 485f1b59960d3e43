package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskCache_CompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}

	// Silence compresses well
	value := make([]byte, 8192)
	if err := dc.Put("line", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if dc.Size() >= int64(len(value)) {
		t.Errorf("Expected compressed size below %d, got %d", len(value), dc.Size())
	}

	got, ok := dc.Get("line")
	if !ok || !bytes.Equal(got, value) {
		t.Fatal("Round trip failed")
	}
}

func TestDiskCache_PersistsIndex(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	if err := dc.Put("a", []byte("hello")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := dc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	got, ok := reopened.Get("a")
	if !ok || string(got) != "hello" {
		t.Errorf("Expected persisted entry, got %q %v", got, ok)
	}
	if reopened.Size() != 5 {
		t.Errorf("Expected size 5, got %d", reopened.Size())
	}
}

func TestDiskCache_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, indexFile), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("Corrupt index should not be fatal: %v", err)
	}
	if dc.Stats().ItemCount != 0 {
		t.Error("Expected an empty cache")
	}
}

func TestDiskCache_MissingFile(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	_ = dc.Put("gone", []byte("data"))
	os.Remove(filepath.Join(dir, fileName("gone")))

	if _, ok := dc.Get("gone"); ok {
		t.Error("Expected miss for a deleted file")
	}
	if dc.Contains("gone") || dc.Size() != 0 {
		t.Error("Expected the entry to be dropped from the index")
	}
}

func TestDiskCache_Eviction(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 20, 0)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	_ = dc.Put("a", make([]byte, 10))
	time.Sleep(5 * time.Millisecond)
	_ = dc.Put("b", make([]byte, 10))
	time.Sleep(5 * time.Millisecond)
	_ = dc.Put("c", make([]byte, 10))

	if dc.Contains("a") {
		t.Error("Expected oldest entry to be evicted")
	}
	if !dc.Contains("b") || !dc.Contains("c") {
		t.Error("Expected newer entries to survive")
	}
}

func TestDiskCache_RemoveOlderThan(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	_ = dc.Put("a", []byte("1"))
	_ = dc.Put("b", []byte("2"))

	if n := dc.RemoveOlderThan(time.Now().Add(time.Second)); n != 2 {
		t.Errorf("Expected 2 removed, got %d", n)
	}
	if dc.Size() != 0 {
		t.Errorf("Expected empty cache, got size %d", dc.Size())
	}
}
