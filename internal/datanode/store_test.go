package datanode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "chunkvault-store-test")
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("failed to clean test dir: %v", err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	s, err := NewStore(dir, log)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return s
}

func TestStoreWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write("hello", 0, "hi"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := s.Read("hello", 0); got != "hi" {
		t.Errorf("got %q, want %q", got, "hi")
	}
}

func TestStoreReadMissingReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	if got := s.Read("nope", 0); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestStoreReadFallsBackToDisk(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write("hello", 0, "hi"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	// Simulate a restart: drop the warm cache, keep the on-disk file.
	s.mu.Lock()
	s.warm = make(map[key]string)
	s.mu.Unlock()

	if got := s.Read("hello", 0); got != "hi" {
		t.Errorf("got %q, want %q after cold read", got, "hi")
	}
}

func TestStoreDeleteRemovesChunk(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write("f", 0, "body"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	s.Delete("f", 0)
	if got := s.Read("f", 0); got != "" {
		t.Errorf("got %q after delete, want empty", got)
	}
}

func TestStoreDeleteFilePurgesAllChunks(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write("f", 0, "a"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write("f", 1, "b"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write("g", 0, "c"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	count := s.DeleteFile("f")
	if count != 2 {
		t.Errorf("DeleteFile count = %d, want 2", count)
	}
	if got := s.Read("f", 0); got != "" {
		t.Errorf("chunk f:0 still readable after DeleteFile")
	}
	if got := s.Read("g", 0); got != "c" {
		t.Errorf("unrelated file g:0 corrupted: got %q, want %q", got, "c")
	}
}
