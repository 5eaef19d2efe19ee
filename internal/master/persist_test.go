package master

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newPersistTestMaster(t *testing.T, metadataKey string) (*Master, string) {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "chunkvault-persist-test", t.Name())
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)

	cfg := DefaultConfig()
	cfg.MetadataPath = filepath.Join(dir, "metadata.json")
	cfg.MetadataKey = metadataKey
	m := New(cfg, log)

	t.Cleanup(func() { os.RemoveAll(dir) })
	return m, cfg.MetadataPath
}

func TestSaveLoadMetadataRoundTrip(t *testing.T) {
	m, path := newPersistTestMaster(t, "")
	m.files["hello"] = []ChunkEntry{{ChunkID: 0, Replicas: []int{1, 2}}}

	if err := m.SaveMetadata(); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("metadata file missing: %v", err)
	}

	m2 := New(m.cfg, m.log)
	m2.cfg.MetadataPath = path
	if err := m2.LoadMetadata(); err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}
	entries, ok := m2.files["hello"]
	if !ok || len(entries) != 1 || entries[0].ChunkID != 0 {
		t.Fatalf("got %+v", m2.files)
	}
}

func TestSaveLoadMetadataEncrypted(t *testing.T) {
	m, path := newPersistTestMaster(t, "a test passphrase")
	m.files["secret"] = []ChunkEntry{{ChunkID: 0, Replicas: []int{1}}}

	if err := m.SaveMetadata(); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read metadata file: %v", err)
	}
	if strings.Contains(string(raw), "secret") {
		t.Errorf("sealed metadata file contains plaintext filename")
	}

	m2 := New(m.cfg, m.log)
	m2.cfg.MetadataPath = path
	if err := m2.LoadMetadata(); err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}
	if _, ok := m2.files["secret"]; !ok {
		t.Fatalf("got %+v", m2.files)
	}
}

func TestLoadMissingMetadataIsNotAnError(t *testing.T) {
	m, _ := newPersistTestMaster(t, "")
	m.cfg.MetadataPath = filepath.Join(os.TempDir(), "chunkvault-does-not-exist.json")
	if err := m.LoadMetadata(); err != nil {
		t.Errorf("LoadMetadata on missing file returned %v, want nil", err)
	}
}
