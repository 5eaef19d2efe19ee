package master

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devraj-sharma/chunkvault/internal/encryptor"
)

// persistedEntry mirrors ChunkEntry for the on-disk JSON shape.
type persistedEntry struct {
	ChunkID  int   `json:"cid"`
	Replicas []int `json:"replicas"`
}

// SaveMetadata serializes the namespace to cfg.MetadataPath via a
// write-to-temp-then-rename, so a crash mid-write never corrupts the
// previous snapshot. When cfg.MetadataKey is set, the JSON payload is sealed
// with ChaCha20-Poly1305 before the rename; readers reverse this
// transparently in LoadMetadata.
func (m *Master) SaveMetadata() error {
	m.mu.Lock()
	snapshot := make(map[string][]persistedEntry, len(m.files))
	for f, entries := range m.files {
		out := make([]persistedEntry, len(entries))
		for i, e := range entries {
			out[i] = persistedEntry{ChunkID: e.ChunkID, Replicas: e.Replicas}
		}
		snapshot[f] = out
	}
	path := m.cfg.MetadataPath
	key := m.cfg.MetadataKey
	m.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if key != "" {
		data, err = encryptor.NewEncryptor().Encrypt(data, key)
		if err != nil {
			return fmt.Errorf("seal metadata: %w", err)
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp metadata file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp metadata file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename metadata file: %w", err)
	}
	return nil
}

// LoadMetadata restores the namespace from cfg.MetadataPath, if present.
// Malformed entries (anything that doesn't decode as an int chunk id) are
// discarded rather than aborting the whole load. A missing file is not an
// error: the master simply starts with an empty namespace.
func (m *Master) LoadMetadata() error {
	path := m.cfg.MetadataPath
	key := m.cfg.MetadataKey

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read metadata file: %w", err)
	}

	if key != "" {
		data, err = encryptor.NewEncryptor().Decrypt(data, key)
		if err != nil {
			return fmt.Errorf("unseal metadata: %w", err)
		}
	}

	var snapshot map[string][]json.RawMessage
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("unmarshal metadata: %w", err)
	}

	files := make(map[string][]ChunkEntry, len(snapshot))
	for f, entries := range snapshot {
		out := make([]ChunkEntry, 0, len(entries))
		for _, rawEntry := range entries {
			var e persistedEntry
			if err := json.Unmarshal(rawEntry, &e); err != nil {
				continue
			}
			out = append(out, ChunkEntry{ChunkID: e.ChunkID, Replicas: e.Replicas})
		}
		files[f] = out
	}

	m.mu.Lock()
	m.files = files
	m.mu.Unlock()
	return nil
}
