// Package datanode implements the chunk-serving agent: a warm in-memory
// cache backed by one file per chunk on local disk.
package datanode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// key identifies a chunk body within a node's store.
type key struct {
	file string
	cid  int
}

func (k key) fileName() string {
	return fmt.Sprintf("%s:%d.chunk", k.file, k.cid)
}

// Store holds chunk bodies for one data node: a warm map mirrored onto
// per-chunk files under dir. There is no checksum, fsync, or atomic rename on
// the write path — a crash mid-write can lose or truncate the most recent
// chunk, an accepted limitation of this storage layer.
type Store struct {
	dir string
	log *logrus.Logger

	mu   sync.Mutex
	warm map[key]string
}

// NewStore creates (if needed) dir and returns a Store rooted there.
func NewStore(dir string, log *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data node directory %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log, warm: make(map[key]string)}, nil
}

// Write stores body as file's chunk cid, truncating any prior content.
func (s *Store) Write(file string, cid int, body string) error {
	k := key{file, cid}
	path := filepath.Join(s.dir, k.fileName())
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for chunk %s:%d: %w", file, cid, err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("write chunk %s:%d: %w", file, cid, err)
	}
	s.mu.Lock()
	s.warm[k] = body
	s.mu.Unlock()
	return nil
}

// Read returns the chunk body, or "" if it isn't present. It checks the warm
// map first, then falls back to disk and populates the cache.
func (s *Store) Read(file string, cid int) string {
	k := key{file, cid}

	s.mu.Lock()
	if body, ok := s.warm[k]; ok {
		s.mu.Unlock()
		return body
	}
	s.mu.Unlock()

	path := filepath.Join(s.dir, k.fileName())
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	body := string(data)

	s.mu.Lock()
	s.warm[k] = body
	s.mu.Unlock()
	return body
}

// Delete removes one chunk, from both the warm map and disk.
func (s *Store) Delete(file string, cid int) {
	k := key{file, cid}
	s.mu.Lock()
	delete(s.warm, k)
	s.mu.Unlock()

	path := filepath.Join(s.dir, k.fileName())
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.WithError(err).WithField("chunk", path).Warn("failed to remove chunk file")
	}
}

// DeleteFile purges every chunk belonging to file, returning the number of
// on-disk files actually removed.
func (s *Store) DeleteFile(file string) int {
	// A file name containing '/' keeps its chunks in a subdirectory, so list
	// the directory that actually holds them and match on the last element.
	dir := filepath.Dir(filepath.Join(s.dir, file))
	prefix := filepath.Base(file) + ":"

	s.mu.Lock()
	for k := range s.warm {
		if k.file == file {
			delete(s.warm, k)
		}
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.WithError(err).Warn("failed to list data node directory")
		return 0
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".chunk") {
			if err := os.Remove(filepath.Join(dir, name)); err == nil {
				count++
			}
		}
	}
	return count
}
