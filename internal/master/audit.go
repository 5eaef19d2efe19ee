package master

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/devraj-sharma/chunkvault/internal/compressor"
	"github.com/devraj-sharma/chunkvault/internal/wire"
)

// AuditEntry records one processed client command. It is an operational
// trail only — never consulted to decide namespace correctness.
type AuditEntry struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	File      string `json:"file"`
	Result    string `json:"result"`
	Timestamp int64  `json:"timestamp"`
}

// AuditLog stores lz4-compressed AuditEntry records in a BadgerDB,
// independent of the master's metadata.json namespace snapshot.
type AuditLog struct {
	db *badger.DB
}

// OpenAuditLog opens (or creates) a BadgerDB at path.
func OpenAuditLog(path string) (*AuditLog, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	return &AuditLog{db: db}, nil
}

// Close closes the underlying database.
func (a *AuditLog) Close() error {
	return a.db.Close()
}

// Record appends one audit entry, keyed by its correlation ID.
func (a *AuditLog) Record(entry AuditEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	compressed, err := compressor.CompressChunk(raw)
	if err != nil {
		return fmt.Errorf("compress audit entry: %w", err)
	}
	key := []byte("audit:" + entry.ID)
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, compressed)
	})
}

// Get retrieves and decompresses one audit entry by correlation ID.
func (a *AuditLog) Get(id string) (AuditEntry, error) {
	var entry AuditEntry
	key := []byte("audit:" + id)
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw, err := compressor.DecompressData(val)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, &entry)
		})
	})
	return entry, err
}

// auditWrap runs fn, then (if auditing is enabled) records a correlated
// entry describing the command and its result, before returning fn's reply
// unchanged.
func (m *Master) auditWrap(cmd wire.Command, file, corrID string, fn func() string) string {
	result := fn()
	if m.audit != nil {
		entry := AuditEntry{ID: corrID, Command: string(cmd), File: file, Result: result, Timestamp: time.Now().Unix()}
		if err := m.audit.Record(entry); err != nil {
			m.log.WithError(err).Warn("failed to record audit entry")
		}
	}
	return result
}
