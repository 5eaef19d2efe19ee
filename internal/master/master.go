// Package master implements the coordinator: namespace and chunk metadata,
// data node liveness, replica placement, and background healing.
package master

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChunkEntry is one chunk's placement record within a file.
type ChunkEntry struct {
	ChunkID  int   `json:"chunk_id"`
	Replicas []int `json:"replicas"`
}

// NodeRecord is the master's view of one data node's liveness.
type NodeRecord struct {
	ID            int
	Addr          string
	Alive         bool
	LastHeartbeat time.Time
}

// Config holds every tunable named by the namespace/liveness/healing design.
type Config struct {
	ReplicationFactor int
	HeartbeatTimeout  time.Duration
	HeartbeatPoll     time.Duration
	HealerInterval    time.Duration
	DialTimeout       time.Duration
	MetadataPath      string
	MetadataKey       string // empty disables at-rest sealing
	AuditDBPath       string
	AuditEnabled      bool
}

// DefaultConfig matches the values named throughout the design.
func DefaultConfig() Config {
	return Config{
		ReplicationFactor: 2,
		HeartbeatTimeout:  15 * time.Second,
		HeartbeatPoll:     5 * time.Second,
		HealerInterval:    10 * time.Second,
		DialTimeout:       5 * time.Second,
		MetadataPath:      "./metadata.json",
		AuditDBPath:       "./master_audit_db",
		AuditEnabled:      true,
	}
}

// Master owns every piece of shared state in the coordinator: the namespace,
// node liveness, and (optionally) a command audit trail. Nothing here is a
// package-level global; every handler and background loop is a method on a
// *Master instance so tests can run several masters in one process.
type Master struct {
	cfg Config
	log *logrus.Logger

	mu    sync.Mutex
	files map[string][]ChunkEntry
	nodes map[int]*NodeRecord

	audit *AuditLog
}

// New builds a Master with empty namespace and node state. Call LoadMetadata
// to restore persisted state before serving traffic.
func New(cfg Config, log *logrus.Logger) *Master {
	return &Master{
		cfg:   cfg,
		log:   log,
		files: make(map[string][]ChunkEntry),
		nodes: make(map[int]*NodeRecord),
	}
}

// RegisterNode makes a data node known to the master (lazily created on its
// first heartbeat too; calling this ahead of time is what lets system_info
// report a configured-but-never-heard-from node as a known, dead entry).
func (m *Master) RegisterNode(id int, addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[id]; ok {
		return
	}
	m.nodes[id] = &NodeRecord{ID: id, Addr: addr}
}

func newCorrelationID() string {
	return uuid.New().String()
}

// EnableAudit opens the command audit log at cfg.AuditDBPath and attaches it
// to m. Call once during startup, before Serve.
func (m *Master) EnableAudit() error {
	al, err := OpenAuditLog(m.cfg.AuditDBPath)
	if err != nil {
		return err
	}
	m.audit = al
	return nil
}

// Close releases any resources held by m (currently just the audit log).
func (m *Master) Close() error {
	if m.audit != nil {
		return m.audit.Close()
	}
	return nil
}
