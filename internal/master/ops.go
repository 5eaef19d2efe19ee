package master

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/devraj-sharma/chunkvault/internal/chunk"
	"github.com/devraj-sharma/chunkvault/internal/wire"
)

// HandleRequest dispatches a parsed wire request to the matching operation
// and returns the exact text/JSON reply to write back on the connection.
// corrID is attached to the audit entry for this command, if auditing is on.
func (m *Master) HandleRequest(req wire.Request, corrID string) string {
	switch req.Cmd {
	case wire.CmdCreate:
		return m.auditWrap(req.Cmd, req.Arg1, corrID, func() string { return m.Create(req.Arg1, req.Arg2) })
	case wire.CmdWrite:
		return m.auditWrap(req.Cmd, req.Arg1, corrID, func() string { return m.Write(req.Arg1, req.Arg2) })
	case wire.CmdAppend:
		return m.auditWrap(req.Cmd, req.Arg1, corrID, func() string { return m.Append(req.Arg1, req.Arg2) })
	case wire.CmdRead:
		return m.Read(req.Arg1)
	case wire.CmdDelete:
		return m.auditWrap(req.Cmd, req.Arg1, corrID, func() string { return m.Delete(req.Arg1) })
	case wire.CmdList:
		return m.List()
	case wire.CmdMetadata:
		return m.Metadata(req.Arg1)
	case wire.CmdSystemInfo:
		return m.SystemInfo()
	case wire.CmdHeartbeat:
		return m.HandleHeartbeat(req.Arg1)
	default:
		return wire.Error(wire.ErrMalformedReq)
	}
}

// Create splits body into chunks, places each on up to RF alive nodes, and
// records the result as file's metadata. An existing entry for file is
// overwritten without purging its old replicas first — a documented leak,
// not a bug to silently fix (see design notes).
func (m *Master) Create(file, body string) string {
	chunks := chunk.Split(body)

	if len(chunks) > 0 {
		if len(m.snapshotAlive().ids) == 0 {
			return wire.Error(wire.ErrNoCapacity)
		}
	}

	entries, failed := m.placeChunks(file, chunks)
	if failed {
		return wire.Error(wire.ErrPlacementFailed)
	}

	m.mu.Lock()
	m.files[file] = entries
	m.mu.Unlock()

	if err := m.SaveMetadata(); err != nil {
		m.log.WithError(err).Error("failed to persist metadata after create")
	}
	return wire.Success(fmt.Sprintf("Created %s with %d chunks (RF=%d)", file, len(entries), m.cfg.ReplicationFactor))
}

// Write replaces file's content wholesale: old replicas are purged first,
// then the new chunk list is placed exactly as Create would.
func (m *Master) Write(file, body string) string {
	m.purgeOldReplicas(file)

	chunks := chunk.Split(body)
	if len(chunks) > 0 {
		if len(m.snapshotAlive().ids) == 0 {
			return wire.Error(wire.ErrNoCapacity)
		}
	}

	entries, failed := m.placeChunks(file, chunks)
	if failed {
		return wire.Error(wire.ErrPlacementFailed)
	}

	m.mu.Lock()
	m.files[file] = entries
	m.mu.Unlock()

	if err := m.SaveMetadata(); err != nil {
		m.log.WithError(err).Error("failed to persist metadata after write")
	}
	return wire.Success(fmt.Sprintf("Replaced file with %d bytes", len(body)))
}

// Append reads file's current content (substituting empty string for any
// chunk that can't be fetched), concatenates newBody, and rewrites the file
// exactly as Write would. A file that doesn't exist yet is created instead.
func (m *Master) Append(file, newBody string) string {
	m.mu.Lock()
	_, exists := m.files[file]
	m.mu.Unlock()

	if !exists {
		return m.Create(file, newBody)
	}

	current := m.readForAppend(file)
	combined := current + newBody

	m.purgeOldReplicas(file)
	chunks := chunk.Split(combined)
	if len(chunks) > 0 {
		if len(m.snapshotAlive().ids) == 0 {
			return wire.Error(wire.ErrNoCapacity)
		}
	}

	entries, failed := m.placeChunks(file, chunks)
	if failed {
		return wire.Error(wire.ErrPlacementFailed)
	}

	m.mu.Lock()
	m.files[file] = entries
	m.mu.Unlock()

	if err := m.SaveMetadata(); err != nil {
		m.log.WithError(err).Error("failed to persist metadata after append")
	}
	return wire.Success(fmt.Sprintf("Appended %d bytes", len(newBody)))
}

// placeChunks places every chunk of a new chunk list, aborting as soon as one
// chunk gets zero replica acks. It returns the entries placed so far and
// whether placement failed partway through.
func (m *Master) placeChunks(file string, chunks []string) ([]ChunkEntry, bool) {
	entries := make([]ChunkEntry, 0, len(chunks))
	for cid, body := range chunks {
		replicas := m.writeChunkToReplicas(file, cid, body)
		if len(replicas) == 0 {
			return entries, true
		}
		entries = append(entries, ChunkEntry{ChunkID: cid, Replicas: replicas})
	}
	return entries, false
}

// purgeOldReplicas deletes every existing chunk replica of file, ahead of a
// write/append rewrite. A no-op if file has no prior metadata.
func (m *Master) purgeOldReplicas(file string) {
	m.mu.Lock()
	entries := m.files[file]
	m.mu.Unlock()

	for _, e := range entries {
		m.deleteChunkReplicas(file, e.ChunkID, e.Replicas)
	}
}

// readForAppend reconstructs file's current body for the append path, using
// the same replica-fallback algorithm as Read but substituting empty string
// for any chunk that can't be retrieved. Each substitution is logged at Warn;
// no WARNING line reaches the client's reply.
func (m *Master) readForAppend(file string) string {
	m.mu.Lock()
	entries := m.files[file]
	m.mu.Unlock()

	parts := make([]string, len(entries))
	for i, e := range entries {
		body, ok := m.readChunk(file, e.ChunkID, e.Replicas)
		if ok {
			parts[i] = body
		} else {
			m.log.WithField("file", file).WithField("chunk_id", e.ChunkID).Warn("chunk unavailable during append; substituting empty body")
		}
	}
	return chunk.Join(parts)
}

// Read returns file's concatenated body, with a trailing WARNING line per
// chunk that couldn't be fetched from any replica.
func (m *Master) Read(file string) string {
	m.mu.Lock()
	entries, ok := m.files[file]
	m.mu.Unlock()
	if !ok {
		return wire.Error(wire.ErrNotFound)
	}
	if len(entries) == 0 {
		return ""
	}

	var parts []string
	var warnings []string
	for _, e := range entries {
		body, ok := m.readChunk(file, e.ChunkID, e.Replicas)
		if ok {
			parts = append(parts, body)
		} else {
			warnings = append(warnings, fmt.Sprintf("Chunk %d unavailable (node failure)", e.ChunkID))
		}
	}
	return wire.Body(chunk.Join(parts), warnings)
}

// Delete removes file's metadata and purges its chunks from every replica it
// was last known to hold, then purges stray chunks from every known node.
// This never fails: transport errors to data nodes are swallowed.
func (m *Master) Delete(file string) string {
	m.mu.Lock()
	entries, existed := m.files[file]
	delete(m.files, file)
	m.mu.Unlock()

	for _, e := range entries {
		m.deleteChunkReplicas(file, e.ChunkID, e.Replicas)
	}
	m.purgeFileEverywhere(file)

	if err := m.SaveMetadata(); err != nil {
		m.log.WithError(err).Error("failed to persist metadata after delete")
	}

	if existed {
		return wire.Success("Deleted")
	}
	return wire.Success("Deleted (metadata missing; purged replicas)")
}

// List returns every known filename as a JSON array.
func (m *Master) List() string {
	m.mu.Lock()
	names := make([]string, 0, len(m.files))
	for f := range m.files {
		names = append(names, f)
	}
	m.mu.Unlock()
	sort.Strings(names)

	out, err := json.Marshal(names)
	if err != nil {
		m.log.WithError(err).Error("failed to marshal file list")
		return "[]"
	}
	return string(out)
}

type replicaInfo struct {
	ChunkID      int   `json:"chunk_id"`
	ReplicaNodes []int `json:"replica_nodes"`
	ReplicaCount int   `json:"replica_count"`
}

type metadataReply struct {
	Filename string        `json:"filename"`
	Chunks   int           `json:"chunks"`
	Replicas []replicaInfo `json:"replicas"`
}

// Metadata returns file's chunk/replica layout as JSON.
func (m *Master) Metadata(file string) string {
	m.mu.Lock()
	entries, ok := m.files[file]
	m.mu.Unlock()
	if !ok {
		return wire.Error(wire.ErrNotFound)
	}

	reply := metadataReply{Filename: file, Chunks: len(entries), Replicas: make([]replicaInfo, len(entries))}
	for i, e := range entries {
		reply.Replicas[i] = replicaInfo{ChunkID: e.ChunkID, ReplicaNodes: e.Replicas, ReplicaCount: len(e.Replicas)}
	}

	out, err := json.Marshal(reply)
	if err != nil {
		m.log.WithError(err).Error("failed to marshal metadata reply")
		return wire.ErrorMsg("internal error")
	}
	return string(out)
}

type nodeStatus struct {
	Status        string  `json:"status"`
	LastHeartbeat float64 `json:"last_heartbeat"`
	Port          int     `json:"port"`
}

type systemInfoReply struct {
	DataNodes  map[string]nodeStatus `json:"data_nodes"`
	TotalFiles int                   `json:"total_files"`
	AliveNodes int                   `json:"alive_nodes"`
}

// SystemInfo reports every known node's liveness plus namespace-wide totals.
func (m *Master) SystemInfo() string {
	m.mu.Lock()
	nodes := make(map[string]nodeStatus, len(m.nodes))
	alive := 0
	for id, rec := range m.nodes {
		status := "dead"
		if rec.Alive {
			status = "alive"
			alive++
		}
		nodes[strconv.Itoa(id)] = nodeStatus{
			Status:        status,
			LastHeartbeat: float64(rec.LastHeartbeat.Unix()),
			Port:          portFromAddr(rec.Addr),
		}
	}
	totalFiles := len(m.files)
	m.mu.Unlock()

	reply := systemInfoReply{DataNodes: nodes, TotalFiles: totalFiles, AliveNodes: alive}
	out, err := json.Marshal(reply)
	if err != nil {
		m.log.WithError(err).Error("failed to marshal system_info reply")
		return wire.ErrorMsg("internal error")
	}
	return string(out)
}

// HandleHeartbeat processes a data node's heartbeat. A malformed node id is
// silently dropped, matching the wire design's error policy for heartbeats.
func (m *Master) HandleHeartbeat(arg1 string) string {
	id, err := strconv.Atoi(arg1)
	if err != nil {
		return ""
	}
	m.Heartbeat(id)
	return wire.OK
}

func portFromAddr(addr string) int {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			port, err := strconv.Atoi(addr[i+1:])
			if err != nil {
				return 0
			}
			return port
		}
	}
	return 0
}
