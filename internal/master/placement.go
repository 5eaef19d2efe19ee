package master

import (
	"fmt"

	"github.com/devraj-sharma/chunkvault/internal/wire"
)

// aliveSnapshot is a point-in-time copy of the alive node set, taken under
// m.mu and then used for a round of network calls without holding the lock.
type aliveSnapshot struct {
	ids   []int
	addrs map[int]string
}

func (m *Master) snapshotAlive() aliveSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.aliveNodeIDsLocked()
	addrs := make(map[int]string, len(ids))
	for _, id := range ids {
		addrs[id], _ = m.nodeAddrLocked(id)
	}
	return aliveSnapshot{ids: ids, addrs: addrs}
}

// markDead flips a node's liveness off after an observed transport failure.
func (m *Master) markDead(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.nodes[id]; ok {
		rec.Alive = false
	}
}

// tryWrite sends one chunk to one node, outside any lock. A non-OK reply or
// transport error both count as failure. It does not change liveness itself;
// its callers mark the node dead on either kind of failure.
func (m *Master) tryWrite(addr string, file string, cid int, body string) bool {
	if addr == "" {
		return false
	}
	raw := wire.Encode(wire.CmdWrite, file, fmt.Sprintf("%d:%s", cid, body))
	reply, err := wire.Call(addr, raw, m.cfg.DialTimeout)
	if err != nil {
		return false
	}
	return wire.IsOK(reply)
}

// tryRead fetches one chunk from one node, outside any lock. The bool return
// reports whether the call itself succeeded (a reachable node gave a reply),
// not whether that reply was non-empty: a node can legitimately not hold the
// requested chunk and still be perfectly alive. Only a genuine transport
// failure should ever flip liveness, so callers must not treat "" as failure.
func (m *Master) tryRead(addr string, file string, cid int) (string, bool) {
	if addr == "" {
		return "", false
	}
	raw := wire.Encode(wire.CmdRead, file, fmt.Sprintf("%d", cid))
	reply, err := wire.Call(addr, raw, m.cfg.DialTimeout)
	if err != nil {
		return "", false
	}
	return reply, true
}

// tryDeleteChunk removes one chunk replica, outside any lock. Errors are
// swallowed: a delete is best-effort per the transport error policy.
func (m *Master) tryDeleteChunk(addr string, file string, cid int) {
	if addr == "" {
		return
	}
	raw := wire.Encode(wire.CmdDelete, file, fmt.Sprintf("%d", cid))
	if _, err := wire.Call(addr, raw, m.cfg.DialTimeout); err != nil {
		m.markDead(nodeIDForAddr(m, addr))
	}
}

// nodeIDForAddr is a small best-effort reverse lookup used only to mark a
// node dead after a failed fire-and-forget delete call.
func nodeIDForAddr(m *Master, addr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.nodes {
		if rec.Addr == addr {
			return id
		}
	}
	return -1
}

// writeChunkToReplicas places one chunk on up to RF alive nodes. It tries the
// first RF candidates unconditionally, then tops up from the remaining alive
// pool on partial failure, returning the concatenation of whichever
// candidates acked in the order they were tried — not a re-sorted or
// deduplicated list.
func (m *Master) writeChunkToReplicas(file string, cid int, body string) []int {
	snap := m.snapshotAlive()
	rf := m.cfg.ReplicationFactor

	tried := make(map[int]bool, len(snap.ids))
	var replicas []int

	candidates := snap.ids
	if len(candidates) > rf {
		candidates = candidates[:rf]
	}
	for _, id := range candidates {
		tried[id] = true
		if m.tryWrite(snap.addrs[id], file, cid, body) {
			replicas = append(replicas, id)
		} else {
			m.markDead(id)
		}
	}

	for _, id := range snap.ids {
		if len(replicas) >= rf {
			break
		}
		if tried[id] {
			continue
		}
		tried[id] = true
		if m.tryWrite(snap.addrs[id], file, cid, body) {
			replicas = append(replicas, id)
		} else {
			m.markDead(id)
		}
	}

	return replicas
}

// readChunk returns the body of one chunk by trying its replicas in list
// order, skipping any currently-dead node, and taking the first non-empty
// body a reachable node gives back. A node that replies but simply doesn't
// hold the chunk is left alive and the next replica is tried; only a node
// whose call itself fails (connection refused, timeout, or another transport
// error) is marked dead. Any reply that does arrive is taken as a body.
func (m *Master) readChunk(file string, cid int, replicas []int) (string, bool) {
	for _, id := range replicas {
		m.mu.Lock()
		alive := m.isAliveLocked(id)
		addr, _ := m.nodeAddrLocked(id)
		m.mu.Unlock()

		if !alive {
			continue
		}
		body, reached := m.tryRead(addr, file, cid)
		if !reached {
			m.markDead(id)
			continue
		}
		if body != "" {
			return body, true
		}
	}
	return "", false
}

// deleteChunkReplicas removes one chunk from every listed replica, best
// effort.
func (m *Master) deleteChunkReplicas(file string, cid int, replicas []int) {
	for _, id := range replicas {
		m.mu.Lock()
		addr, _ := m.nodeAddrLocked(id)
		m.mu.Unlock()
		m.tryDeleteChunk(addr, file, cid)
	}
}

// purgeFileEverywhere sends delete_file to every known node, regardless of
// its liveness state, to clean up stray chunk files left behind by create's
// no-purge-on-overwrite behavior.
func (m *Master) purgeFileEverywhere(file string) {
	m.mu.Lock()
	ids := m.knownNodeIDsLocked()
	addrs := make(map[int]string, len(ids))
	for _, id := range ids {
		addrs[id], _ = m.nodeAddrLocked(id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		addr := addrs[id]
		if addr == "" {
			continue
		}
		raw := wire.Encode(wire.CmdDeleteFile, file, "")
		if _, err := wire.Call(addr, raw, m.cfg.DialTimeout); err != nil {
			m.markDead(id)
		}
	}
}
