package master

import (
	"sort"
	"time"
)

// Heartbeat records a liveness ping from node id. A node that was previously
// unknown is created here, already alive — this is the only place a
// NodeRecord gains a LastHeartbeat, so there is exactly one liveness record
// per node, never the two-map drift the original design is prone to.
func (m *Master) Heartbeat(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.nodes[id]
	if !ok {
		rec = &NodeRecord{ID: id}
		m.nodes[id] = rec
	}
	rec.Alive = true
	rec.LastHeartbeat = time.Now()
}

// aliveNodeIDsLocked returns the ids of every node currently marked alive, in
// ascending id order. Callers must hold m.mu.
func (m *Master) aliveNodeIDsLocked() []int {
	ids := make([]int, 0, len(m.nodes))
	for id, rec := range m.nodes {
		if rec.Alive {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// nodeAddrLocked returns the dial address for a known node id. Callers must
// hold m.mu.
func (m *Master) nodeAddrLocked(id int) (string, bool) {
	rec, ok := m.nodes[id]
	if !ok {
		return "", false
	}
	return rec.Addr, true
}

// isAliveLocked reports whether node id is currently marked alive. A node
// that has never sent a heartbeat is never alive, even if it's a known,
// registered node — matching the fallback-read and placement behavior.
func (m *Master) isAliveLocked(id int) bool {
	rec, ok := m.nodes[id]
	return ok && rec.Alive
}

// checkTimeouts marks any node whose last heartbeat is older than timeout as
// dead, returning true if at least one transition happened (the signal to
// trigger a healing pass).
func (m *Master) checkTimeouts(timeout time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	changed := false
	for _, rec := range m.nodes {
		if rec.Alive && now.Sub(rec.LastHeartbeat) > timeout {
			rec.Alive = false
			changed = true
			m.log.WithField("node_id", rec.ID).Warn("data node marked dead on heartbeat timeout")
		}
	}
	return changed
}

// knownNodeIDsLocked returns every known node id, alive or not. Callers must
// hold m.mu.
func (m *Master) knownNodeIDsLocked() []int {
	ids := make([]int, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
