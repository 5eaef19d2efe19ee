package master

import "time"

// ensureReplicationForFile restores file's chunks to RF replicas where
// possible. Chunks that can't be restored (no alive replica holds the body)
// keep whatever alive replicas survive rather than losing the claim.
func (m *Master) ensureReplicationForFile(file string) {
	m.mu.Lock()
	entries := append([]ChunkEntry(nil), m.files[file]...)
	m.mu.Unlock()
	if entries == nil {
		return
	}

	rf := m.cfg.ReplicationFactor
	updated := make([]ChunkEntry, len(entries))

	for i, entry := range entries {
		var aliveReplicas []int
		for _, id := range entry.Replicas {
			m.mu.Lock()
			alive := m.isAliveLocked(id)
			m.mu.Unlock()
			if alive {
				aliveReplicas = append(aliveReplicas, id)
			}
		}

		if len(aliveReplicas) >= rf {
			updated[i] = ChunkEntry{ChunkID: entry.ChunkID, Replicas: aliveReplicas[:rf]}
			continue
		}

		body, ok := m.readChunk(file, entry.ChunkID, aliveReplicas)
		if !ok {
			updated[i] = ChunkEntry{ChunkID: entry.ChunkID, Replicas: aliveReplicas}
			continue
		}

		need := rf - len(aliveReplicas)
		snap := m.snapshotAlive()
		have := make(map[int]bool, len(aliveReplicas))
		for _, id := range aliveReplicas {
			have[id] = true
		}

		added := make([]int, 0, need)
		for _, id := range snap.ids {
			if len(added) >= need {
				break
			}
			if have[id] {
				continue
			}
			if m.tryWrite(snap.addrs[id], file, entry.ChunkID, body) {
				added = append(added, id)
			} else {
				m.markDead(id)
			}
		}

		updated[i] = ChunkEntry{ChunkID: entry.ChunkID, Replicas: append(aliveReplicas, added...)}
	}

	m.mu.Lock()
	if _, ok := m.files[file]; ok {
		m.files[file] = updated
	}
	m.mu.Unlock()
}

// EnsureReplicationAll runs a full healing pass over every file, then
// persists the result. Persisting here (the original design only persists
// after client-facing mutations) closes the gap where a healer's repair work
// would otherwise be lost across a restart.
func (m *Master) EnsureReplicationAll() {
	m.mu.Lock()
	names := make([]string, 0, len(m.files))
	for f := range m.files {
		names = append(names, f)
	}
	m.mu.Unlock()

	for _, f := range names {
		m.ensureReplicationForFile(f)
	}

	if err := m.SaveMetadata(); err != nil {
		m.log.WithError(err).Error("failed to persist metadata after healing pass")
	}
}

// RunHeartbeatMonitor wakes every cfg.HeartbeatPoll and marks any node whose
// heartbeat has gone stale as dead, triggering one healing pass per
// transition batch. Returns when stop is closed.
func (m *Master) RunHeartbeatMonitor(stop <-chan struct{}) {
	ticker := time.NewTicker(m.cfg.HeartbeatPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.checkTimeouts(m.cfg.HeartbeatTimeout) {
				m.log.Info("running healing pass after liveness change")
				m.EnsureReplicationAll()
			}
		case <-stop:
			return
		}
	}
}

// RunPeriodicHealer wakes every cfg.HealerInterval and unconditionally runs a
// healing pass. Returns when stop is closed.
func (m *Master) RunPeriodicHealer(stop <-chan struct{}) {
	ticker := time.NewTicker(m.cfg.HealerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.EnsureReplicationAll()
		case <-stop:
			return
		}
	}
}
