package datanode

import (
	"fmt"
	"time"

	"github.com/devraj-sharma/chunkvault/internal/wire"
)

// HeartbeatInterval is how often a data node announces itself to the master.
const HeartbeatInterval = 5 * time.Second

// SendHeartbeats loops forever, announcing n to masterAddr every interval.
// A failed announce is logged and retried on the next tick; it never aborts
// the loop, matching the data node's "heartbeat is best-effort" contract.
func (n *Node) SendHeartbeats(masterAddr string, interval time.Duration) {
	if interval <= 0 {
		interval = HeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		raw := fmt.Sprintf("heartbeat:%d", n.ID)
		reply, err := wire.Call(masterAddr, raw, wire.DefaultDialTimeout)
		if err != nil {
			n.log.WithError(err).WithField("master", masterAddr).Warn("heartbeat failed")
			continue
		}
		if reply != wire.OK {
			n.log.WithField("reply", reply).Warn("unexpected heartbeat reply")
		}
	}
}
