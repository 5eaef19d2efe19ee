package master

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devraj-sharma/chunkvault/internal/datanode"
	"github.com/sirupsen/logrus"
)

type testCluster struct {
	m     *Master
	nodes []*datanode.Node
	dir   string
}

func newTestCluster(t *testing.T, numNodes int) *testCluster {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "chunkvault-master-test", t.Name())
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)

	cfg := DefaultConfig()
	cfg.MetadataPath = filepath.Join(dir, "metadata.json")
	cfg.AuditEnabled = false
	m := New(cfg, log)

	nodes := make([]*datanode.Node, 0, numNodes)
	for i := 1; i <= numNodes; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve port: %v", err)
		}
		addr := ln.Addr().String()
		ln.Close()

		store, err := datanode.NewStore(filepath.Join(dir, addr[strings.LastIndex(addr, ":")+1:]), log)
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		node := datanode.NewNode(i, addr, store, log)
		go node.Serve()
		nodes = append(nodes, node)

		m.RegisterNode(i, addr)
		m.Heartbeat(i)
	}

	time.Sleep(50 * time.Millisecond)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return &testCluster{m: m, nodes: nodes, dir: dir}
}

func TestCreateAndReadRoundTrip(t *testing.T) {
	c := newTestCluster(t, 2)

	reply := c.m.Create("hello", "hi")
	want := "SUCCESS: Created hello with 1 chunks (RF=2)"
	if reply != want {
		t.Fatalf("Create reply = %q, want %q", reply, want)
	}

	if got := c.m.Read("hello"); got != "hi" {
		t.Errorf("Read = %q, want %q", got, "hi")
	}
}

func TestCreateZeroAliveNodes(t *testing.T) {
	c := newTestCluster(t, 0)
	reply := c.m.Create("y", "z")
	if reply != "ERROR: No alive data nodes" {
		t.Errorf("Create reply = %q, want no-capacity error", reply)
	}
}

func TestAppendExtendsContent(t *testing.T) {
	c := newTestCluster(t, 2)
	c.m.Create("x", "abc")

	reply := c.m.Append("x", "def")
	if reply != "SUCCESS: Appended 3 bytes" {
		t.Fatalf("Append reply = %q", reply)
	}
	if got := c.m.Read("x"); got != "abcdef" {
		t.Errorf("Read after append = %q, want %q", got, "abcdef")
	}
}

func TestWriteReplacesContent(t *testing.T) {
	c := newTestCluster(t, 2)
	c.m.Create("x", "abc")

	reply := c.m.Write("x", "hello world")
	if reply != "SUCCESS: Replaced file with 11 bytes" {
		t.Fatalf("Write reply = %q", reply)
	}
	if got := c.m.Read("x"); got != "hello world" {
		t.Errorf("Read after write = %q, want %q", got, "hello world")
	}
}

func TestDeleteThenReadNotFound(t *testing.T) {
	c := newTestCluster(t, 2)
	c.m.Create("z", "hello")

	if reply := c.m.Delete("z"); reply != "SUCCESS: Deleted" {
		t.Fatalf("Delete reply = %q", reply)
	}
	if reply := c.m.Read("z"); reply != "ERROR: File not found" {
		t.Errorf("Read after delete = %q, want not-found error", reply)
	}
}

func TestDeleteMissingFilePurgesReplicas(t *testing.T) {
	c := newTestCluster(t, 1)
	reply := c.m.Delete("never-existed")
	if reply != "SUCCESS: Deleted (metadata missing; purged replicas)" {
		t.Errorf("Delete reply = %q", reply)
	}
}

func TestMultiChunkCreateAndRead(t *testing.T) {
	c := newTestCluster(t, 2)
	body := strings.Repeat("a", 1024*2+2)

	reply := c.m.Create("big", body)
	if reply != "SUCCESS: Created big with 3 chunks (RF=2)" {
		t.Fatalf("Create reply = %q", reply)
	}
	if got := c.m.Read("big"); got != body {
		t.Errorf("Read mismatch: got len %d, want len %d", len(got), len(body))
	}
}

func TestMetadataReportsReplicas(t *testing.T) {
	c := newTestCluster(t, 2)
	c.m.Create("hello", "hi")

	raw := c.m.Metadata("hello")
	var reply metadataReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		t.Fatalf("failed to unmarshal metadata reply: %v (raw=%s)", err, raw)
	}
	if reply.Filename != "hello" || reply.Chunks != 1 {
		t.Fatalf("got %+v", reply)
	}
	if reply.Replicas[0].ReplicaCount != 2 {
		t.Errorf("replica count = %d, want 2", reply.Replicas[0].ReplicaCount)
	}
}

func TestListReflectsNamespace(t *testing.T) {
	c := newTestCluster(t, 1)
	c.m.Create("a", "1")
	c.m.Create("b", "2")

	var names []string
	if err := json.Unmarshal([]byte(c.m.List()), &names); err != nil {
		t.Fatalf("failed to unmarshal list reply: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %v, want 2 files", names)
	}
}

func TestSystemInfoReportsAliveCount(t *testing.T) {
	c := newTestCluster(t, 2)
	var info systemInfoReply
	if err := json.Unmarshal([]byte(c.m.SystemInfo()), &info); err != nil {
		t.Fatalf("failed to unmarshal system_info reply: %v", err)
	}
	if info.AliveNodes != 2 {
		t.Errorf("alive_nodes = %d, want 2", info.AliveNodes)
	}
}

func TestHealingRestoresReplicationAfterNodeDeath(t *testing.T) {
	c := newTestCluster(t, 3)
	c.m.Create("x", "abc")

	// Node 2 dies: mark it dead directly (as the timeout monitor would).
	c.m.markDead(2)
	c.m.EnsureReplicationAll()

	raw := c.m.Metadata("x")
	var reply metadataReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		t.Fatalf("failed to unmarshal metadata reply: %v", err)
	}
	if reply.Replicas[0].ReplicaCount != 2 {
		t.Fatalf("replica count after healing = %d, want 2: %+v", reply.Replicas[0].ReplicaCount, reply)
	}
	for _, id := range reply.Replicas[0].ReplicaNodes {
		if id == 2 {
			t.Errorf("dead node 2 still listed as a replica: %+v", reply)
		}
	}

	if got := c.m.Read("x"); got != "abc" {
		t.Errorf("Read after healing = %q, want %q", got, "abc")
	}
}
