package datanode

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devraj-sharma/chunkvault/internal/wire"
	"github.com/sirupsen/logrus"
)

func startTestNode(t *testing.T) (*Node, string) {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "chunkvault-server-test")
	os.RemoveAll(dir)
	log := logrus.New()
	log.SetOutput(os.Stderr)

	store, err := NewStore(dir, log)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	node := NewNode(1, addr, store, log)
	go node.Serve()
	time.Sleep(50 * time.Millisecond)

	t.Cleanup(func() { os.RemoveAll(dir) })
	return node, addr
}

func TestServerWriteThenRead(t *testing.T) {
	_, addr := startTestNode(t)

	reply, err := wire.Call(addr, wire.Encode(wire.CmdWrite, "hello", "0:hi"), time.Second)
	if err != nil {
		t.Fatalf("write call failed: %v", err)
	}
	if reply != wire.OK {
		t.Fatalf("write reply = %q, want OK", reply)
	}

	reply, err = wire.Call(addr, wire.Encode(wire.CmdRead, "hello", "0"), time.Second)
	if err != nil {
		t.Fatalf("read call failed: %v", err)
	}
	if reply != "hi" {
		t.Errorf("read reply = %q, want %q", reply, "hi")
	}
}

func TestServerDeleteFile(t *testing.T) {
	_, addr := startTestNode(t)

	if _, err := wire.Call(addr, wire.Encode(wire.CmdWrite, "f", "0:a"), time.Second); err != nil {
		t.Fatalf("write call failed: %v", err)
	}
	if _, err := wire.Call(addr, wire.Encode(wire.CmdWrite, "f", "1:b"), time.Second); err != nil {
		t.Fatalf("write call failed: %v", err)
	}

	reply, err := wire.Call(addr, "delete_file:f", time.Second)
	if err != nil {
		t.Fatalf("delete_file call failed: %v", err)
	}
	if reply != "OK:2" {
		t.Errorf("delete_file reply = %q, want OK:2", reply)
	}
}
