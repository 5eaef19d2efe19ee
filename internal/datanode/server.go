package datanode

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/devraj-sharma/chunkvault/internal/wire"
	"github.com/sirupsen/logrus"
)

// Node is one data node process: an id, a chunk store, and a listener.
type Node struct {
	ID    int
	Addr  string
	Store *Store
	log   *logrus.Logger
}

// NewNode builds a data node bound to addr, storing chunks under store.
func NewNode(id int, addr string, store *Store, log *logrus.Logger) *Node {
	return &Node{ID: id, Addr: addr, Store: store, log: log}
}

// Serve opens a listener on n.Addr and handles connections until Accept
// returns an error (including the listener being closed). One goroutine per
// accepted connection. Any accept error is logged and returned, ending the
// loop; transient accept errors are not retried.
func (n *Node) Serve() error {
	ln, err := net.Listen("tcp", n.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", n.Addr, err)
	}
	defer ln.Close()

	n.log.WithFields(logrus.Fields{"node_id": n.ID, "addr": n.Addr}).Info("data node listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			n.log.WithError(err).Warn("accept failed")
			return err
		}
		go n.handle(conn)
	}
}

func (n *Node) handle(conn net.Conn) {
	defer conn.Close()

	raw, err := io.ReadAll(conn)
	if err != nil {
		n.log.WithError(err).Debug("failed to read request")
		return
	}

	req, err := wire.Parse(string(raw))
	if err != nil {
		io.WriteString(conn, wire.Error(wire.ErrMalformedReq))
		return
	}

	reply := n.dispatch(req)
	io.WriteString(conn, reply)
}

// dispatch implements write/read/delete/delete_file exactly as specified:
// write and delete ack with OK, read returns the raw body (or empty string
// if absent), delete_file acks with OK:<count>.
func (n *Node) dispatch(req wire.Request) string {
	switch req.Cmd {
	case wire.CmdWrite:
		file, cid, ok := splitFileChunk(req.Arg1, req.Arg2)
		if !ok {
			return wire.Error(wire.ErrMalformedReq)
		}
		cidNum, body := cid, splitBody(req.Arg2)
		if err := n.Store.Write(file, cidNum, body); err != nil {
			n.log.WithError(err).Error("chunk write failed")
			return wire.ErrorMsg("write failed")
		}
		return wire.OK

	case wire.CmdRead:
		cidNum, err := strconv.Atoi(req.Arg2)
		if err != nil {
			return ""
		}
		return n.Store.Read(req.Arg1, cidNum)

	case wire.CmdDelete:
		cidNum, err := strconv.Atoi(req.Arg2)
		if err != nil {
			return wire.Error(wire.ErrMalformedReq)
		}
		n.Store.Delete(req.Arg1, cidNum)
		return wire.OK

	case wire.CmdDeleteFile:
		count := n.Store.DeleteFile(req.Arg1)
		return fmt.Sprintf("OK:%d", count)

	default:
		return wire.Error(wire.ErrMalformedReq)
	}
}

// splitFileChunk parses a write request's arg1 (file name) together with
// arg2, which is "<cid>:<body>" per the wire grammar's third field.
func splitFileChunk(file, arg2 string) (string, int, bool) {
	idx := indexColon(arg2)
	if idx < 0 {
		return "", 0, false
	}
	cid, err := strconv.Atoi(arg2[:idx])
	if err != nil {
		return "", 0, false
	}
	return file, cid, true
}

func splitBody(arg2 string) string {
	idx := indexColon(arg2)
	if idx < 0 {
		return ""
	}
	return arg2[idx+1:]
}

func indexColon(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}
