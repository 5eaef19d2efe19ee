package master

import (
	"io"
	"net"

	"github.com/devraj-sharma/chunkvault/internal/wire"
	"github.com/sirupsen/logrus"
)

// Serve opens a listener on addr and handles connections until the listener
// is closed or accept fails unrecoverably. One goroutine per accepted
// connection, matching the data node's accept loop.
func (m *Master) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	m.log.WithField("addr", addr).Info("master listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			m.log.WithError(err).Warn("accept failed")
			return err
		}
		go m.handleConn(conn)
	}
}

func (m *Master) handleConn(conn net.Conn) {
	defer conn.Close()

	corrID := newCorrelationID()
	raw, err := io.ReadAll(conn)
	if err != nil {
		m.log.WithError(err).WithField("corr_id", corrID).Debug("failed to read request")
		return
	}

	req, err := wire.Parse(string(raw))
	if err != nil {
		io.WriteString(conn, wire.Error(wire.ErrMalformedReq))
		return
	}

	m.log.WithFields(logrus.Fields{"corr_id": corrID, "cmd": req.Cmd}).Debug("handling request")
	reply := m.HandleRequest(req, corrID)
	io.WriteString(conn, reply)
}
