// Package wire implements the colon-delimited request/response grammar shared
// by client-to-master and master-to-datanode traffic: one command per TCP
// connection, no length framing.
package wire

import (
	"errors"
	"strings"
)

// Command identifies the operation requested on a connection.
type Command string

const (
	CmdCreate     Command = "create"
	CmdWrite      Command = "write"
	CmdAppend     Command = "append"
	CmdRead       Command = "read"
	CmdDelete     Command = "delete"
	CmdDeleteFile Command = "delete_file"
	CmdList       Command = "list"
	CmdMetadata   Command = "metadata"
	CmdSystemInfo Command = "system_info"
	CmdHeartbeat  Command = "heartbeat"
)

// ErrMalformed is returned when a raw request has fewer than two
// colon-delimited parts.
var ErrMalformed = errors.New("invalid request")

// Request is a parsed wire command. Arg2 holds everything after the second
// colon verbatim, including any embedded colons (file/chunk bodies).
type Request struct {
	Cmd  Command
	Arg1 string
	Arg2 string
}

// Parse splits a raw request on the first two colons only, matching
// data.split(':', 2) semantics: cmd:arg1:arg2_and_rest.
func Parse(raw string) (Request, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return Request{}, ErrMalformed
	}
	req := Request{Cmd: Command(parts[0]), Arg1: parts[1]}
	if len(parts) == 3 {
		req.Arg2 = parts[2]
	}
	return req, nil
}

// Encode renders a request back onto the wire, for the Master's outbound
// calls to data nodes.
func Encode(cmd Command, arg1, arg2 string) string {
	return string(cmd) + ":" + arg1 + ":" + arg2
}
