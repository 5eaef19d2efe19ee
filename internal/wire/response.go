package wire

import "strings"

// ErrorKind enumerates the error taxonomy the master surfaces to clients.
type ErrorKind string

const (
	ErrNotFound        ErrorKind = "not_found"
	ErrNoCapacity      ErrorKind = "no_capacity"
	ErrPlacementFailed ErrorKind = "placement_failed"
	ErrMalformedReq    ErrorKind = "malformed"
)

// errorText maps an ErrorKind to the exact text clients have always seen.
var errorText = map[ErrorKind]string{
	ErrNotFound:        "File not found",
	ErrNoCapacity:      "No alive data nodes",
	ErrPlacementFailed: "Write failed",
	ErrMalformedReq:    "Invalid request",
}

// Success formats a plain "SUCCESS: ..." reply.
func Success(msg string) string {
	return "SUCCESS: " + msg
}

// Error formats a plain "ERROR: ..." reply for a known error kind.
func Error(kind ErrorKind) string {
	return "ERROR: " + errorText[kind]
}

// ErrorMsg formats an "ERROR: ..." reply carrying a caller-supplied message,
// for the handful of error paths that don't map onto a fixed ErrorKind.
func ErrorMsg(msg string) string {
	return "ERROR: " + msg
}

// OK is the bare data-node acknowledgement.
const OK = "OK"

// Body joins a successfully read file body with any trailing
// "WARNING: ..." lines for chunks that could not be retrieved.
func Body(data string, warnings []string) string {
	if len(warnings) == 0 {
		return data
	}
	var b strings.Builder
	b.WriteString(data)
	for _, w := range warnings {
		b.WriteString("WARNING: ")
		b.WriteString(w)
		b.WriteString("\n")
	}
	return b.String()
}

// IsOK reports whether a data node's reply to a write/delete acknowledges success.
func IsOK(reply string) bool {
	return reply == OK
}
