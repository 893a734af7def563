package server

import (
	"errors"
	"net"
)

// partReason - describes why session was finished.
type partReason int

const (
	_ partReason = iota
	reasonLogout
	reasonLeft
	reasonTimeout
	reasonOverflow
	reasonShutdown
)

func (r partReason) String() string {
	switch r {
	case reasonLogout:
		return "logout"
	case reasonLeft:
		return "left"
	case reasonTimeout:
		return "timeout"
	case reasonOverflow:
		return "overflow"
	case reasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// classifyPart - maps terminal read error into part reason.
func classifyPart(err error, overflow, stopping bool) partReason {
	switch {
	case stopping:
		return reasonShutdown
	case overflow:
		return reasonOverflow
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return reasonTimeout
	}
	return reasonLeft
}
