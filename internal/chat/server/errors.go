package server

import "errors"

var (
	// ErrUnderStopCondition - returns in case if Server is under stop condition
	// and will not serve any new listener.
	ErrUnderStopCondition = errors.New("server.Server: under stop condition")

	// errBacklog - session outbound queue is full, the session is dropped.
	errBacklog = errors.New("server: outbound queue overflow")

	// errOutboxClosed - session is finishing.
	errOutboxClosed = errors.New("server: outbound queue closed")

	// errAlreadyLoggedIn - login within authenticated session.
	errAlreadyLoggedIn = errors.New("Already logged in.")
)
