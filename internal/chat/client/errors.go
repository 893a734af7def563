package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoggedIn - operation requires active session.
	ErrNotLoggedIn = errors.New("Not logged in.")

	// ErrAlreadyLoggedIn - login while other session is active or being established.
	ErrAlreadyLoggedIn = errors.New("Already logged in. Please log out before logging in again.")

	// ErrBadAddress - address of !register is not in host:port form.
	ErrBadAddress = errors.New("Illegal format for command !register. Please use <IP:Port>.")

	// ErrEmptyMessage - nothing to send.
	ErrEmptyMessage = errors.New("Message is empty.")

	// ErrBadUsername - username is empty or contains whitespace.
	ErrBadUsername = errors.New("Illegal username.")

	// ErrNotFound - lookup window elapsed without reply.
	ErrNotFound = errors.New("Peer address not found.")

	// ErrNoResponse - presence query was not answered in time.
	ErrNoResponse = errors.New("Host did not respond in time.")

	// ErrClosed - client was stopped with Exit.
	ErrClosed = errors.New("Client is shut down.")
)

// LoginError - login rejected by server, Reply is the server's answer.
type LoginError struct {
	Reply string
}

func (e *LoginError) Error() string {
	return e.Reply
}

// DeliveryError - private message was not acknowledged by peer.
// Err is nil when peer answered with something other than ack.
type DeliveryError struct {
	Username string
	Err      error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Failed to get acknowledgement from client [%s].", e.Username)
	}
	return fmt.Sprintf("Connection error to client: [%s].", e.Username)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
