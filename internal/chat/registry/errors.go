package registry

import "errors"

var (
	// ErrAlreadyOnline - returns on login of user which owns live session.
	ErrAlreadyOnline = errors.New("registry: user already logged in")

	// ErrBadCredentials - returns on unknown username or wrong password.
	ErrBadCredentials = errors.New("registry: wrong username or password")

	// ErrNoSession - returns when handle does not belong to any live session.
	ErrNoSession = errors.New("registry: no such session")

	// ErrBadAddress - returns when peer address is malformed or its host is not resolvable.
	ErrBadAddress = errors.New("registry: could not register the given address")
)
