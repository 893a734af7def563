package registry

import (
	"context"
	"net"
	"strconv"
)

// Resolver - resolves host name into addresses.
type Resolver func(ctx context.Context, host string) ([]string, error)

func defaultResolver(ctx context.Context, host string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, host)
}

// Register - validates "host:port" address and stores it for username, last write wins.
// The host must be resolvable, reachability is not checked.
// Rejected address does not touch directory.
func (r *Registry) Register(ctx context.Context, username, address string) error {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return ErrBadAddress
	}
	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		return ErrBadAddress
	}
	if net.ParseIP(host) == nil {
		addrs, err := r.resolve(ctx, host)
		if err != nil || len(addrs) == 0 {
			return ErrBadAddress
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.directory[username] = address
	return nil
}

// Lookup - returns last registered address of username.
func (r *Registry) Lookup(username string) (address string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	address, ok = r.directory[username]
	return address, ok
}
