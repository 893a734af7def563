// Package registry keeps live chat sessions and peer addresses of a chat server.
//
// Sessions, their outbound writers and the peer directory are guarded by one lock,
// so presence of a session and its writer are always observed together.
package registry

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wtask/chatrelay/internal/chat/protocol"
)

// Handle - opaque identifier of live session.
type Handle string

// Outbound - queue of lines to be written to session's connection.
type Outbound interface {
	// WriteLine - enqueues line, must not block.
	WriteLine(line string) error
}

// Session - record of logged in user.
type Session struct {
	Username string
	Handle   Handle
}

// UserStatus - account with its presence.
type UserStatus struct {
	Username string
	Online   bool
}

type entry struct {
	handle Handle
	out    Outbound
}

// Registry - session registry and peer directory of chat server.
type Registry struct {
	credentials *Credentials
	resolve     Resolver

	mu        sync.Mutex
	sessions  map[string]entry
	writers   map[Handle]Outbound
	directory map[string]string
}

// New - builds empty registry over credential store.
func New(credentials *Credentials, options ...Option) *Registry {
	r := &Registry{
		credentials: credentials,
		resolve:     defaultResolver,
		sessions:    make(map[string]entry),
		writers:     make(map[Handle]Outbound),
		directory:   make(map[string]string),
	}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}
	return r
}

// Option - tunes Registry.
type Option func(*Registry)

// WithResolver - replaces host resolver used to validate registered addresses.
func WithResolver(resolve Resolver) Option {
	return func(r *Registry) {
		if resolve != nil {
			r.resolve = resolve
		}
	}
}

// TryLogin - creates session for username if no session exists for it and password matches.
// Presence is tested first, so a user owning live session gets ErrAlreadyOnline whatever password is given.
// Final presence test and insert happen under one lock.
func (r *Registry) TryLogin(username, password string, out Outbound) (Session, error) {
	r.mu.Lock()
	_, online := r.sessions[username]
	r.mu.Unlock()
	if online {
		return Session{}, ErrAlreadyOnline
	}

	// bcrypt is slow, keep it out of the lock
	if !r.credentials.Verify(username, password) {
		return Session{}, ErrBadCredentials
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, online := r.sessions[username]; online {
		return Session{}, ErrAlreadyOnline
	}
	h := Handle(uuid.NewString())
	r.sessions[username] = entry{h, out}
	r.writers[h] = out
	return Session{Username: username, Handle: h}, nil
}

// Remove - drops session of username with its writer. Removing absent username is a no-op.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[username]
	if !ok {
		return
	}
	delete(r.sessions, username)
	delete(r.writers, e.handle)
}

// Leave - drops session only if it is still the one identified by s.Handle.
func (r *Registry) Leave(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[s.Username]
	if !ok || e.handle != s.Handle {
		return
	}
	delete(r.sessions, s.Username)
	delete(r.writers, e.handle)
}

// Broadcast - enqueues line "<sender>: <text>" to every session except sender's one.
// Recipients are exactly sessions online while lock is held.
// Returns number of writers which accepted the line.
// failed is called under registry lock and must not call back into Registry.
func (r *Registry) Broadcast(sender, text string, failed func(username string, err error)) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := protocol.ChatMessage(sender, text)
	n := 0
	for username, e := range r.sessions {
		if username == sender {
			continue
		}
		if err := e.out.WriteLine(line); err != nil {
			if failed != nil {
				failed(username, err)
			}
			continue
		}
		n++
	}
	return n
}

// Send - enqueues line to single session resolved by handle.
func (r *Registry) Send(h Handle, line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.writers[h]
	if !ok {
		return ErrNoSession
	}
	return out.WriteLine(line)
}

// Online - lexicographically sorted usernames of live sessions.
func (r *Registry) Online() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.sessions))
	for username := range r.sessions {
		names = append(names, username)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// Len - number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Users - every known account in sorted order with online status.
func (r *Registry) Users() []UserStatus {
	names := r.credentials.Names()
	users := make([]UserStatus, 0, len(names))
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		_, online := r.sessions[name]
		users = append(users, UserStatus{Username: name, Online: online})
	}
	return users
}
