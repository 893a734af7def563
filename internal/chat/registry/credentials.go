package registry

import (
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"
)

// Credentials - read-only store of accounts: username -> bcrypt hash of password.
type Credentials struct {
	hashes map[string][]byte
	names  []string
}

// NewCredentials - builds store from bcrypt hashes keyed by username.
func NewCredentials(hashes map[string]string) (*Credentials, error) {
	c := &Credentials{
		hashes: make(map[string][]byte, len(hashes)),
		names:  make([]string, 0, len(hashes)),
	}
	for name, hash := range hashes {
		if name == "" {
			return nil, fmt.Errorf("registry.NewCredentials: empty username")
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("registry.NewCredentials: invalid hash for %q: %w", name, err)
		}
		c.hashes[name] = []byte(hash)
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// HashPassword - makes bcrypt hash suitable for NewCredentials.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify - reports whether password matches account.
func (c *Credentials) Verify(username, password string) bool {
	if c == nil {
		return false
	}
	hash, ok := c.hashes[username]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Names - sorted list of all known accounts.
func (c *Credentials) Names() []string {
	if c == nil {
		return []string{}
	}
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}
