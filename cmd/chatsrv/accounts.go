package main

import (
	"errors"
	"fmt"

	"github.com/wtask/chatrelay/internal/chat/registry"
	"github.com/wtask/chatrelay/internal/config"
)

// loadCredentials - reads accounts declared as users.<name>.password.
func loadCredentials(p *config.Provider) (*registry.Credentials, error) {
	hashes := map[string]string{}
	for _, name := range p.Children("users") {
		hash, ok := p.String("users." + name + ".password")
		if !ok || hash == "" {
			return nil, fmt.Errorf("account %q has no password", name)
		}
		hashes[name] = hash
	}
	if len(hashes) == 0 {
		return nil, errors.New("no accounts configured")
	}
	return registry.NewCredentials(hashes)
}

// port - flag value when set, otherwise value of configuration key.
func port(flagValue int, p *config.Provider, key string, fallback int) (int, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	return p.Port(key, fallback)
}
