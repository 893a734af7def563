// Package config provides string-keyed access to YAML configuration files.
//
// Nested mappings are flattened into dotted keys, so document
//
//	tcp:
//	  port: 6000
//
// is available as key "tcp.port".
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// ErrMissing - returns for absent key.
var ErrMissing = errors.New("config: key is missing")

// Provider - read-only set of configuration values.
type Provider struct {
	values map[string]string
}

// Load - reads and parses YAML file.
func Load(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load %s: %w", path, err)
	}
	return p, nil
}

// Parse - parses YAML document.
func Parse(data []byte) (*Provider, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	p := &Provider{values: map[string]string{}}
	if err := p.flatten("", doc); err != nil {
		return nil, err
	}
	return p, nil
}

// FromMap - builds provider over already flattened values.
func FromMap(values map[string]string) *Provider {
	p := &Provider{values: make(map[string]string, len(values))}
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

func (p *Provider) flatten(prefix string, node interface{}) error {
	switch n := node.(type) {
	case map[string]interface{}:
		for k, v := range n {
			if err := p.flatten(join(prefix, k), v); err != nil {
				return err
			}
		}
	case map[interface{}]interface{}:
		for k, v := range n {
			if err := p.flatten(join(prefix, fmt.Sprint(k)), v); err != nil {
				return err
			}
		}
	case []interface{}:
		return fmt.Errorf("config: sequence is not supported at %q", prefix)
	case nil:
		p.values[prefix] = ""
	default:
		p.values[prefix] = fmt.Sprint(n)
	}
	return nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// String - returns value of key.
func (p *Provider) String(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// StringOr - returns value of key or fallback when key is absent.
func (p *Provider) StringOr(key, fallback string) string {
	if v, ok := p.String(key); ok {
		return v
	}
	return fallback
}

// Int - returns value of key as integer.
func (p *Provider) Int(key string) (int, error) {
	v, ok := p.String(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissing, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

// Port - value of key as network port, fallback when key is absent.
func (p *Provider) Port(key string, fallback int) (int, error) {
	if _, ok := p.String(key); !ok {
		return fallback, nil
	}
	v, err := p.Int(key)
	if err != nil {
		return 0, err
	}
	if v < 1 || v > 65535 {
		return 0, fmt.Errorf("config: %s: port out of range (%d)", key, v)
	}
	return v, nil
}

// Children - sorted distinct names nested directly under prefix.
func (p *Provider) Children(prefix string) []string {
	if p == nil {
		return []string{}
	}
	prefix += "."
	seen := map[string]bool{}
	names := []string{}
	for key := range p.values {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
