// Package assets resolves catalog image paths to the URLs the storefront
// serves them from.
//
// A deploy step uploads product images under fingerprinted names and writes a
// manifest mapping each source path to its hashed name:
//
//	Images/m1.webp: Images/m1.3f2a9c.webp
//	Images/w1.webp: Images/w1.b7e410.webp
//
// The manifest may also be JSON. A Resolver combines it with a URL prefix,
// typically a CDN origin:
//
//	m, _ := assets.LoadManifest("dist/images.yaml")
//	r := assets.NewResolver(m, "https://cdn.example.com/chrono")
//	r.Image("/Images/m1.webp") // "https://cdn.example.com/chrono/Images/m1.3f2a9c.webp"
package assets

import (
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/chrono/internal/errors"
)

// Manifest maps source image paths to fingerprinted paths.
// It is safe for concurrent use.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// ParseManifest decodes a YAML or JSON manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var entries map[string]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.New("E025").WithDetail(err.Error()).Wrap(err)
	}
	m := NewManifest()
	for k, v := range entries {
		m.entries[key(k)] = key(v)
	}
	return m, nil
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E025").WithDetail("cannot read " + path).Wrap(err)
	}
	return ParseManifest(data)
}

// key normalizes a path so "/Images/a.webp" and "Images/a.webp" match.
func key(p string) string {
	return strings.TrimLeft(strings.TrimSpace(p), "/")
}

// Resolve returns the fingerprinted path for source, or source itself when the
// manifest has no entry. The result has no leading slash.
func (m *Manifest) Resolve(source string) string {
	k := key(source)
	if m == nil {
		return k
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[k]; ok {
		return resolved
	}
	return k
}

// Has reports whether the manifest has an entry for source.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[key(source)]
	return ok
}

// Set adds or updates an entry.
func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key(source)] = key(resolved)
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
