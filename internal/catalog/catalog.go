// SPDX-License-Identifier: MIT

// Package catalog loads the list of selectable M8 sources from a Java-style
// properties file (plain or XML). Each key is a display label and each value a
// location: an absolute URL of an M8 endpoint or a path to a bundled asset.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnknownKey        = errors.New("catalog: unknown source key")
	ErrUnsupportedFormat = errors.New("catalog: unsupported file format")
	ErrEmpty             = errors.New("catalog: no sources defined")
)

// Kind tells how a source location is fetched.
type Kind string

const (
	KindRemote Kind = "remote"
	KindAsset  Kind = "asset"
)

// Source is one catalogue entry.
type Source struct {
	Key      string `json:"key" yaml:"key"`
	Location string `json:"location" yaml:"location"`
	Kind     Kind   `json:"kind" yaml:"kind"`
}

// Catalog is an ordered, immutable set of sources.
type Catalog struct {
	keys   []string
	values map[string]string
}

// New builds a catalogue from key/value pairs in order. Later duplicates
// replace the value but keep the position of the first occurrence.
func New(pairs ...[2]string) *Catalog {
	c := &Catalog{values: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		c.put(p[0], p[1])
	}
	return c
}

func (c *Catalog) put(key, value string) {
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Len returns the number of sources.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the source keys in document order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Lookup resolves a key to its source.
func (c *Catalog) Lookup(key string) (Source, error) {
	if c == nil {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	loc, ok := c.values[key]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return Source{Key: key, Location: loc, Kind: KindOf(loc)}, nil
}

// Sources returns every entry in document order.
func (c *Catalog) Sources() []Source {
	out := make([]Source, 0, c.Len())
	for _, k := range c.Keys() {
		out = append(out, Source{Key: k, Location: c.values[k], Kind: KindOf(c.values[k])})
	}
	return out
}

// Contains reports whether key is defined.
func (c *Catalog) Contains(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.values[key]
	return ok
}

// KindOf classifies a location: absolute URIs are remote, everything else is an asset path.
func KindOf(location string) Kind {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil || !u.IsAbs() {
		return KindAsset
	}
	return KindRemote
}

// Load reads a catalogue file. The format follows the extension: ".xml" for
// the properties XML form, ".properties" for the plain form.
func Load(path string) (*Catalog, error) {
	path = filepath.Clean(path)
	// #nosec G304 -- catalogue path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(filepath.Ext(path), data)
}

// Parse decodes catalogue data of the format named by ext.
func Parse(ext string, data []byte) (*Catalog, error) {
	var (
		c   *Catalog
		err error
	)
	switch strings.ToLower(ext) {
	case ".xml":
		c, err = parseXML(data)
	case ".properties":
		c, err = parseProperties(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, ErrEmpty
	}
	return c, nil
}
