package vision

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	// The recorder writes anchors as PNG crops.
	_ "image/png"
)

// Anchor is a decoded template from the anchor library.
type Anchor struct {
	Name string
	Gray *image.Gray
	Hash uint64
}

// Width returns the template width in pixels.
func (a *Anchor) Width() int { return a.Gray.Bounds().Dx() }

// Height returns the template height in pixels.
func (a *Anchor) Height() int { return a.Gray.Bounds().Dy() }

// AnchorCache loads anchor templates from a directory, decoding and
// fingerprinting each file once. Safe for concurrent use.
type AnchorCache struct {
	dir string

	mu      sync.RWMutex
	anchors map[string]*Anchor
}

// NewAnchorCache creates a cache over the given anchor directory.
func NewAnchorCache(dir string) *AnchorCache {
	return &AnchorCache{
		dir:     dir,
		anchors: make(map[string]*Anchor),
	}
}

// Dir returns the anchor library directory.
func (c *AnchorCache) Dir() string { return c.dir }

// Get returns the anchor with the given file name, loading it on first use.
// Names must be bare file names; the cache never follows paths outside its
// directory.
func (c *AnchorCache) Get(name string) (*Anchor, error) {
	c.mu.RLock()
	a, ok := c.anchors[name]
	c.mu.RUnlock()
	if ok {
		return a, nil
	}

	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("anchor name %q must be a bare file name", name)
	}

	f, err := os.Open(filepath.Join(c.dir, name))
	if err != nil {
		return nil, fmt.Errorf("load anchor %q: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode anchor %q: %w", name, err)
	}

	hash, err := Fingerprint(img)
	if err != nil {
		return nil, fmt.Errorf("fingerprint anchor %q: %w", name, err)
	}

	a = &Anchor{Name: name, Gray: ToGray(img), Hash: hash}

	c.mu.Lock()
	c.anchors[name] = a
	c.mu.Unlock()

	return a, nil
}
