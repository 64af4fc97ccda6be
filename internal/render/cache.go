// Package render holds the content-addressed image decode cache and
// thumbnail generation.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/nfnt/resize"

	// Decoders for the accepted raster formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Cache maps a fingerprint of raw image bytes to the decoded bitmap so the
// same payload is never decoded twice. There is no automatic eviction: the
// cache grows for the process lifetime unless explicitly cleared. Safe for
// concurrent use; decodes on miss are serialized per call, not per key.
type Cache struct {
	mu      sync.RWMutex
	decoded map[uint64]image.Image
}

func NewCache() *Cache {
	return &Cache{decoded: make(map[uint64]image.Image)}
}

// Decode returns the decoded bitmap for raw, decoding and inserting on miss.
func (c *Cache) Decode(raw []byte) (image.Image, error) {
	key := xxhash.Sum64(raw)

	c.mu.RLock()
	img, ok := c.decoded[key]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.decoded[key] = img
	c.mu.Unlock()
	return img, nil
}

// Len returns the number of cached bitmaps.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.decoded)
}

// Clear drops every cached bitmap. Callers invoke it under memory pressure.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoded = make(map[uint64]image.Image)
}

// Thumbnail decodes raw through the cache and returns a PNG-encoded
// thumbnail no larger than maxDim on its longest side. Images already
// within bounds are re-encoded without scaling.
func (c *Cache) Thumbnail(raw []byte, maxDim uint) ([]byte, error) {
	img, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if uint(bounds.Dx()) > maxDim || uint(bounds.Dy()) > maxDim {
		img = resize.Thumbnail(maxDim, maxDim, img, resize.Bilinear)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
