package types

import (
	"time"
)

// ContentKind identifies the payload family of a clipboard item.
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindRichText ContentKind = "richtext"
	KindImage    ContentKind = "image"
	KindFile     ContentKind = "file"
	KindURL      ContentKind = "url"
	KindUnknown  ContentKind = "unknown"
)

// Residency says where a payload physically lives.
type Residency int

const (
	ResidencyMemory Residency = iota
	ResidencyDisk
)

// Content is the payload of a clipboard item. Exactly one of Data or Path
// carries the payload: Data when memory-resident, Path when the payload has
// been spilled to a backing file. For KindFile the Path is the referenced
// file itself and is never owned by the store. Thumb is an encoded preview
// bitmap for images and is always memory-resident so list rendering never
// touches disk.
type Content struct {
	Kind      ContentKind `json:"kind"`
	Residency Residency   `json:"residency"`
	Data      []byte      `json:"data,omitempty"`
	Path      string      `json:"path,omitempty"`
	Thumb     []byte      `json:"thumb,omitempty"`
}

// OnDisk reports whether the payload must be read from Path.
func (c *Content) OnDisk() bool {
	return c.Residency == ResidencyDisk
}

// OwnsBackingFile reports whether Path is a spill file owned by the store,
// as opposed to a user file referenced by a KindFile item.
func (c *Content) OwnsBackingFile() bool {
	return c.Residency == ResidencyDisk && c.Kind != KindFile
}

// SourceApp identifies the foreground application a capture came from.
type SourceApp struct {
	Name           string `json:"name"`
	ExecutablePath string `json:"executable_path"`
}

// UnknownApp is the sentinel used when the foreground application cannot be
// determined.
var UnknownApp = SourceApp{Name: "unknown"}

// ClipboardItem is one entry in the ordered history list.
type ClipboardItem struct {
	ID           string     `json:"id"`
	Created      time.Time  `json:"created"`
	Content      Content    `json:"content"`
	Preview      string     `json:"preview"`
	ContentHash  string     `json:"content_hash"`
	Starred      bool       `json:"starred"`
	AccessCount  uint64     `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	SourceApp    SourceApp  `json:"source_app"`

	// Labels are attached asynchronously by the optional enrichment
	// service and never block capture.
	Labels []string `json:"labels,omitempty"`
}

// MemoryUsage summarizes the history's footprint.
type MemoryUsage struct {
	Count           int   `json:"count"`
	TotalBytes      int64 `json:"total_bytes"`
	DiskBackedCount int   `json:"disk_backed_count"`
}
