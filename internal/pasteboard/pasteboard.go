// Package pasteboard abstracts the OS clipboard: a single-slot,
// multi-representation data exchange object with an opaque change counter.
package pasteboard

import "errors"

// TypeTag names one representation offered by the pasteboard.
type TypeTag string

const (
	TagText    TypeTag = "text/plain"
	TagHTML    TypeTag = "text/html"
	TagRTF     TypeTag = "text/rtf"
	TagURIList TypeTag = "text/uri-list"
	TagPNG     TypeTag = "image/png"
	TagTIFF    TypeTag = "image/tiff"
	TagJPEG    TypeTag = "image/jpeg"
	TagGIF     TypeTag = "image/gif"
	TagBMP     TypeTag = "image/bmp"
)

// ImageTags is the accepted raw image representations in first-fit order.
var ImageTags = []TypeTag{TagPNG, TagTIFF, TagJPEG, TagGIF, TagBMP}

// IsImageTag reports whether tag is one of the accepted image formats.
func IsImageTag(tag TypeTag) bool {
	for _, t := range ImageTags {
		if t == tag {
			return true
		}
	}
	return false
}

// ErrRepresentationUnavailable is returned when a requested representation
// is not currently offered.
var ErrRepresentationUnavailable = errors.New("pasteboard representation unavailable")

// Pasteboard is the abstract OS clipboard service. Implementations are not
// required to be safe for concurrent use; the monitor is the single caller.
type Pasteboard interface {
	// ChangeCount returns an opaque counter that increases on every
	// clipboard write. Platforms without a native counter emulate one.
	ChangeCount() int64

	// Representations lists the type tags currently offered.
	Representations() []TypeTag

	// ReadBytes returns the raw bytes of one representation.
	ReadBytes(tag TypeTag) ([]byte, error)

	// ReadString returns one representation decoded as a string.
	ReadString(tag TypeTag) (string, error)

	// Clear empties the clipboard.
	Clear() error

	// Write replaces the clipboard contents with a single representation.
	Write(tag TypeTag, data []byte) error
}
