package pasteboard

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.design/x/clipboard"
)

// SystemPasteboard reads the OS clipboard through golang.design/x/clipboard,
// which exposes text and PNG image data on Linux, macOS and Windows. The
// library has no native change counter, so one is emulated by fingerprinting
// the current contents on each poll: any change to the observed slot bumps
// the counter exactly once.
type SystemPasteboard struct {
	changeCount int64
	lastDigest  uint64
}

// NewSystemPasteboard initializes the OS clipboard binding.
func NewSystemPasteboard() (*SystemPasteboard, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	return &SystemPasteboard{}, nil
}

func (p *SystemPasteboard) ChangeCount() int64 {
	d := xxhash.New()
	d.Write(clipboard.Read(clipboard.FmtText))
	d.Write([]byte{0})
	d.Write(clipboard.Read(clipboard.FmtImage))
	digest := d.Sum64()
	if digest != p.lastDigest {
		p.lastDigest = digest
		p.changeCount++
	}
	return p.changeCount
}

func (p *SystemPasteboard) Representations() []TypeTag {
	var tags []TypeTag
	if len(clipboard.Read(clipboard.FmtImage)) > 0 {
		tags = append(tags, TagPNG)
	}
	if len(clipboard.Read(clipboard.FmtText)) > 0 {
		tags = append(tags, TagText)
	}
	return tags
}

func (p *SystemPasteboard) ReadBytes(tag TypeTag) ([]byte, error) {
	switch tag {
	case TagPNG:
		if data := clipboard.Read(clipboard.FmtImage); len(data) > 0 {
			return data, nil
		}
	case TagText:
		if data := clipboard.Read(clipboard.FmtText); len(data) > 0 {
			return data, nil
		}
	}
	return nil, ErrRepresentationUnavailable
}

func (p *SystemPasteboard) ReadString(tag TypeTag) (string, error) {
	data, err := p.ReadBytes(tag)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *SystemPasteboard) Clear() error {
	clipboard.Write(clipboard.FmtText, nil)
	return nil
}

func (p *SystemPasteboard) Write(tag TypeTag, data []byte) error {
	switch {
	case tag == TagPNG:
		clipboard.Write(clipboard.FmtImage, data)
	case tag == TagText || tag == TagURIList || tag == TagHTML || tag == TagRTF:
		// Non-plain text representations degrade to their raw text form.
		clipboard.Write(clipboard.FmtText, data)
	default:
		return fmt.Errorf("unsupported representation %q", tag)
	}
	return nil
}
