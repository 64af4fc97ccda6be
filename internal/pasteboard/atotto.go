package pasteboard

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/cespare/xxhash/v2"
)

// AtottoPasteboard is a text-only fallback backend for environments where
// the CGO-backed system binding is unavailable (headless Linux without X,
// some CI setups). It shells out through github.com/atotto/clipboard.
type AtottoPasteboard struct {
	changeCount int64
	lastDigest  uint64
}

func NewAtottoPasteboard() *AtottoPasteboard {
	return &AtottoPasteboard{}
}

func (p *AtottoPasteboard) ChangeCount() int64 {
	text, err := clipboard.ReadAll()
	if err != nil {
		return p.changeCount
	}
	digest := xxhash.Sum64String(text)
	if digest != p.lastDigest {
		p.lastDigest = digest
		p.changeCount++
	}
	return p.changeCount
}

func (p *AtottoPasteboard) Representations() []TypeTag {
	text, err := clipboard.ReadAll()
	if err != nil || text == "" {
		return nil
	}
	return []TypeTag{TagText}
}

func (p *AtottoPasteboard) ReadBytes(tag TypeTag) ([]byte, error) {
	s, err := p.ReadString(tag)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (p *AtottoPasteboard) ReadString(tag TypeTag) (string, error) {
	if tag != TagText {
		return "", ErrRepresentationUnavailable
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	if text == "" {
		return "", ErrRepresentationUnavailable
	}
	return text, nil
}

func (p *AtottoPasteboard) Clear() error {
	return clipboard.WriteAll("")
}

func (p *AtottoPasteboard) Write(tag TypeTag, data []byte) error {
	if tag != TagText && tag != TagURIList && tag != TagHTML && tag != TagRTF {
		return fmt.Errorf("unsupported representation %q", tag)
	}
	return clipboard.WriteAll(string(data))
}
