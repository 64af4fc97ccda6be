package pasteboard

import "sync"

// MemoryPasteboard is an in-process pasteboard used by tests and by the
// round-trip verification path. Every Put/Write/Clear bumps the change
// counter the way an OS clipboard write would.
type MemoryPasteboard struct {
	mu          sync.Mutex
	reps        map[TypeTag][]byte
	order       []TypeTag
	changeCount int64

	readErr error // when set, all reads fail with this error
}

func NewMemoryPasteboard() *MemoryPasteboard {
	return &MemoryPasteboard{reps: make(map[TypeTag][]byte)}
}

// Put replaces the clipboard with the given representation set, preserving
// the given offer order.
func (p *MemoryPasteboard) Put(reps map[TypeTag][]byte, order ...TypeTag) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reps = make(map[TypeTag][]byte, len(reps))
	p.order = nil
	for tag, data := range reps {
		p.reps[tag] = data
	}
	if len(order) > 0 {
		p.order = order
	} else {
		for tag := range reps {
			p.order = append(p.order, tag)
		}
	}
	p.changeCount++
}

// FailReads makes all subsequent reads return err (nil restores normal
// behavior).
func (p *MemoryPasteboard) FailReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
}

func (p *MemoryPasteboard) ChangeCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changeCount
}

func (p *MemoryPasteboard) Representations() []TypeTag {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TypeTag, len(p.order))
	copy(out, p.order)
	return out
}

func (p *MemoryPasteboard) ReadBytes(tag TypeTag) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readErr != nil {
		return nil, p.readErr
	}
	data, ok := p.reps[tag]
	if !ok {
		return nil, ErrRepresentationUnavailable
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (p *MemoryPasteboard) ReadString(tag TypeTag) (string, error) {
	data, err := p.ReadBytes(tag)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *MemoryPasteboard) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reps = make(map[TypeTag][]byte)
	p.order = nil
	p.changeCount++
	return nil
}

func (p *MemoryPasteboard) Write(tag TypeTag, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reps = map[TypeTag][]byte{tag: data}
	p.order = []TypeTag{tag}
	p.changeCount++
	return nil
}
