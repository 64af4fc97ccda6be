// Package appinfo resolves the foreground application a capture came from.
package appinfo

import (
	"sync"

	"github.com/clipkeep/clipkeep/internal/types"
)

// Provider reports the currently active foreground application. The second
// return is false when it cannot be determined.
type Provider interface {
	ActiveApplication() (types.SourceApp, bool)
}

// UnknownProvider always reports the unknown sentinel. It is the default on
// platforms without a foreground-app query.
type UnknownProvider struct{}

func (UnknownProvider) ActiveApplication() (types.SourceApp, bool) {
	return types.UnknownApp, false
}

// StaticProvider reports a fixed application, settable at runtime. Used in
// tests and by integrations that push the active app from the outside.
type StaticProvider struct {
	mu  sync.Mutex
	app types.SourceApp
	ok  bool
}

func NewStaticProvider(app types.SourceApp) *StaticProvider {
	return &StaticProvider{app: app, ok: true}
}

func (p *StaticProvider) Set(app types.SourceApp) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.app = app
	p.ok = true
}

func (p *StaticProvider) ActiveApplication() (types.SourceApp, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.app, p.ok
}
