// Package clipboard contains the change-detection monitor and the content
// classifier that together drive the capture pipeline.
package clipboard

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/pasteboard"
)

// Monitor polls the pasteboard's change counter at a fixed interval and
// fires one capture pass per counter delta. A second, independent timer
// drives the retention sweep. Both timers share one goroutine, so a capture
// cycle and a sweep can never interleave their mutation of the list.
type Monitor struct {
	pb            pasteboard.Pasteboard
	pollInterval  time.Duration
	sweepInterval time.Duration
	clock         clock.Clock
	logger        *zap.Logger

	onChange func()
	onSweep  func()

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastCount int64
}

// NewMonitor builds a monitor. onChange runs once per observed counter
// delta; onSweep runs on every sweep tick. clk lets tests drive time.
func NewMonitor(pb pasteboard.Pasteboard, pollInterval, sweepInterval time.Duration, clk clock.Clock, logger *zap.Logger, onChange, onSweep func()) *Monitor {
	if clk == nil {
		clk = clock.New()
	}
	return &Monitor{
		pb:            pb,
		pollInterval:  pollInterval,
		sweepInterval: sweepInterval,
		clock:         clk,
		logger:        logger,
		onChange:      onChange,
		onSweep:       onSweep,
	}
}

// Start begins polling. Idempotent: calling Start on a running monitor is a
// no-op. The current change counter is taken as the baseline, so content
// already on the clipboard at startup is not captured.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	m.lastCount = m.pb.ChangeCount()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	m.logger.Info("starting clipboard monitor",
		zap.Duration("poll_interval", m.pollInterval),
		zap.Duration("sweep_interval", m.sweepInterval))

	go m.run(ctx, m.done)
}

// Stop cancels both timers. Idempotent. Returns after the monitor goroutine
// has exited, so no capture or sweep is in flight afterwards.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Info("clipboard monitor stopped")
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	poll := m.clock.Ticker(m.pollInterval)
	defer poll.Stop()
	sweep := m.clock.Ticker(m.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			m.pollOnce()
		case <-sweep.C:
			m.onSweep()
		}
	}
}

func (m *Monitor) pollOnce() {
	count := m.pb.ChangeCount()
	if count == m.lastCount {
		return
	}
	m.lastCount = count
	m.onChange()
}
