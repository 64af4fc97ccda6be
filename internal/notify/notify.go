// Package notify is the user-notification collaborator. Capture rejections
// surface through it; sweep and persistence failures do not.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Notifier delivers a transient user-visible notification.
type Notifier interface {
	Notify(title, body string)
}

// LogNotifier routes notifications to the structured log. It stands in for
// a desktop notification center on headless installs.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(title, body string) {
	n.logger.Info("notification",
		zap.String("title", title),
		zap.String("body", body))
}

// Recorder captures notifications for inspection in tests.
type Recorder struct {
	mu      sync.Mutex
	Entries []Entry
}

type Entry struct {
	Title string
	Body  string
}

func (r *Recorder) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Entry{Title: title, Body: body})
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Entries)
}
