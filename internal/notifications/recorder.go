package notifications

import (
	"context"
	"sync"
)

// Recorder is a Dispatcher that captures notifications in memory. Tests use
// it to assert on outbound email without a real SMTP dependency.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Dispatch records the notification.
func (r *Recorder) Dispatch(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Sent returns a copy of everything dispatched so far.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent notification, or a zero value when none exist.
func (r *Recorder) Last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Notification{}
	}
	return r.sent[len(r.sent)-1]
}

// Reset clears recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
