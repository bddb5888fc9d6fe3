package mailer

import (
	"context"
	"sync"
)

// Recorder is a Sender that keeps messages in memory. It fails every send
// when Err is set.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

// Send records msg or returns r.Err.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
