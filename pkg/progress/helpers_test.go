package progress

import (
	"errors"
	"sync"

	"github.com/whyfires/firescope/pkg/backend"
)

// fakeSource is a Source fed by the test. Closing it ends Events like a real stream.
type fakeSource struct {
	ch chan backend.Event

	mu     sync.Mutex
	closed bool
	err    error
	quit   chan struct{}
}

func newFakeSource() *fakeSource {
	f := &fakeSource{ch: make(chan backend.Event), quit: make(chan struct{})}
	return f
}

// send delivers ev unless the source has been closed.
func (f *fakeSource) send(ev backend.Event) bool {
	select {
	case f.ch <- ev:
		return true
	case <-f.quit:
		return false
	}
}

// end closes the event channel, optionally with a stream error.
func (f *fakeSource) end(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	close(f.ch)
}

func (f *fakeSource) Events() <-chan backend.Event { return f.ch }

func (f *fakeSource) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.quit)
	}
	return nil
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func ev(progress float64, phase string) backend.Event {
	return backend.Event{Progress: &progress, Phase: phase}
}

var errBoom = errors.New("boom")
