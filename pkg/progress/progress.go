// Package progress supervises the server-sent progress streams of long running backend
// jobs: it decides when a job has finished, keeps at most one stream per purpose and
// tears streams down on cancellation.
package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/whyfires/firescope/pkg/backend"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Source is a live event stream. *backend.Stream implements it.
type Source interface {
	Events() <-chan backend.Event
	Err() error
	Close() error
}

// Done decides whether an event that reports 100% or more is the terminal one.
type Done func(backend.Event) bool

// AnyDone accepts any event at or past 100% (analysis, forecast).
func AnyDone(backend.Event) bool { return true }

// DownloadAllDone matches the end of the combined dataset and model download.
func DownloadAllDone(ev backend.Event) bool { return ev.Phase == "all complete" }

// ModelDone matches the end of a model-only download, including the skip case.
func ModelDone(ev backend.Event) bool {
	return ev.Phase == "download complete" || ev.Phase == "download skip"
}

// ConvertDone matches the end of the data conversion.
func ConvertDone(ev backend.Event) bool { return ev.Phase == "complete" || ev.Phase == "done" }

var (
	// ErrEnded is returned when a stream ends cleanly without a terminal event.
	ErrEnded = errors.New("progress stream ended before completion")
	// ErrStopped is returned when a job was stopped by the user.
	ErrStopped = errors.New("stopped")
)

// Watch reads src until a terminal event, a stream error or ctx cancellation, calling
// report (if non-nil) for every event. The terminal event is returned. src is always
// closed on return.
func Watch(ctx context.Context, src Source, done Done, report func(backend.Event)) (backend.Event, error) {
	defer src.Close()
	if done == nil {
		done = AnyDone
	}
	for {
		select {
		case ev, ok := <-src.Events():
			if !ok {
				if err := src.Err(); err != nil {
					return backend.Event{}, fmt.Errorf("progress stream: %w", err)
				}
				return backend.Event{}, ErrEnded
			}
			if report != nil {
				report(ev)
			}
			if ev.Reached(100) && done(ev) {
				return ev, nil
			}
		case <-ctx.Done():
			return backend.Event{}, ctx.Err()
		}
	}
}
