package progress

import (
	"context"
	"sync"
	"time"

	"github.com/whyfires/firescope/pkg/backend"
)

// DefaultStopTimeout bounds how long Stop waits for the backend to wind a job down
// before the local subscription is closed anyway.
const DefaultStopTimeout = 2 * time.Second

// StopFunc sends the out-of-band stop request for a job.
type StopFunc func(ctx context.Context, id string) (string, error)

// Job is a cancellable analysis run followed over its progress stream.
type Job struct {
	ID          string
	StopTimeout time.Duration
	Log         Logger

	src  Source
	stop StopFunc

	mu       sync.Mutex
	stopped  bool
	finished chan struct{}
	once     sync.Once
}

func NewJob(id string, src Source, stop StopFunc) *Job {
	return &Job{
		ID:          id,
		StopTimeout: DefaultStopTimeout,
		Log:         nopLogger{},
		src:         src,
		stop:        stop,
		finished:    make(chan struct{}),
	}
}

func (j *Job) isStopped() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stopped
}

// Stopped reports whether Stop has been called.
func (j *Job) Stopped() bool { return j.isStopped() }

// Wait follows the job until it reaches 100%, fails, or is stopped. A 0% event after
// Stop, or the stream going away after Stop, yields ErrStopped.
func (j *Job) Wait(ctx context.Context, report func(backend.Event)) (backend.Event, error) {
	defer j.once.Do(func() { close(j.finished) })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stoppedAtZero := false
	ev, err := Watch(ctx, j.src, AnyDone, func(ev backend.Event) {
		if report != nil {
			report(ev)
		}
		if ev.Is(0) && j.isStopped() {
			stoppedAtZero = true
			cancel()
		}
	})
	if stoppedAtZero || (err != nil && j.isStopped()) {
		return backend.Event{}, ErrStopped
	}
	return ev, err
}

// Stop asks the backend to stop the job and closes the local subscription once Wait
// has returned or StopTimeout has elapsed, whichever comes first, whether or not the
// backend acknowledged. A failed stop request closes the subscription immediately and
// is returned.
func (j *Job) Stop(ctx context.Context) error {
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		return nil
	}
	j.stopped = true
	j.mu.Unlock()

	timeout := j.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	log := j.Log
	if log == nil {
		log = nopLogger{}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ack := make(chan error, 1)
	go func() {
		msg, err := j.stop(ctx, j.ID)
		if err == nil {
			log.Debugf("stop request for %s acknowledged: %s", j.ID, msg)
		}
		ack <- err
	}()

	var stopErr error
	select {
	case stopErr = <-ack:
		if stopErr != nil {
			log.Warnf("stop request for %s failed: %v", j.ID, stopErr)
			break
		}
		select {
		case <-j.finished:
		case <-timer.C:
		case <-ctx.Done():
		}
	case <-j.finished:
	case <-timer.C:
		log.Debugf("no stop acknowledgement for %s within %s", j.ID, timeout)
	case <-ctx.Done():
	}
	j.src.Close()
	return stopErr
}
