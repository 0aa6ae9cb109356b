package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/progress"
)

// ErrNoAnalysis is returned by StopAnalysis when nothing is running.
var ErrNoAnalysis = errors.New("no analysis running")

const subscriberBuffer = 16

// AnalysisStatus is the observable state of the latest analysis run.
type AnalysisStatus struct {
	ID       string         `json:"session_id,omitempty"`
	Running  bool           `json:"running"`
	Stopped  bool           `json:"stopped"`
	Complete bool           `json:"complete"`
	Last     *backend.Event `json:"last,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type analysis struct {
	job    *progress.Job
	status AnalysisStatus
	subs   map[chan backend.Event]struct{}
}

// StartAnalysis starts a backend analysis and follows its progress in the background.
// A previous run's stream is closed first. The backend's analysis id is returned.
func (s *Session) StartAnalysis(ctx context.Context, f backend.AnalysisFilter) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	id, err := s.b.StartAnalysis(ctx, f)
	if err != nil {
		return "", err
	}

	// The run outlives the request that started it.
	bg := context.WithoutCancel(ctx)
	stream, err := s.b.AnalysisProgress(bg, id)
	if err != nil {
		return "", fmt.Errorf("following analysis %s: %w", id, err)
	}
	s.streams.Start(progress.PurposeAnalyze, stream)

	job := progress.NewJob(id, stream, s.b.StopAnalysis)
	job.Log = s.log
	a := &analysis{
		job:    job,
		status: AnalysisStatus{ID: id, Running: true},
		subs:   make(map[chan backend.Event]struct{}),
	}

	s.mu.Lock()
	prev := s.analysis
	s.analysis = a
	s.touch()
	s.mu.Unlock()
	if prev != nil {
		s.finish(prev, nil, errors.New("superseded by a new analysis"))
	}

	s.log.Infof("session %s: analysis %s started", s.ID, id)
	go s.follow(bg, a, stream)
	return id, nil
}

func (s *Session) follow(ctx context.Context, a *analysis, stream *backend.Stream) {
	defer s.streams.Release(progress.PurposeAnalyze, stream)

	_, err := a.job.Wait(ctx, func(ev backend.Event) {
		s.mu.Lock()
		defer s.mu.Unlock()
		e := ev
		a.status.Last = &e
		for ch := range a.subs {
			select {
			case ch <- ev:
			default:
			}
		}
	})
	if err != nil {
		s.finish(a, nil, err)
		return
	}

	res, err := s.b.AnalysisResults(ctx, a.status.ID)
	s.finish(a, res, err)
}

func (s *Session) finish(a *analysis, res *backend.AnalysisResults, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !a.status.Running {
		return
	}
	a.status.Running = false
	switch {
	case errors.Is(err, progress.ErrStopped):
		a.status.Stopped = true
		s.log.Infof("session %s: analysis %s stopped", s.ID, a.status.ID)
	case err != nil:
		a.status.Error = err.Error()
		s.log.Warnf("session %s: analysis %s failed: %v", s.ID, a.status.ID, err)
	default:
		a.status.Complete = true
		s.results[a.status.ID] = res
		s.log.Infof("session %s: analysis %s complete", s.ID, a.status.ID)
	}
	for ch := range a.subs {
		close(ch)
		delete(a.subs, ch)
	}
}

// StopAnalysis stops the running analysis. It returns once the run has wound down or the
// job's stop timeout has passed.
func (s *Session) StopAnalysis(ctx context.Context) error {
	s.mu.Lock()
	a := s.analysis
	running := a != nil && a.status.Running
	s.mu.Unlock()
	if !running {
		return ErrNoAnalysis
	}
	err := a.job.Stop(ctx)
	s.finish(a, nil, progress.ErrStopped)
	return err
}

// AnalysisStatus reports the latest run, ok=false when none was started.
func (s *Session) AnalysisStatus() (AnalysisStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analysis == nil {
		return AnalysisStatus{}, false
	}
	return s.analysis.status, true
}

// Subscribe returns the progress events of the running analysis. The channel starts
// with the last event seen, if any, and is closed when the run ends or cancel is
// called. Without a running analysis the channel is already closed.
func (s *Session) Subscribe() (events <-chan backend.Event, cancel func()) {
	ch := make(chan backend.Event, subscriberBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.analysis
	if a == nil || !a.status.Running {
		if a != nil && a.status.Last != nil {
			ch <- *a.status.Last
		}
		close(ch)
		return ch, func() {}
	}
	if a.status.Last != nil {
		ch <- *a.status.Last
	}
	a.subs[ch] = struct{}{}
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := a.subs[ch]; ok {
			delete(a.subs, ch)
			close(ch)
		}
	}
}

// Results returns the results of a finished analysis, fetching them from the backend
// when this session did not run it.
func (s *Session) Results(ctx context.Context, id string) (*backend.AnalysisResults, error) {
	s.mu.Lock()
	res, ok := s.results[id]
	s.mu.Unlock()
	if ok {
		return res, nil
	}
	res, err := s.b.AnalysisResults(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.results[id] = res
	s.mu.Unlock()
	return res, nil
}

// Close releases every live stream of the session.
func (s *Session) Close() {
	s.streams.CloseAll()
}
