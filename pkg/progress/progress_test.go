package progress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/whyfires/firescope/pkg/backend"
)

func TestWatch_CompletesOnMarker(t *testing.T) {
	src := newFakeSource()
	go func() {
		src.send(ev(50, "downloading"))
		src.send(ev(100, "download complete")) // 100% but not the combined marker
		src.send(ev(100, "all complete"))
	}()

	var seen []string
	got, err := Watch(context.Background(), src, DownloadAllDone, func(e backend.Event) { seen = append(seen, e.Phase) })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if got.Phase != "all complete" {
		t.Fatalf("unexpected terminal event %+v", got)
	}
	if !reflect.DeepEqual(seen, []string{"downloading", "download complete", "all complete"}) {
		t.Fatalf("unexpected reported events %v", seen)
	}
	if !src.isClosed() {
		t.Fatalf("stream must be closed after completion")
	}
}

func TestWatch_CompletesPastHundred(t *testing.T) {
	src := newFakeSource()
	go func() {
		src.send(ev(99.5, "aggregating"))
		src.send(ev(100.4, "complete"))
	}()
	got, err := Watch(context.Background(), src, AnyDone, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if got.Phase != "complete" || !src.isClosed() {
		t.Fatalf("expected completion on progress above 100, got %+v", got)
	}
}

func TestWatch_StreamErrorIsTerminal(t *testing.T) {
	src := newFakeSource()
	go func() {
		src.send(ev(10, "x"))
		src.end(errBoom)
	}()
	_, err := Watch(context.Background(), src, AnyDone, nil)
	if !errors.Is(err, errBoom) || !src.isClosed() {
		t.Fatalf("expected wrapped stream error and closed source, got %v", err)
	}

	src = newFakeSource()
	go src.end(nil)
	if _, err := Watch(context.Background(), src, AnyDone, nil); !errors.Is(err, ErrEnded) {
		t.Fatalf("expected ErrEnded, got %v", err)
	}
}

func TestWatch_ContextCancel(t *testing.T) {
	src := newFakeSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Watch(ctx, src, AnyDone, nil); !errors.Is(err, context.Canceled) || !src.isClosed() {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestMarkers(t *testing.T) {
	tests := []struct {
		done  Done
		phase string
		want  bool
	}{
		{ModelDone, "download complete", true},
		{ModelDone, "download skip", true},
		{ModelDone, "all complete", false},
		{ConvertDone, "complete", true},
		{ConvertDone, "done", true},
		{ConvertDone, "converting", false},
		{DownloadAllDone, "all complete", true},
		{AnyDone, "", true},
	}
	for i, tt := range tests {
		if got := tt.done(ev(100, tt.phase)); got != tt.want {
			t.Fatalf("case %d (%q): got %v, want %v", i, tt.phase, got, tt.want)
		}
	}
}

func TestRegistry_OneStreamPerPurpose(t *testing.T) {
	r := NewRegistry(nil)
	a, b, c := newFakeSource(), newFakeSource(), newFakeSource()
	r.Start(PurposeAnalyze, a)
	r.Start(PurposeForecast, c)
	r.Start(PurposeAnalyze, b)
	if !a.isClosed() || b.isClosed() || c.isClosed() {
		t.Fatalf("starting a stream must close only the previous one for the same purpose")
	}
	r.Release(PurposeAnalyze, a)
	if !r.Active(PurposeAnalyze) {
		t.Fatalf("releasing a stale stream must not drop the live one")
	}
	r.CloseAll()
	if !b.isClosed() || !c.isClosed() || r.Active(PurposeForecast) {
		t.Fatalf("CloseAll should close everything")
	}
}

func TestJob_CompletesNormally(t *testing.T) {
	src := newFakeSource()
	j := NewJob("s1", src, func(context.Context, string) (string, error) { return "", nil })
	go func() {
		src.send(ev(0, ""))
		src.send(ev(100, ""))
	}()
	got, err := j.Wait(context.Background(), nil)
	if err != nil || !got.Is(100) {
		t.Fatalf("Wait = %+v, %v", got, err)
	}
}

func TestJob_StopWithZeroEvent(t *testing.T) {
	src := newFakeSource()
	var stopID string
	j := NewJob("s1", src, func(_ context.Context, id string) (string, error) {
		stopID = id
		go src.send(ev(0, "stopped"))
		return "stopping", nil
	})
	go src.send(ev(40, ""))

	var wg sync.WaitGroup
	var waitErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, waitErr = j.Wait(context.Background(), nil)
	}()

	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	if err := j.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	wg.Wait()
	if !errors.Is(waitErr, ErrStopped) || stopID != "s1" {
		t.Fatalf("expected ErrStopped after stop, got %v (stop id %q)", waitErr, stopID)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("a 0%% event should end the job without waiting for the timeout")
	}
}

func TestJob_StopTimesOutWithoutAck(t *testing.T) {
	src := newFakeSource()
	block := make(chan struct{})
	defer close(block)
	j := NewJob("s2", src, func(ctx context.Context, _ string) (string, error) {
		<-block
		return "", nil
	})
	j.StopTimeout = 30 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := j.Wait(context.Background(), nil)
		done <- err
	}()
	if err := j.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !src.isClosed() {
		t.Fatalf("subscription must be closed after the timeout")
	}
	src.end(nil)
	select {
	case err := <-done:
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Wait did not return")
	}
}

func TestJob_FailedStopClosesImmediately(t *testing.T) {
	src := newFakeSource()
	j := NewJob("s3", src, func(context.Context, string) (string, error) { return "", errBoom })
	j.StopTimeout = time.Hour
	if err := j.Stop(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected stop error, got %v", err)
	}
	if !src.isClosed() {
		t.Fatalf("failed stop must close the subscription")
	}
}

func TestSetup_FullFlow(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		calls = append(calls, s)
		mu.Unlock()
	}
	stream := func(msgs ...string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			record(r.URL.Path)
			w.Header().Set("Content-Type", "text/event-stream")
			for _, m := range msgs {
				fmt.Fprintf(w, "data: %s\n\n", m)
			}
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/download_all", stream(`{"progress":50,"phase":"modis","message":"half"}`, `{"progress":100,"phase":"all complete"}`))
	mux.HandleFunc("GET /api/convert_data", stream(`{"progress":100,"phase":"done"}`))
	mux.HandleFunc("POST /api/set_data_setup", func(w http.ResponseWriter, r *http.Request) {
		record(r.URL.Path)
		fmt.Fprint(w, `{}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := backend.New(backend.Config{BaseURL: srv.URL})
	var stages []string
	err := Setup(context.Background(), c, nil, false, func(stage string, e backend.Event) {
		stages = append(stages, stage+":"+e.Phase)
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	want := []string{"/api/download_all", "/api/convert_data", "/api/set_data_setup"}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("unexpected call order %v", calls)
	}
	if !reflect.DeepEqual(stages, []string{"download:modis", "download:all complete", "convert:done"}) {
		t.Fatalf("unexpected stages %v", stages)
	}
}

func TestSetup_ModelOnlyWithoutDataset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/download_model", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"progress\":100,\"phase\":\"download skip\"}\n\n")
	})
	mux.HandleFunc("GET /api/check_data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"combined_exists":false,"model_exists":true}`)
	})
	mux.HandleFunc("GET /api/convert_data", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("conversion must not start without the dataset")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if err := Setup(context.Background(), backend.New(backend.Config{BaseURL: srv.URL}), nil, true, nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
}
