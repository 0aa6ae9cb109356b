package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/whyfires/firescope/pkg/backend"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range greeceRoutes() {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	st := NewStore(backend.New(backend.Config{BaseURL: srv.URL, RetryMax: 1, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond}), nil)
	t.Cleanup(st.CloseAll)
	return st
}

func TestStoreSessions(t *testing.T) {
	st := newTestStore(t)

	a := st.Create()
	if a.ID == "" {
		t.Fatalf("expected a generated id")
	}
	if got, ok := st.Get(a.ID); !ok || got != a {
		t.Fatalf("Get(%q) did not return the created session", a.ID)
	}
	if got, created := st.GetOrCreate(a.ID); created || got != a {
		t.Fatalf("GetOrCreate should reuse an existing session")
	}
	b, created := st.GetOrCreate("stale-cookie")
	if !created || b.ID == "stale-cookie" || b.ID == a.ID {
		t.Fatalf("GetOrCreate should mint a fresh id for unknown ones, got %q", b.ID)
	}
	if st.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", st.Len())
	}
}

func TestStoreRefreshMetaReachesSessions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	before := st.Create()

	if err := st.RefreshMeta(ctx); err != nil {
		t.Fatalf("RefreshMeta: %v", err)
	}
	after := st.Create()
	for _, s := range []*Session{before, after} {
		if _, err := s.Select(ctx, 2021, "Greece"); err != nil {
			t.Fatalf("Select: %v", err)
		}
		v, err := s.View(ctx)
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if v.Center.Zoom != 5.5 {
			t.Fatalf("session %s did not get the refreshed lookup: %+v", s.ID, v.Center)
		}
	}
}

func TestStoreExpire(t *testing.T) {
	st := newTestStore(t)
	idle := st.Create()
	fresh := st.Create()
	idle.mu.Lock()
	idle.lastUsed = time.Now().Add(-time.Hour)
	idle.mu.Unlock()

	if n := st.Expire(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, ok := st.Get(idle.ID); ok {
		t.Fatalf("idle session should be gone")
	}
	if _, ok := st.Get(fresh.ID); !ok {
		t.Fatalf("fresh session should remain")
	}
}
