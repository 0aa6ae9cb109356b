package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/whyfires/firescope/pkg/mapview"
	"github.com/whyfires/firescope/pkg/progress"
)

// Store keeps the live sessions and the region lookup they share.
type Store struct {
	b   Backend
	log progress.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	lookup   mapview.Lookup
}

func NewStore(b Backend, log progress.Logger) *Store {
	if log == nil {
		log = nopLogger{}
	}
	return &Store{b: b, log: log, sessions: make(map[string]*Session), lookup: mapview.Lookup{}}
}

// Get returns the session with id, ok=false when it does not exist.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Create starts a new session with a random id.
func (st *Store) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := New(uuid.NewString(), st.b, st.log)
	s.SetLookup(st.lookup)
	st.sessions[s.ID] = s
	st.log.Debugf("created session %s", s.ID)
	return s
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.Create(), true
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// RefreshMeta reloads the region lookup once and hands it to every session.
func (st *Store) RefreshMeta(ctx context.Context) error {
	meta, err := st.b.CountriesMeta(ctx)
	if err != nil {
		return err
	}
	lookup := mapview.NewLookup(meta)

	st.mu.Lock()
	st.lookup = lookup
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.Unlock()

	for _, s := range sessions {
		s.SetLookup(lookup)
	}
	st.log.Debugf("countries meta refreshed: %d regions", len(lookup))
	return nil
}

// Expire closes and forgets sessions idle for longer than maxIdle and returns how many
// were removed.
func (st *Store) Expire(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	st.mu.Lock()
	var idle []*Session
	for id, s := range st.sessions {
		if s.LastUsed().Before(cutoff) {
			idle = append(idle, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		st.log.Debugf("expired %d idle sessions", len(idle))
	}
	return len(idle)
}

// CloseAll closes every session.
func (st *Store) CloseAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
