package progress

import "sync"

// Stream purposes. At most one stream per purpose is live at a time.
const (
	PurposeDownload = "download"
	PurposeConvert  = "convert"
	PurposeAnalyze  = "analyze"
	PurposeForecast = "forecast"
)

// Registry tracks the live stream for each purpose.
type Registry struct {
	Log Logger

	mu   sync.Mutex
	live map[string]Source
}

func NewRegistry(log Logger) *Registry {
	if log == nil {
		log = nopLogger{}
	}
	return &Registry{Log: log, live: make(map[string]Source)}
}

// Start makes src the live stream for purpose, closing any previous one first.
func (r *Registry) Start(purpose string, src Source) {
	r.mu.Lock()
	prev := r.live[purpose]
	r.live[purpose] = src
	r.mu.Unlock()

	if prev != nil && prev != src {
		r.Log.Debugf("closing previous %s stream", purpose)
		prev.Close()
	}
}

// Release forgets src if it is still the live stream for purpose and closes it.
func (r *Registry) Release(purpose string, src Source) {
	r.mu.Lock()
	if r.live[purpose] == src {
		delete(r.live, purpose)
	}
	r.mu.Unlock()
	src.Close()
}

// Close closes the live stream for purpose, if any.
func (r *Registry) Close(purpose string) {
	r.mu.Lock()
	src := r.live[purpose]
	delete(r.live, purpose)
	r.mu.Unlock()
	if src != nil {
		src.Close()
	}
}

// CloseAll closes every live stream.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	live := r.live
	r.live = make(map[string]Source)
	r.mu.Unlock()
	for _, src := range live {
		src.Close()
	}
}

func (r *Registry) Active(purpose string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[purpose]
	return ok
}
