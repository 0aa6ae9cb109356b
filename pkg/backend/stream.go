package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Event is one progress message from a server-sent-event stream. Progress is nil when
// the message carried no numeric progress.
type Event struct {
	Progress *float64 `json:"progress"`
	Phase    string   `json:"phase,omitempty"`
	Message  string   `json:"message,omitempty"`
	Raw      []byte   `json:"-"`
}

// Is reports whether the event carries exactly the given progress.
func (e Event) Is(progress float64) bool {
	return e.Progress != nil && *e.Progress == progress
}

// Reached reports whether the event carries a progress of at least the given value.
func (e Event) Reached(progress float64) bool {
	return e.Progress != nil && *e.Progress >= progress
}

// Stream is a live text/event-stream subscription. Events are delivered on Events()
// until the server closes the connection, an error occurs or Close is called.
type Stream struct {
	events chan Event
	cancel context.CancelFunc
	body   io.ReadCloser
	log    Logger

	mu     sync.Mutex
	err    error
	closed bool
	done   chan struct{}
}

func (c *Client) openStream(ctx context.Context, path string, q url.Values) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	rawURL := c.url(c.base, path, q)
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	c.log.Debugf("opening stream %s", rawURL)
	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stream %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		cancel()
		return nil, statusError(resp.StatusCode, b)
	}

	s := newStream(resp.Body, cancel, c.log)
	go s.read(ctx)
	return s, nil
}

func newStream(body io.ReadCloser, cancel context.CancelFunc, log Logger) *Stream {
	if log == nil {
		log = nopLogger{}
	}
	return &Stream{
		events: make(chan Event),
		cancel: cancel,
		body:   body,
		log:    log,
		done:   make(chan struct{}),
	}
}

// Events returns the channel of decoded events. It is closed when the stream ends.
func (s *Stream) Events() <-chan Event { return s.events }

// Done is closed once the reader has stopped.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Err returns the error that ended the stream, or nil if the server closed it cleanly
// or it was closed locally.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the connection down. It is safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.body.Close()
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.err == nil {
		s.err = err
	}
}

func (s *Stream) read(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	r := bufio.NewReader(s.body)
	var data []string
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 || err == nil {
			line = strings.TrimRight(line, "\r\n")
			switch {
			case line == "":
				if len(data) > 0 {
					if !s.dispatch(ctx, strings.Join(data, "\n")) {
						return
					}
					data = data[:0]
				}
			case strings.HasPrefix(line, ":"):
				// comment / keep-alive
			case strings.HasPrefix(line, "data:"):
				data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}
		if err != nil {
			if len(data) > 0 {
				s.dispatch(ctx, strings.Join(data, "\n"))
			}
			if !errors.Is(err, io.EOF) {
				s.fail(fmt.Errorf("reading stream: %w", err))
			}
			return
		}
	}
}

// dispatch decodes one message and delivers it. Malformed messages are logged and
// dropped. It returns false once the stream has been cancelled.
func (s *Stream) dispatch(ctx context.Context, data string) bool {
	ev, err := ParseEvent([]byte(data))
	if err != nil {
		s.log.Warnf("dropping malformed stream message %q: %v", truncate(data, 120), err)
		return true
	}
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// ParseEvent decodes a single data payload.
func ParseEvent(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return Event{}, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Event{}, fmt.Errorf("expected an object, got %s", root.Type)
	}
	ev := Event{
		Phase:   root.Get("phase").String(),
		Message: root.Get("message").String(),
		Raw:     append([]byte(nil), data...),
	}
	if p := root.Get("progress"); p.Type == gjson.Number || (p.Type == gjson.String && isNumeric(p.Str)) {
		v := p.Float()
		ev.Progress = &v
	}
	return ev, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// AnalysisProgress follows a running analysis.
func (c *Client) AnalysisProgress(ctx context.Context, sessionID string) (*Stream, error) {
	if sessionID == "" {
		return nil, &MissingFieldsError{Fields: []string{"session id"}}
	}
	return c.openStream(ctx, "/api/progress/"+url.PathEscape(sessionID), nil)
}

// DownloadAll downloads the dataset and the model.
func (c *Client) DownloadAll(ctx context.Context) (*Stream, error) {
	return c.openStream(ctx, "/api/download_all", nil)
}

// DownloadModel downloads only the model.
func (c *Client) DownloadModel(ctx context.Context) (*Stream, error) {
	return c.openStream(ctx, "/api/download_model", nil)
}

// ConvertData converts downloaded data into the per-country files the backend serves.
func (c *Client) ConvertData(ctx context.Context) (*Stream, error) {
	return c.openStream(ctx, "/api/convert_data", nil)
}
