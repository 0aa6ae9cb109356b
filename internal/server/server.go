package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/whyfires/firescope/internal/utils"
	"github.com/whyfires/firescope/pkg/session"
)

//go:embed web
var WebFS embed.FS

const (
	// SessionCookie carries the dashboard session id.
	SessionCookie = "firescope_session"

	DefaultMetaSchedule = "@every 6h"
	DefaultSessionIdle  = 2 * time.Hour
)

// Backend is what the dashboard needs from the backend client.
type Backend interface {
	session.Backend
	Countries(ctx context.Context, year int) ([]string, error)
}

type Server struct {
	Backend  Backend
	Sessions *session.Store
	Username string
	Password string

	// MetaSchedule is the cron spec for refreshing the countries meta lookup and
	// dropping idle sessions.
	MetaSchedule string
	SessionIdle  time.Duration

	cron *cron.Cron
}

func New(b Backend, user, pass string) *Server {
	return &Server{
		Backend:      b,
		Sessions:     session.NewStore(b, utils.Logger("session")),
		Username:     user,
		Password:     pass,
		MetaSchedule: DefaultMetaSchedule,
		SessionIdle:  DefaultSessionIdle,
	}
}

// Handler builds the routing table.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("GET /api/countries", s.basicAuth(s.handleCountries))
	mux.HandleFunc("POST /api/select", s.basicAuth(s.withSession(s.handleSelect)))
	mux.HandleFunc("GET /api/selection", s.basicAuth(s.withSession(s.handleSelection)))
	mux.HandleFunc("POST /api/filters", s.basicAuth(s.withSession(s.handleFilters)))
	mux.HandleFunc("GET /api/view", s.basicAuth(s.withSession(s.handleView)))
	mux.HandleFunc("GET /api/legend", s.basicAuth(s.withSession(s.handleLegend)))
	mux.HandleFunc("POST /api/hover", s.basicAuth(s.withSession(s.handleHover)))
	mux.HandleFunc("POST /api/detail", s.basicAuth(s.withSession(s.handleDetail)))
	mux.HandleFunc("POST /api/predict", s.basicAuth(s.withSession(s.handlePredict)))
	mux.HandleFunc("POST /api/arearisk/toggle", s.basicAuth(s.withSession(s.handleToggleAreaRisk)))
	mux.HandleFunc("GET /api/arearisk", s.basicAuth(s.withSession(s.handleAreaRisk)))
	mux.HandleFunc("POST /api/forecast/calendar", s.basicAuth(s.withSession(s.handleCalendar)))
	mux.HandleFunc("POST /api/analyze", s.basicAuth(s.withSession(s.handleAnalyze)))
	mux.HandleFunc("GET /api/analyze", s.basicAuth(s.withSession(s.handleAnalysisStatus)))
	mux.HandleFunc("POST /api/analyze/stop", s.basicAuth(s.withSession(s.handleStopAnalysis)))
	mux.HandleFunc("GET /api/analyze/progress", s.basicAuth(s.withSession(s.handleAnalysisProgress)))

	// Charts
	mux.HandleFunc("GET /charts/analysis/{id}", s.basicAuth(s.withSession(s.handleAnalysisChart)))
	mux.HandleFunc("POST /charts/annual.png", s.basicAuth(s.handleAnnualChart))

	// Static Files
	webRoot, err := fs.Sub(WebFS, "web")
	if err != nil {
		return nil, err
	}
	fileServer := http.FileServer(http.FS(webRoot))
	mux.Handle("/", s.basicAuthMiddlewareForStatic(fileServer))
	return mux, nil
}

// StartJobs refreshes the countries meta once and schedules the periodic refresh.
func (s *Server) StartJobs(ctx context.Context) error {
	s.refresh(ctx)
	schedule := s.MetaSchedule
	if schedule == "" {
		schedule = DefaultMetaSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { s.refresh(ctx) }); err != nil {
		return err
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.cron = c
	s.cron.Start()
	return nil
}

func (s *Server) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := s.Sessions.RefreshMeta(ctx); err != nil {
		utils.Log.Warnf("Could not refresh countries meta: %v", err)
	}
	if s.SessionIdle > 0 {
		s.Sessions.Expire(s.SessionIdle)
	}
}

// StopJobs stops the scheduler and closes every session's streams.
func (s *Server) StopJobs() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.Sessions.CloseAll()
}

func (s *Server) Start(ctx context.Context, addr string) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	if err := s.StartJobs(ctx); err != nil {
		return err
	}
	defer s.StopJobs()

	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	utils.Log.Infof("Starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) authorized(r *http.Request) bool {
	if s.Username == "" && s.Password == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	return ok && user == s.Username && pass == s.Password
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) basicAuthMiddlewareForStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the caller's session from its cookie, creating one when the
// cookie is missing or unknown.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}
		sess, created := s.Sessions.GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next(w, r, sess)
	}
}
