package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookie is set by a successful unlock.
const SessionCookie = "leadflow_session"

const sessionTTL = 12 * time.Hour

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /unlock", s.handleUnlock)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /schema.json", s.handleSchema)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.pages.static)))
	return s.logRequests(mux)
}

// handleIndex serves the password gate until the visitor is unlocked, then
// the wizard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !s.unlocked(r) {
		s.renderGate(w, r.URL.RequestURI(), "", http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.pages.wizard(w); err != nil {
		s.logger.Error("Render wizard", "err", err)
	}
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	next := r.PostForm.Get("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}
	if s.cfg.Password == "" {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	given := r.PostForm.Get("password")
	if subtle.ConstantTimeCompare([]byte(given), []byte(s.cfg.Password)) != 1 {
		s.logger.Warn("Rejected unlock", "remote", r.RemoteAddr)
		s.renderGate(w, next, "Incorrect password", http.StatusUnauthorized)
		return
	}

	token := s.sessions.issue()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL / time.Second),
	})
	s.logger.Debug("Unlocked", "remote", r.RemoteAddr)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": s.schema.Version,
	}); err != nil {
		s.logger.Error("Encode health", "err", err)
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.schema); err != nil {
		s.logger.Error("Encode schema", "err", err)
	}
}

func (s *Server) renderGate(w http.ResponseWriter, next, msg string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := s.pages.gate(w, next, msg); err != nil {
		s.logger.Error("Render gate", "err", err)
	}
}

func (s *Server) unlocked(r *http.Request) bool {
	if s.cfg.Password == "" {
		return true
	}
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	return s.sessions.valid(c.Value)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}

// sessionStore tracks unlocked visitors.
type sessionStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{expires: map[string]time.Time{}}
}

func (st *sessionStore) issue() string {
	token := uuid.NewString()
	st.mu.Lock()
	defer st.mu.Unlock()
	st.expires[token] = time.Now().Add(sessionTTL)
	return token
}

func (st *sessionStore) valid(token string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	exp, ok := st.expires[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(st.expires, token)
		return false
	}
	return true
}
