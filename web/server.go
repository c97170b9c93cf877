// ABOUTME: Loopback HTTP receiver for the OAuth popup with embedded templates
// ABOUTME: Relays {token} messages and cancellation from the browser back to the client
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

const maxMessageBytes = 64 << 10

// Handlers receive what the browser sends back.
type Handlers struct {
	// OnMessage gets the raw JSON payload of each message.
	OnMessage func(data []byte)
	// OnCancel fires when the user abandons login from the page.
	OnCancel func()
}

// Server is the loopback receiver the popup redirects to.
type Server struct {
	title          string
	state          string
	templates      *template.Template
	handlers       Handlers
	allowedOrigins []string
	logger         *zap.Logger
	srv            *http.Server
}

// NewServer parses the embedded templates. state is the per-login nonce every
// request must carry as ?state=. allowedOrigins lists the origins that may
// post messages from script (usually the API host).
func NewServer(title, state string, allowedOrigins []string, h Handlers, logger *zap.Logger) (*Server, error) {
	if state == "" {
		return nil, errors.New("login state is required")
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if h.OnMessage == nil {
		h.OnMessage = func([]byte) {}
	}
	if h.OnCancel == nil {
		h.OnCancel = func() {}
	}

	s := &Server{
		title:          title,
		state:          state,
		templates:      tmpl,
		handlers:       h,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/callback", s.handleCallback).Methods(http.MethodGet)
	r.HandleFunc("/message", s.handleMessage).Methods(http.MethodPost)
	r.HandleFunc("/cancel", s.handleCancel).Methods(http.MethodPost)
	r.Use(s.requireState)

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(r)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// requireState rejects requests that do not echo this login's nonce.
func (s *Server) requireState(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query().Get("state")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.state)) != 1 {
			s.logger.Warn("rejected callback request with bad state", zap.String("path", r.URL.Path))
			http.Error(w, "invalid login state", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	received := token != ""
	if received {
		payload, _ := json.Marshal(map[string]string{"token": token})
		s.handlers.OnMessage(payload)
	}

	s.renderTemplate(w, "callback.html", map[string]interface{}{
		"Title":    s.title,
		"State":    s.state,
		"Received": received,
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "failed to read message", http.StatusBadRequest)
		return
	}
	s.handlers.OnMessage(data)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.handlers.OnCancel()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
