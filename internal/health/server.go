package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	logx "ttsbot/pkg/logx"
)

// Server exposes GET /health for uptime monitors.
type Server struct {
	mu   sync.Mutex
	log  logx.Logger
	hb   *Heartbeat
	srv  *http.Server
	ln   net.Listener
	addr string
}

func NewServer(hb *Heartbeat, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{log: log.With(logx.String("comp", "health")), hb: hb}
}

type statusBody struct {
	Status          string  `json:"status"`
	Timestamp       float64 `json:"timestamp"`
	LastHealthCheck float64 `json:"last_health_check"`
}

// Handler serves the liveness document: 200 while the heartbeat is fresh,
// 503 once it goes stale.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		body := statusBody{
			Status:          "unhealthy",
			Timestamp:       float64(now.Unix()),
			LastHealthCheck: float64(s.hb.Last().Unix()),
		}
		code := http.StatusServiceUnavailable
		if s.hb.Healthy(now) {
			body.Status = "healthy"
			code = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	})
	return mux
}

// Start begins serving on addr. Failure to listen is returned (not fatal to
// the caller's taste; the bot can run without the endpoint).
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	s.srv = srv
	s.ln = ln
	s.addr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("health server error", logx.Err(err))
		}
	}()
	s.log.Info("health endpoint up", logx.String("addr", s.addr))
	return nil
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return
	}
	srv := s.srv
	ln := s.ln
	s.srv = nil
	s.ln = nil
	s.addr = ""

	shutdownCtx := ctx
	if shutdownCtx == nil {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("health shutdown error", logx.Err(err))
	}
	if ln != nil {
		_ = ln.Close()
	}
}

// Addr reports the actual listen address if running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
