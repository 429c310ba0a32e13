package httpd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mischback/krachkiste/internal/config"
	"github.com/mischback/krachkiste/internal/events"
	"github.com/mischback/krachkiste/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server runs the configuration portal's HTTP server. Its lifecycle is
// bound to the networking controller through the event bus: the listener
// comes up on TopicNetworkingReady and goes away on
// TopicNetworkingUnavailable. While up, TopicHTTPDReady is published with
// the listener address.
type Server struct {
	cfg *config.Config
	bus *events.Bus

	mu         sync.Mutex
	attachers  []func(chi.Router)
	srv        *http.Server
	listener   net.Listener
	readyToken events.Token
	downToken  events.Token
	bound      bool
}

// New creates a Server. Handlers are mounted with Mount, the lifecycle is
// armed with Bind.
func New(cfg *config.Config, bus *events.Bus) *Server {
	return &Server{
		cfg: cfg,
		bus: bus,
	}
}

// Mount registers a route attacher. Attachers run against a fresh router
// every time the listener comes up. Mount must be called before Bind.
func (s *Server) Mount(attach func(chi.Router)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachers = append(s.attachers, attach)
}

// Bind subscribes the server to the networking lifecycle events. The
// listener itself only starts once the network is ready.
func (s *Server) Bind() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bound {
		return errors.New("httpd: already bound")
	}

	readyToken, err := s.bus.Subscribe(events.TopicNetworkingReady, func(events.Event) {
		s.start()
	})
	if err != nil {
		return err
	}
	downToken, err := s.bus.Subscribe(events.TopicNetworkingUnavailable, func(events.Event) {
		s.stop()
	})
	if err != nil {
		_ = s.bus.Unsubscribe(readyToken)
		return err
	}

	s.readyToken = readyToken
	s.downToken = downToken
	s.bound = true
	return nil
}

// Close stops the listener and detaches from the bus.
func (s *Server) Close() {
	s.mu.Lock()
	if s.bound {
		_ = s.bus.Unsubscribe(s.readyToken)
		_ = s.bus.Unsubscribe(s.downToken)
		s.bound = false
	}
	s.mu.Unlock()

	s.stop()
}

// Addr returns the active listener address, or the empty string when the
// server is down.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Running reports whether the listener is up.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

func (s *Server) start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		// Repeated ready events (station reconnects) are expected.
		logging.Debug("HTTP server already running")
		return
	}

	listener, err := net.Listen("tcp", s.cfg.HTTP.Listen)
	if err != nil {
		logging.Error("Could not open HTTP listener",
			zap.String("listen", s.cfg.HTTP.Listen),
			zap.Error(err),
		)
		return
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	for _, attach := range s.attachers {
		attach(router)
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.listener = listener
	s.srv = srv

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server failed", zap.Error(err))
		}
	}()

	logging.Info("HTTP server listening",
		zap.String("addr", listener.Addr().String()),
	)
	s.bus.Publish(events.Event{
		Topic:   events.TopicHTTPDReady,
		Payload: listener.Addr().String(),
	})
}

func (s *Server) stop() {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("HTTP server shutdown forced", zap.Error(err))
		_ = srv.Close()
	}
	logging.Info("HTTP server stopped")
}

// requestLogger logs every request in the daemon's structured format.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
