package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/arena/go/internal/models"
)

// Service serves the live match to browsers: the latest view over REST and a stream of
// snapshots and timer readouts over WebSocket. It is an orchestrator renderer.
type Service struct {
	connectionManager *ConnectionManager

	mu     sync.RWMutex
	latest *models.View
}

// NewService creates a new match gateway service
func NewService(config ConnectionConfig) *Service {
	return &Service{
		connectionManager: NewConnectionManager(config),
	}
}

// Start runs the broadcaster until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting match gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("match gateway service stopped")
	return nil
}

// Render stores view as the latest snapshot and pushes it to every viewer
func (s *Service) Render(view models.View) {
	s.mu.Lock()
	latest := view.Clone()
	s.latest = &latest
	s.mu.Unlock()

	event, err := NewSnapshotEvent(view)
	if err != nil {
		log.Error().Err(err).Uint64("seq", view.Seq).Msg("failed to build snapshot event")
		return
	}
	s.connectionManager.Broadcast(event)
}

// RenderTimer pushes a live timer readout. The stored view keeps the readout too so a
// late viewer sees the current value.
func (s *Service) RenderTimer(agent models.Agent, readout string) {
	var seq uint64
	s.mu.Lock()
	if s.latest != nil {
		if p := s.latest.Panel(agent); p != nil {
			p.Timer = readout
		}
		seq = s.latest.Seq
	}
	s.mu.Unlock()

	event, err := NewTimerEvent(seq, agent, readout)
	if err != nil {
		log.Error().Err(err).Msg("failed to build timer event")
		return
	}
	s.connectionManager.Broadcast(event)
}

// Latest returns a copy of the most recent view, or false before the first render
func (s *Service) Latest() (models.View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return models.View{}, false
	}
	return s.latest.Clone(), true
}

// RegisterRoutes registers the gateway HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /ws/match", s.handleMatchConnection)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

// Handler returns the routes wrapped with CORS
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

// NewServer builds the HTTP/2 cleartext server hosting the gateway
func NewServer(addr string, s *Service) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Service) handleView(w http.ResponseWriter, r *http.Request) {
	view, ok := s.Latest()
	if !ok {
		http.Error(w, "match not started", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		log.Error().Err(err).Msg("failed to encode view")
	}
}

func (s *Service) handleMatchConnection(w http.ResponseWriter, r *http.Request) {
	var initial *MatchEvent
	if view, ok := s.Latest(); ok {
		event, err := NewSnapshotEvent(view)
		if err != nil {
			log.Error().Err(err).Msg("failed to build initial snapshot")
		}
		initial = event
	}

	// on failure the upgrader has already replied to the client
	if err := s.connectionManager.UpgradeConnection(w, r, initial); err != nil {
		log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
	}
}

// ConnectionCount returns the number of connected viewers
func (s *Service) ConnectionCount() int {
	return s.connectionManager.ConnectionCount()
}
