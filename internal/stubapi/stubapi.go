// Package stubapi serves a canned rendition of the upstream proxy API for
// local development: WooCommerce orders and products, FluentCRM subscribers,
// LearnDash users, and the event endpoints, with enough mutable state to
// exercise enrollment and cache invalidation end to end.
package stubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jdarling/eventdash/internal/domain/model"
	"github.com/jdarling/eventdash/pkg/logger"
)

// Config controls the stub server.
type Config struct {
	// Addr is the listen address, e.g. ":8787".
	Addr string
}

// Server holds the canned fixtures plus the mutable rosters and subscribers.
type Server struct {
	mu          sync.Mutex
	rosters     map[int][]model.Attendee
	subscribers []model.Attendee
	nextID      int

	logger logger.Logger
}

// NewServer creates a stub server seeded with fixture data.
func NewServer() *Server {
	s := &Server{
		rosters:     map[int][]model.Attendee{},
		subscribers: append([]model.Attendee(nil), fixtureSubscribers...),
		nextID:      1000,
		logger:      logger.Get().Named("stubapi"),
	}
	for id, roster := range fixtureRosters {
		s.rosters[id] = append([]model.Attendee(nil), roster...)
	}
	return s
}

// Run serves the stub API until ctx is canceled.
func Run(ctx context.Context, cfg *Config) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewServer().Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("stub api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler builds the upstream route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "stub-token"})
	})
	mux.HandleFunc("GET /woo/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fixtureOrders)
	})
	mux.HandleFunc("GET /woo/products", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fixtureEvents)
	})
	mux.HandleFunc("GET /fluent-crm/v2/subscribers", s.handleSubscribers)
	mux.HandleFunc("POST /fluent-crm/v2/subscribers/{id}/tags", s.handleUpdateTags)
	mux.HandleFunc("GET /learndash/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fixtureLearnDashUsers)
	})
	mux.HandleFunc("GET /events/danger-zone", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fixtureDangerZone)
	})
	mux.HandleFunc("GET /events/{id}/attendees", s.handleRoster)
	mux.HandleFunc("GET /events/{id}/instrument-sales", s.handleInstrumentSales)
	mux.HandleFunc("GET /insights", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"practitioners": fixturePractitioners})
	})
	mux.HandleFunc("POST /events/{id}/enroll", s.handleEnroll)
	mux.HandleFunc("POST /events/{id}/enroll/bulk", s.handleBulkEnroll)
	return mux
}

func (s *Server) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	subscribers := append([]model.Attendee(nil), s.subscribers...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, subscribers)
}

func (s *Server) handleUpdateTags(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid subscriber id"})
		return
	}
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tags"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subscribers {
		if s.subscribers[i].ID != id {
			continue
		}
		tags := make([]model.Tag, 0, len(req.Tags))
		for n, title := range req.Tags {
			tags = append(tags, model.Tag{ID: n + 1, Title: title})
		}
		s.subscribers[i].Tags = tags
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown subscriber"})
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}
	s.mu.Lock()
	roster := append([]model.Attendee(nil), s.rosters[id]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, roster)
}

func (s *Server) handleInstrumentSales(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}
	summary, ok := fixtureInstrumentSales[id]
	if !ok {
		summary = model.InstrumentSummary{}
	}
	s.mu.Lock()
	summary.TotalAttendees = len(s.rosters[id])
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}
	var p model.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid participant"})
		return
	}
	s.enroll(id, p)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "enrolled"})
}

func (s *Server) handleBulkEnroll(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}
	var ps []model.Participant
	if err := json.NewDecoder(r.Body).Decode(&ps); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid participants"})
		return
	}
	for _, p := range ps {
		s.enroll(id, p)
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "enrolled"})
}

func (s *Server) enroll(eventID int, p model.Participant) {
	s.logger.Info(context.Background(), "stub enrollment",
		logger.Int("eventID", eventID), logger.String("email", p.Email))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.rosters[eventID] = append(s.rosters[eventID], model.Attendee{
		ID:        s.nextID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
