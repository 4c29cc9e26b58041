package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	maxRequestBytes = 1 << 20
	shutdownTimeout = 5 * time.Second
	defaultPoll     = 30 * time.Second
)

// TurnRunner is the part of the orchestrator the HTTP surface drives.
type TurnRunner interface {
	Run(ctx context.Context, req application.TurnRequest) application.TurnResult
	CancelSession(id domain.SessionID) bool
	ActiveRuns() []domain.SessionID
}

type Server struct {
	runner   TurnRunner
	settings ports.SettingsRepository
	clock    ports.Clock
	log      *log.Logger

	// poll is how often the heartbeat loop re-reads heartbeat_interval.
	poll time.Duration
}

func New(runner TurnRunner, settings ports.SettingsRepository, clock ports.Clock, l *log.Logger) *Server {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Server{
		runner:   runner,
		settings: settings,
		clock:    clock,
		log:      logger.OrDefault(l),
		poll:     defaultPoll,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions/{id}/turns", s.handleTurn)
	mux.HandleFunc("DELETE /sessions/{id}/run", s.handleCancel)
	mux.HandleFunc("GET /runs", s.handleRuns)
	return mux
}

// Serve answers HTTP on ln and drives heartbeats until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.RunHeartbeats(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	s.log.Info("serving", "addr", ln.Addr().String())
	return g.Wait()
}

type turnRequest struct {
	Message   string `json:"message"`
	ImagePath string `json:"imagePath,omitempty"`
	Source    string `json:"source,omitempty"`
	Internal  bool   `json:"internal,omitempty"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))

	var body turnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode turn request: %w", err))
		return
	}
	if strings.TrimSpace(body.Message) == "" && body.ImagePath == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	source := domain.RunSource(body.Source)
	if source == "" {
		source = domain.SourceChat
	}
	if !source.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported run source %q", body.Source))
		return
	}

	stream := newEventStream(w)
	result := s.runner.Run(r.Context(), application.TurnRequest{
		SessionID: id,
		Message:   body.Message,
		ImagePath: body.ImagePath,
		Source:    source,
		Internal:  body.Internal,
		OnEvent:   stream.emit,
	})

	if !stream.committed() {
		switch {
		case errors.Is(result.Err, domain.ErrRunInProgress):
			writeError(w, http.StatusConflict, result.Err)
			return
		case errors.Is(result.Err, domain.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, result.Err)
			return
		}
	}
	stream.finish(newTurnResponse(result))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))
	if !s.runner.CancelSession(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("no active run for session %s", id))
		return
	}
	s.log.Info("run cancelled", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRuns(w http.ResponseWriter, _ *http.Request) {
	active := s.runner.ActiveRuns()
	if active == nil {
		active = []domain.SessionID{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": active})
}

// RunHeartbeats fires a heartbeat turn on the main session every heartbeat_interval.
// A zero interval disables it; the interval is re-read on every poll.
func (s *Server) RunHeartbeats(ctx context.Context) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var last time.Time
	for {
		if interval := s.heartbeatInterval(ctx); interval > 0 {
			now := s.clock.Now()
			if last.IsZero() || now.Sub(last) >= interval {
				last = now
				s.heartbeat(ctx)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) heartbeat(ctx context.Context) {
	result := s.runner.Run(ctx, application.TurnRequest{
		SessionID: domain.MainSessionID,
		Source:    domain.SourceHeartbeat,
	})
	switch {
	case errors.Is(result.Err, domain.ErrRunInProgress):
		s.log.Debug("heartbeat skipped, main session busy")
	case result.Failed():
		s.log.Warn("heartbeat failed", "err", result.Error)
	default:
		s.log.Debug("heartbeat done", "classification", result.Classification, "persisted", result.Persisted)
	}
}

func (s *Server) heartbeatInterval(ctx context.Context) time.Duration {
	if s.settings == nil {
		return 0
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		s.log.Warn("load settings for heartbeat", "err", err)
		return 0
	}
	return settings.HeartbeatInterval
}

// eventStream writes NDJSON. Leading error events are held back so a rejected turn
// can still be answered with a plain status code.
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	enc     *json.Encoder
	pending []domain.StreamEvent
	started bool
}

func newEventStream(w http.ResponseWriter) *eventStream {
	return &eventStream{w: w, enc: json.NewEncoder(w)}
}

func (s *eventStream) emit(ev domain.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started && ev.Type == domain.EventError {
		s.pending = append(s.pending, ev)
		return
	}
	s.startLocked()
	s.writeLocked(ev)
}

func (s *eventStream) committed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *eventStream) finish(result turnResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
	s.writeLocked(result)
}

func (s *eventStream) startLocked() {
	if s.started {
		return
	}
	s.started = true
	s.w.Header().Set("Content-Type", "application/x-ndjson")
	s.w.WriteHeader(http.StatusOK)
	for _, ev := range s.pending {
		s.writeLocked(ev)
	}
	s.pending = nil
}

func (s *eventStream) writeLocked(v any) {
	// A client that went away surfaces as a cancelled request context.
	_ = s.enc.Encode(v)
	if flusher, ok := s.w.(http.Flusher); ok {
		flusher.Flush()
	}
}

type toolEventResponse struct {
	Name   string  `json:"name"`
	Input  string  `json:"input,omitempty"`
	Output *string `json:"output,omitempty"`
	Error  bool    `json:"error,omitempty"`
}

type turnResponse struct {
	Type           string                  `json:"type"`
	Text           string                  `json:"text"`
	Persisted      bool                    `json:"persisted"`
	ToolEvents     []toolEventResponse     `json:"toolEvents,omitempty"`
	Error          string                  `json:"error,omitempty"`
	Routing        *domain.RoutingDecision `json:"routing,omitempty"`
	Classification string                  `json:"classification,omitempty"`
}

func newTurnResponse(result application.TurnResult) turnResponse {
	out := turnResponse{
		Type:           "result",
		Text:           result.Text,
		Persisted:      result.Persisted,
		Error:          result.Error,
		Routing:        result.Routing,
		Classification: string(result.Classification),
	}
	for _, event := range result.ToolEvents {
		out.ToolEvents = append(out.ToolEvents, toolEventResponse{
			Name:   event.Name,
			Input:  event.Input,
			Output: event.Output,
			Error:  event.Error,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
