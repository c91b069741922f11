package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/ticketflow/internal/logging"
	"github.com/aretw0/ticketflow/pkg/domain"
)

// allRuns is the subscription key that receives every run's events.
const allRuns = ""

// Message is one encoded lifecycle event.
type Message struct {
	Type domain.EventType
	Data string
}

// StreamManager fans lifecycle events out to SSE subscribers, per run ID.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]filter // RunID -> Channels and their filters
	logger      *slog.Logger
	redact      func(*domain.State) *domain.State
}

// StreamOption configures a StreamManager.
type StreamOption func(*StreamManager)

// WithRedactor rewrites the record carried by run events before they are
// sent. fn must return a copy.
func WithRedactor(fn func(*domain.State) *domain.State) StreamOption {
	return func(sm *StreamManager) {
		sm.redact = fn
	}
}

// filter keeps the listed event types; nil keeps everything.
type filter map[domain.EventType]bool

func (f filter) keeps(t domain.EventType) bool {
	return f == nil || f[t]
}

func NewStreamManager(logger *slog.Logger, opts ...StreamOption) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	sm := &StreamManager{
		subscribers: make(map[string]map[chan<- Message]filter),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe registers a channel for one run, or for every run when runID is
// empty. When types are given only those events are delivered.
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(runID string, types ...domain.EventType) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var f filter
	if len(types) > 0 {
		f = filter{}
		for _, t := range types {
			f[t] = true
		}
	}

	ch := make(chan Message, 256)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- Message]filter)
	}
	sm.subscribers[runID][ch] = f

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast sends an event to the subscribers of its run and to global subscribers.
func (sm *StreamManager) Broadcast(runID string, eventType domain.EventType, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		sm.logger.Warn("StreamManager: encode failed", "run_id", runID, "err", err)
		return
	}
	msg := Message{Type: eventType, Data: string(data)}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{allRuns}
	if runID != allRuns {
		keys = append(keys, runID)
	}
	for _, key := range keys {
		for ch, f := range sm.subscribers[key] {
			if !f.keeps(eventType) {
				continue
			}
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "run_id", runID)
			}
		}
	}
}

// Subscribers reports how many channels are registered for runID.
func (sm *StreamManager) Subscribers(runID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[runID])
}

// Hooks broadcasts every lifecycle event. Register them on the engine.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	stage := func(ctx context.Context, e *domain.StageEvent) { sm.Broadcast(e.RunID, e.Type, e) }
	ability := func(ctx context.Context, e *domain.AbilityEvent) { sm.Broadcast(e.RunID, e.Type, e) }
	run := func(ctx context.Context, e *domain.RunEvent) {
		// Other hooks share e; redact a copy.
		if sm.redact != nil && e.State != nil {
			redacted := *e
			redacted.State = sm.redact(e.State)
			e = &redacted
		}
		sm.Broadcast(e.RunID, e.Type, e)
	}
	return domain.LifecycleHooks{
		OnStageEnter:    stage,
		OnStageLeave:    stage,
		OnAbilityCall:   ability,
		OnAbilityReturn: ability,
		OnRunComplete:   run,
		OnRunAborted:    run,
	}
}

// SubscribeEvents handles the GET /v1/events request (SSE).
// ?run_id= narrows the stream to one run; ?types= is a comma separated
// list of event types to keep.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	runID := r.URL.Query().Get("run_id")
	var types []domain.EventType
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			types = append(types, domain.EventType(strings.TrimSpace(t)))
		}
	}

	s.logger.Info("SSE: Subscribing to run events", "run_id", runID)
	ch, cancel := s.Streams.Subscribe(runID, types...)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "run_id", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}
