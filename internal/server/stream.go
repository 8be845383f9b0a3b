package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alfredjeanlab/corrlog/internal/events"
	"github.com/alfredjeanlab/corrlog/internal/model"
)

const (
	// StreamPath serves committed config changes as server-sent events.
	StreamPath = CorrelationPath + "/events"

	// streamEventCurrent is the first event on every stream: the configs
	// as they are when the watcher connects.
	streamEventCurrent = "correlation.configs.current"

	streamHistorySize = 256
	streamBufferSize  = 16
	keepaliveInterval = 15 * time.Second
)

// streamEvent is one entry in the hub history.
type streamEvent struct {
	Seq   uint64
	Topic string
	Data  []byte
}

// ChangeHub fans published events out to connected stream watchers and
// keeps a short history for Last-Event-ID replay. It implements
// events.Publisher so it can sit next to the NATS publisher.
type ChangeHub struct {
	mu       sync.Mutex
	seq      uint64
	history  []streamEvent // oldest first, at most streamHistorySize
	watchers map[chan streamEvent]struct{}
}

var _ events.Publisher = (*ChangeHub)(nil)

// NewChangeHub returns an empty hub.
func NewChangeHub() *ChangeHub {
	return &ChangeHub{watchers: make(map[chan streamEvent]struct{})}
}

// Publish records event and delivers it to every watcher. Slow watchers
// miss events rather than block the caller.
func (h *ChangeHub) Publish(_ context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	ev := streamEvent{Seq: h.seq, Topic: topic, Data: data}
	h.history = append(h.history, ev)
	if len(h.history) > streamHistorySize {
		h.history = h.history[len(h.history)-streamHistorySize:]
	}
	for ch := range h.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Close is a no-op; watchers end with their requests.
func (h *ChangeHub) Close() error { return nil }

// watch registers a watcher and returns the history newer than lastSeq
// along with the live channel. Both are taken under one lock so nothing
// falls between replay and live delivery.
func (h *ChangeHub) watch(lastSeq uint64) ([]streamEvent, chan streamEvent) {
	ch := make(chan streamEvent, streamBufferSize)
	h.mu.Lock()
	defer h.mu.Unlock()
	var replay []streamEvent
	for _, ev := range h.history {
		if ev.Seq > lastSeq {
			replay = append(replay, ev)
		}
	}
	h.watchers[ch] = struct{}{}
	return replay, ch
}

func (h *ChangeHub) unwatch(ch chan streamEvent) {
	h.mu.Lock()
	delete(h.watchers, ch)
	h.mu.Unlock()
}

// handleStream handles GET /api/devops/v0/config/correlation/events. The
// caller must be allowed to read configs; the stream starts with the
// current configs and then carries every committed update.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusNotFound, "change stream not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var lastSeq uint64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastSeq, _ = strconv.ParseUint(v, 10, 64)
	}
	replay, ch := s.hub.watch(lastSeq)
	defer s.hub.unwatch(ch)

	current, err := s.svc.GetConfigs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to retrieve the correlation configs")
		return
	}
	currentData, err := json.Marshal(model.ConfigList{Components: current})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve the correlation configs")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeStreamEvent(w, streamEvent{Topic: streamEventCurrent, Data: currentData})
	for _, ev := range replay {
		writeStreamEvent(w, ev)
	}
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeStreamEvent(w, ev)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

// writeStreamEvent writes one SSE frame. Events without a sequence number
// carry no id so they do not move the client's Last-Event-ID.
func writeStreamEvent(w http.ResponseWriter, ev streamEvent) {
	if ev.Seq > 0 {
		fmt.Fprintf(w, "id:%d\n", ev.Seq)
	}
	fmt.Fprintf(w, "event:%s\n", ev.Topic)
	fmt.Fprintf(w, "data:%s\n\n", ev.Data)
}
