package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/corrlog/internal/events"
	"github.com/alfredjeanlab/corrlog/internal/model"
)

func TestChangeHub_PublishReachesWatcher(t *testing.T) {
	hub := NewChangeHub()
	replay, ch := hub.watch(0)
	defer hub.unwatch(ch)
	if len(replay) != 0 {
		t.Fatalf("expected empty replay, got %d", len(replay))
	}

	if err := hub.Publish(context.Background(), events.TopicConfigsUpdated, events.ConfigsUpdated{ID: "cc-1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Seq != 1 || ev.Topic != events.TopicConfigsUpdated {
			t.Fatalf("unexpected event %+v", ev)
		}
		if !strings.Contains(string(ev.Data), `"id":"cc-1"`) {
			t.Fatalf("unexpected payload %s", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestChangeHub_ReplaySince(t *testing.T) {
	hub := NewChangeHub()
	for i := 0; i < 3; i++ {
		_ = hub.Publish(context.Background(), events.TopicConfigsUpdated, events.ConfigsUpdated{})
	}

	replay, ch := hub.watch(1)
	hub.unwatch(ch)
	if len(replay) != 2 {
		t.Fatalf("expected 2 replayed events, got %d", len(replay))
	}
	if replay[0].Seq != 2 || replay[1].Seq != 3 {
		t.Fatalf("unexpected replay order: %d, %d", replay[0].Seq, replay[1].Seq)
	}
}

func TestChangeHub_HistoryBounded(t *testing.T) {
	hub := NewChangeHub()
	for i := 0; i < streamHistorySize+10; i++ {
		_ = hub.Publish(context.Background(), events.TopicConfigsUpdated, events.ConfigsUpdated{})
	}

	replay, ch := hub.watch(0)
	hub.unwatch(ch)
	if len(replay) != streamHistorySize {
		t.Fatalf("expected %d events, got %d", streamHistorySize, len(replay))
	}
	if replay[0].Seq != 11 {
		t.Fatalf("expected oldest seq 11, got %d", replay[0].Seq)
	}
}

func TestChangeHub_UnwatchStopsDelivery(t *testing.T) {
	hub := NewChangeHub()
	_, ch := hub.watch(0)
	hub.unwatch(ch)

	_ = hub.Publish(context.Background(), events.TopicConfigsUpdated, events.ConfigsUpdated{})
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event after unwatch: %+v", ev)
	default:
	}
}

func TestChangeHub_SlowWatcherDoesNotBlock(t *testing.T) {
	hub := NewChangeHub()
	_, ch := hub.watch(0)
	defer hub.unwatch(ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < streamBufferSize*2; i++ {
			_ = hub.Publish(context.Background(), events.TopicConfigsUpdated, events.ConfigsUpdated{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full watcher")
	}
}

func TestHandleStream_Disabled(t *testing.T) {
	h := newTestHandler(&fakeService{}, nil)
	rec := doJSON(t, h, "GET", StreamPath, nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestHandleStream_PermissionDenied(t *testing.T) {
	svc := &fakeService{getErr: model.ErrPermissionDenied}
	hub := NewChangeHub()
	h := New(svc, nil, discardLogger()).WithChangeHub(hub).NewHTTPHandler(testTokens())

	rec := doJSON(t, h, "GET", StreamPath, nil)
	requireStatus(t, rec, http.StatusForbidden)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if len(hub.watchers) != 0 {
		t.Fatalf("watcher leaked after rejected stream")
	}
}

// sseFrame is one parsed server-sent event.
type sseFrame struct {
	id, event, data string
}

func readFrame(t *testing.T, br *bufio.Reader) sseFrame {
	t.Helper()
	var f sseFrame
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if f.event != "" {
				return f
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id:"):
			f.id = strings.TrimPrefix(line, "id:")
		case strings.HasPrefix(line, "event:"):
			f.event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			f.data = strings.TrimPrefix(line, "data:")
		}
	}
}

func openStream(t *testing.T, url, lastEventID string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, "GET", url+StreamPath, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	return bufio.NewReader(resp.Body)
}

func TestHandleStream_CurrentThenLive(t *testing.T) {
	svc := &fakeService{configs: model.DefaultConfigs()}
	hub := NewChangeHub()
	ts := httptest.NewServer(New(svc, nil, discardLogger()).WithChangeHub(hub).NewHTTPHandler(testTokens()))
	t.Cleanup(ts.Close)

	br := openStream(t, ts.URL, "")

	first := readFrame(t, br)
	if first.event != streamEventCurrent || first.id != "" {
		t.Fatalf("unexpected first frame %+v", first)
	}
	var current model.ConfigList
	if err := json.Unmarshal([]byte(first.data), &current); err != nil {
		t.Fatalf("decoding current configs: %v", err)
	}
	if len(current.Components) != 5 {
		t.Fatalf("expected 5 components, got %d", len(current.Components))
	}

	update := events.ConfigsUpdated{ID: "cc-live", Actor: "admin", Configs: jdbcBody.Components}
	if err := hub.Publish(context.Background(), events.TopicConfigsUpdated, update); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	live := readFrame(t, br)
	if live.event != events.TopicConfigsUpdated || live.id != "1" {
		t.Fatalf("unexpected live frame %+v", live)
	}
	var got events.ConfigsUpdated
	if err := json.Unmarshal([]byte(live.data), &got); err != nil {
		t.Fatalf("decoding update: %v", err)
	}
	if got.ID != "cc-live" || len(got.Configs) != 1 {
		t.Fatalf("unexpected update %+v", got)
	}
}

func TestHandleStream_ReplaysAfterLastEventID(t *testing.T) {
	svc := &fakeService{configs: model.DefaultConfigs()}
	hub := NewChangeHub()
	for _, id := range []string{"cc-a", "cc-b", "cc-c"} {
		_ = hub.Publish(context.Background(), events.TopicConfigsUpdated, events.ConfigsUpdated{ID: id})
	}
	ts := httptest.NewServer(New(svc, nil, discardLogger()).WithChangeHub(hub).NewHTTPHandler(testTokens()))
	t.Cleanup(ts.Close)

	br := openStream(t, ts.URL, "1")

	if f := readFrame(t, br); f.event != streamEventCurrent {
		t.Fatalf("expected current frame first, got %+v", f)
	}
	for _, want := range []string{"2", "3"} {
		f := readFrame(t, br)
		if f.id != want {
			t.Fatalf("expected replayed id %s, got %+v", want, f)
		}
	}
}
