package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tix/internal/availability"
)

func sseHandler(t *testing.T, frames []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatalf("test server does not support flushing")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
		<-r.Context().Done()
	}
}

func waitSnapshot(t *testing.T, sub *Subscription) []availability.TicketSnapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		if !ok {
			t.Fatalf("snapshot channel closed: %v", sub.Err())
		}
		return snap
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return nil
}

func waitPhase(t *testing.T, sub *Subscription, phase Phase) ConnectionState {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case state, ok := <-sub.States():
			if !ok {
				t.Fatalf("state channel closed before reaching %s", phase)
			}
			if state.Phase == phase {
				return state
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %s, current %+v", phase, sub.State())
		}
	}
}

func TestClient_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("each frame replaces the previous snapshot", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			flusher := w.(http.Flusher)
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "data: [{\"id\":\"t1\",\"status\":\"available\"}]\n\n")
			flusher.Flush()
			fmt.Fprint(w, "data: [{\"id\":\"t1\",\"status\":\"sold\"},{\"id\":\"t2\",\"status\":\"available\"}]\n\n")
			flusher.Flush()
			<-r.Context().Done()
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		sub := client.Subscribe(context.Background(), "event-1")
		defer sub.Unsubscribe()

		first := waitSnapshot(t, sub)
		if len(first) != 1 || first[0].ID != "t1" {
			t.Fatalf("unexpected first snapshot %+v", first)
		}

		var second []availability.TicketSnapshot
		for {
			second = waitSnapshot(t, sub)
			if len(second) == 2 {
				break
			}
		}
		if second[0].Status != availability.TicketStatusSold {
			t.Fatalf("expected replacement snapshot with t1 sold, got %+v", second)
		}
		if got := sub.Current(); len(got) != 2 {
			t.Fatalf("expected Current to track the latest snapshot, got %+v", got)
		}
	})

	t.Run("malformed frame is dropped without killing the stream", func(t *testing.T) {
		srv := httptest.NewServer(sseHandler(t, []string{
			`[{"id":"t1","status":"available"}]`,
			`{definitely not json`,
			`[{"id":"t2","status":"available"}]`,
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		sub := client.Subscribe(context.Background(), "event-1")
		defer sub.Unsubscribe()

		for {
			snap := waitSnapshot(t, sub)
			if len(snap) == 1 && snap[0].ID == "t2" {
				break
			}
			if len(snap) != 1 || snap[0].ID != "t1" {
				t.Fatalf("unexpected snapshot %+v", snap)
			}
		}
		if sub.State().Phase != PhaseOpen {
			t.Fatalf("expected stream to stay open, got %+v", sub.State())
		}
	})

	t.Run("reconnects after transport loss and resets the attempt counter", func(t *testing.T) {
		var connections int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&connections, 1)
			flusher := w.(http.Flusher)
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "data: [{\"id\":\"conn-%d\",\"status\":\"available\"}]\n\n", n)
			flusher.Flush()
			if n == 1 {
				return // drop the first connection immediately
			}
			<-r.Context().Done()
		}))
		defer srv.Close()

		client := NewClient(srv.URL, WithBaseReconnectDelay(time.Millisecond))
		sub := client.Subscribe(context.Background(), "event-1")
		defer sub.Unsubscribe()

		for {
			snap := waitSnapshot(t, sub)
			if snap[0].ID == "conn-2" {
				break
			}
		}
		if sub.State().Phase != PhaseOpen {
			t.Fatalf("expected reopened stream, got %+v", sub.State())
		}
		if err := sub.Err(); err != nil {
			t.Fatalf("expected no terminal error, got %v", err)
		}
	})

	t.Run("fails terminally after the attempt budget", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL,
			WithBaseReconnectDelay(time.Millisecond),
			WithMaxReconnectAttempts(3),
		)
		sub := client.Subscribe(context.Background(), "event-1")

		state := waitPhase(t, sub, PhaseFailed)
		if state.Phase != PhaseFailed {
			t.Fatalf("expected failed phase, got %+v", state)
		}
		if !errors.Is(sub.Err(), ErrStreamExhausted) {
			t.Fatalf("expected ErrStreamExhausted, got %v", sub.Err())
		}
		sub.Unsubscribe()
	})

	t.Run("unsubscribe stops the feed and is safe to repeat", func(t *testing.T) {
		srv := httptest.NewServer(sseHandler(t, []string{`[{"id":"t1","status":"available"}]`}))
		defer srv.Close()

		client := NewClient(srv.URL)
		sub := client.Subscribe(context.Background(), "event-1")
		waitSnapshot(t, sub)

		sub.Unsubscribe()
		sub.Unsubscribe()

		if _, ok := <-sub.Snapshots(); ok {
			// A buffered snapshot may still drain; the channel must close after.
			if _, ok := <-sub.Snapshots(); ok {
				t.Fatalf("snapshot channel still open after unsubscribe")
			}
		}
	})
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	base := time.Second
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}
	for attempt, expected := range want {
		if got := backoffDelay(base, attempt+1); got != expected {
			t.Fatalf("attempt %d: expected %v, got %v", attempt+1, expected, got)
		}
	}

	if got := backoffDelay(base, 0); got != base {
		t.Fatalf("expected attempt floor of 1, got %v", got)
	}
}
