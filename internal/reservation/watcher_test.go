package reservation

import (
	"context"
	"testing"
	"time"

	"tix/internal/clock"
)

func collectUntil(t *testing.T, updates <-chan WatchUpdate, stop func(WatchUpdate) bool) []WatchUpdate {
	t.Helper()
	var got []WatchUpdate
	deadline := time.After(5 * time.Second)
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return got
			}
			got = append(got, update)
			if stop(update) {
				return got
			}
		case <-deadline:
			t.Fatalf("timed out waiting for watch updates, got %+v", got)
		}
	}
}

func TestWatcher(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("emits initial state then expiry exactly once", func(t *testing.T) {
		clk := clock.NewMock(now)
		m := NewManager(NewMemoryStore(), clk, &fakeEndpoint{}, WithTTL(10*time.Second))
		if _, err := m.Reserve(context.Background(), []string{"t1"}, "event-1"); err != nil {
			t.Fatalf("seed reserve failed: %v", err)
		}

		w := NewWatcher(m, WithInterval(5*time.Millisecond))
		updates := w.Start()
		defer w.Stop()

		first := <-updates
		if !first.Valid || first.Remaining != 10 || first.EventID != "event-1" {
			t.Fatalf("unexpected first update %+v", first)
		}

		clk.Advance(11 * time.Second)
		got := collectUntil(t, updates, func(u WatchUpdate) bool { return u.Expired })

		last := got[len(got)-1]
		if !last.Expired || last.Valid {
			t.Fatalf("expected terminal expired update, got %+v", last)
		}
		for _, u := range got[:len(got)-1] {
			if u.Expired {
				t.Fatalf("expired flagged more than once: %+v", got)
			}
		}
	})

	t.Run("flags urgency under the threshold", func(t *testing.T) {
		clk := clock.NewMock(now)
		m := NewManager(NewMemoryStore(), clk, &fakeEndpoint{}, WithTTL(60*time.Second))
		if _, err := m.Reserve(context.Background(), []string{"t1"}, "event-1"); err != nil {
			t.Fatalf("seed reserve failed: %v", err)
		}

		w := NewWatcher(m, WithInterval(5*time.Millisecond), WithUrgentThreshold(30))
		updates := w.Start()
		defer w.Stop()

		first := <-updates
		if first.Urgent {
			t.Fatalf("expected 60s remaining to not be urgent: %+v", first)
		}

		clk.Advance(35 * time.Second)
		got := collectUntil(t, updates, func(u WatchUpdate) bool { return u.Urgent })
		last := got[len(got)-1]
		if last.Remaining > 30 {
			t.Fatalf("urgent flagged above threshold: %+v", last)
		}
	})

	t.Run("explicit clear emits invalid without expired", func(t *testing.T) {
		clk := clock.NewMock(now)
		m := NewManager(NewMemoryStore(), clk, &fakeEndpoint{})
		if _, err := m.Reserve(context.Background(), []string{"t1"}, "event-1"); err != nil {
			t.Fatalf("seed reserve failed: %v", err)
		}

		w := NewWatcher(m, WithInterval(5*time.Millisecond))
		updates := w.Start()
		defer w.Stop()

		<-updates
		if err := m.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}

		got := collectUntil(t, updates, func(u WatchUpdate) bool { return !u.Valid })
		last := got[len(got)-1]
		if last.Expired {
			t.Fatalf("clear must not read as expiry: %+v", last)
		}
	})

	t.Run("stop closes the channel and is idempotent", func(t *testing.T) {
		m := NewManager(NewMemoryStore(), clock.NewMock(now), &fakeEndpoint{})
		w := NewWatcher(m, WithInterval(5*time.Millisecond))
		updates := w.Start()

		w.Stop()
		w.Stop()

		deadline := time.After(time.Second)
		for {
			select {
			case _, ok := <-updates:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatalf("updates channel not closed after Stop")
			}
		}
	})

	t.Run("start twice returns the same channel", func(t *testing.T) {
		m := NewManager(NewMemoryStore(), clock.NewMock(now), &fakeEndpoint{})
		w := NewWatcher(m, WithInterval(5*time.Millisecond))
		defer w.Stop()

		if w.Start() != w.Start() {
			t.Fatalf("expected Start to be idempotent")
		}
	})
}
