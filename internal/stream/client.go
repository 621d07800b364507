package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"tix/internal/availability"
	"tix/pkg/logger"
)

// Phase is the connection phase of a stream subscription.
type Phase string

const (
	PhaseConnecting   Phase = "connecting"
	PhaseOpen         Phase = "open"
	PhaseReconnecting Phase = "reconnecting"
	PhaseFailed       Phase = "failed"
)

// ConnectionState is the tagged connection state of a subscription. Attempt
// is meaningful only while reconnecting and resets when the channel opens.
type ConnectionState struct {
	Phase   Phase
	Attempt int
}

const (
	// DefaultBaseReconnectDelay seeds the exponential backoff.
	DefaultBaseReconnectDelay = time.Second

	// DefaultMaxReconnectAttempts bounds automatic reconnection; after this
	// many failed reconnects the subscription is Failed until resubscribed.
	DefaultMaxReconnectAttempts = 5
)

// Client opens server-push ticket availability subscriptions. One
// subscription covers one event; the server sends the full snapshot on every
// message, so each frame replaces the previous one outright.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	baseDelay   time.Duration
	maxAttempts int
	log         *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The client must not set an
// overall timeout: the stream body stays open indefinitely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseReconnectDelay overrides the backoff seed delay.
func WithBaseReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithMaxReconnectAttempts overrides the reconnect attempt bound.
func WithMaxReconnectAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient returns a stream client against baseURL (the API base path, e.g.
// http://localhost:8080/api/v1).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		baseDelay:   DefaultBaseReconnectDelay,
		maxAttempts: DefaultMaxReconnectAttempts,
		log:         logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscription is a live availability feed for one event. Snapshots and
// States deliver latest-wins: a slow consumer sees the newest value, never a
// backlog of stale ones. Both channels close after Unsubscribe or once the
// subscription fails terminally.
type Subscription struct {
	eventID   string
	snapshots chan []availability.TicketSnapshot
	states    chan ConnectionState
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	current []availability.TicketSnapshot
	state   ConnectionState
	err     error
}

// Subscribe opens a subscription for eventID. The feed lives until ctx is
// cancelled, Unsubscribe is called, or reconnection attempts are exhausted.
func (c *Client) Subscribe(ctx context.Context, eventID string) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		eventID:   eventID,
		snapshots: make(chan []availability.TicketSnapshot, 1),
		states:    make(chan ConnectionState, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     ConnectionState{Phase: PhaseConnecting},
	}
	go c.run(subCtx, sub)
	return sub
}

// Snapshots returns the snapshot channel. Each value is the complete ticket
// set for the event and replaces anything received before.
func (s *Subscription) Snapshots() <-chan []availability.TicketSnapshot {
	return s.snapshots
}

// States returns the connection state channel.
func (s *Subscription) States() <-chan ConnectionState {
	return s.states
}

// Current returns the last successfully received snapshot.
func (s *Subscription) Current() []availability.TicketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// State returns the current connection state.
func (s *Subscription) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns ErrStreamExhausted after the subscription failed terminally,
// nil otherwise.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Unsubscribe tears the subscription down: any pending reconnect timer is
// cancelled, the transport is closed, and no further snapshot is delivered.
// It blocks until the feed goroutine has exited and is safe to call twice.
func (s *Subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

func (c *Client) run(ctx context.Context, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.states)
	defer close(sub.snapshots)

	attempt := 0
	sub.publishState(ConnectionState{Phase: PhaseConnecting})

	for {
		err := c.consume(ctx, sub, &attempt)
		if ctx.Err() != nil {
			return
		}

		if attempt >= c.maxAttempts {
			c.log.LogStreamExhausted(sub.eventID, attempt)
			sub.setErr(ErrStreamExhausted)
			sub.publishState(ConnectionState{Phase: PhaseFailed})
			return
		}

		attempt++
		delay := backoffDelay(c.baseDelay, attempt)
		c.log.LogStreamReconnecting(sub.eventID, attempt, delay)
		c.log.Debug("Stream transport lost",
			slog.String("event_id", sub.eventID),
			slog.String("error", err.Error()),
		)
		sub.publishState(ConnectionState{Phase: PhaseReconnecting, Attempt: attempt})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// consume opens the SSE channel and pumps frames until the transport drops.
// It always returns a non-nil error describing why the connection ended.
func (c *Client) consume(ctx context.Context, sub *Subscription, attempt *int) error {
	url := fmt.Sprintf("%s/events/%s/tickets/stream", c.baseURL, sub.eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream endpoint returned status %d", resp.StatusCode)
	}

	c.log.LogStreamConnected(sub.eventID, *attempt)
	*attempt = 0
	sub.publishState(ConnectionState{Phase: PhaseOpen})

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data.Len() > 0 {
				c.dispatch(sub, data.Bytes())
				data.Reset()
			}
			continue
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimPrefix(payload, " "))
		}
		// event:/id:/retry: fields and comments are not used by this feed.
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}

// dispatch parses one complete frame. A malformed frame is logged and
// dropped; it changes neither the connection state nor the last-known-good
// snapshot.
func (c *Client) dispatch(sub *Subscription, frame []byte) {
	var snapshot []availability.TicketSnapshot
	if err := json.Unmarshal(frame, &snapshot); err != nil {
		c.log.Warn("Dropping malformed stream frame",
			slog.String("event_id", sub.eventID),
			slog.String("error", err.Error()),
		)
		return
	}
	sub.publishSnapshot(snapshot)
}

func (s *Subscription) publishSnapshot(snapshot []availability.TicketSnapshot) {
	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()
	for {
		select {
		case s.snapshots <- snapshot:
			return
		default:
			// Drop the stale buffered snapshot so the newest one wins.
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}

func (s *Subscription) publishState(state ConnectionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	for {
		select {
		case s.states <- state:
			return
		default:
			select {
			case <-s.states:
			default:
			}
		}
	}
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// backoffDelay is the bounded exponential backoff schedule: base * 2^(n-1)
// for the n-th reconnect attempt.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}
