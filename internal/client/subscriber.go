package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/papanlab/papan/internal/event"
)

const (
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// Scope identifies one event stream: a workspace board or the caller's
// own user channel.
type Scope struct {
	workspace string
	user      bool
}

func WorkspaceScope(slug string) Scope { return Scope{workspace: slug} }
func UserScope() Scope                 { return Scope{user: true} }

func (s Scope) query() string {
	if s.user {
		return "user=me"
	}
	return "workspace=" + s.workspace
}

// Subscriber owns at most one event stream connection per instance.
// On transport error it reconnects to the same scope with exponential
// backoff, resetting the delay as soon as a connection opens.
type Subscriber struct {
	baseURL string
	token   string
	http    *http.Client
	handler func(event.Event)

	initialBackoff time.Duration
	maxBackoff     time.Duration

	// onDown, when set, is called after an established stream drops and
	// before the reconnect wait starts.
	onDown func()

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

func WithBackoff(initial, max time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		s.initialBackoff = initial
		s.maxBackoff = max
	}
}

func WithHTTPClient(c *http.Client) SubscriberOption {
	return func(s *Subscriber) { s.http = c }
}

func WithDownHandler(fn func()) SubscriberOption {
	return func(s *Subscriber) { s.onDown = fn }
}

// NewSubscriber creates a subscriber that invokes handler for every event
// frame, in arrival order, on the stream's reader goroutine.
func NewSubscriber(baseURL, token string, handler func(event.Event), opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		baseURL:        baseURL,
		token:          token,
		handler:        handler,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		// No client timeout: the stream is long-lived by design.
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens the stream for a scope. Any previous connection is closed
// first so a scope switch never leaks a duplicate stream.
func (s *Subscriber) Connect(scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx, scope)
}

// Close tears the subscriber down: it cancels any pending reconnect wait
// and closes the connection. Safe to call more than once.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// run is the reconnect loop for one scope. The backoff delay doubles per
// consecutive failure up to the cap and resets once a stream opens.
func (s *Subscriber) run(ctx context.Context, scope Scope) {
	delay := s.initialBackoff
	for {
		opened, err := s.stream(ctx, scope)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Debug().Err(err).Str("scope", scope.query()).Msg("event stream dropped")
		}
		if opened {
			delay = s.initialBackoff
			if s.onDown != nil {
				s.onDown()
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		delay *= 2
		if delay > s.maxBackoff {
			delay = s.maxBackoff
		}
	}
}

// stream opens one connection and pumps frames until it fails or the
// context is cancelled. opened reports whether the server accepted the
// stream, which is what resets the backoff.
func (s *Subscriber) stream(ctx context.Context, scope Scope) (opened bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v1/events?"+scope.query(), nil)
	if err != nil {
		return false, fmt.Errorf("client.stream: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("client.stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("client.stream: unexpected status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data: "):
			var evt event.Event
			if jsonErr := json.Unmarshal([]byte(line[len("data: "):]), &evt); jsonErr != nil {
				log.Warn().Err(jsonErr).Msg("malformed stream frame")
				continue
			}
			s.handler(evt)
		default:
			// Comment (heartbeat) and blank separator lines.
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return true, fmt.Errorf("client.stream: %w", scanErr)
	}
	return true, nil
}
