package tailwind

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	defaultRequestTimeout = 8 * time.Second
	defaultConnectTimeout = 5 * time.Second

	tokenHeader = "TOKEN"
)

// Requester sends one encoded request and returns the raw response payload.
type Requester interface {
	Request(ctx context.Context, env Envelope) ([]byte, error)
}

// Session owns a single logical channel to one device. Requests are
// serialized: there is no pipelining because the protocol carries no request
// identifiers, so responses are correlated by send-then-receive ordering.
type Session struct {
	log     *slog.Logger
	url     string
	token   string
	timeout time.Duration

	httpClient *http.Client

	slot chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

type SessionOption func(*Session)

func WithRequestTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) {
		s.timeout = timeout
	}
}

func WithHTTPClient(client *http.Client) SessionOption {
	return func(s *Session) {
		s.httpClient = client
	}
}

// Open establishes a reusable session with the device at host. The host is
// probed first; an unreachable address fails with ErrConnection.
func Open(ctx context.Context, log *slog.Logger, host, token string, opts ...SessionOption) (*Session, error) {
	s := &Session{
		log:        log,
		url:        (&url.URL{Scheme: "http", Host: host, Path: "/json"}).String(),
		token:      token,
		timeout:    defaultRequestTimeout,
		httpClient: &http.Client{},
		slot:       make(chan struct{}, 1),
		closed:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := probe(ctx, host); err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "session opened", slog.String("host", host))

	return s, nil
}

func probe(ctx context.Context, host string) error {
	hostPort := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		hostPort = net.JoinHostPort(host, "80")
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", hostPort)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return conn.Close()
}

// Request sends env and blocks until the matching response arrives, the
// session's request deadline expires (ErrTimeout), or ctx is cancelled.
// Concurrent callers queue for the single in-flight slot; a cancelled waiter
// is released without closing the underlying channel.
func (s *Session) Request(ctx context.Context, env Envelope) ([]byte, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, ErrSessionClosed
	}
	defer func() { <-s.slot }()

	select {
	case <-s.closed:
		return nil, ErrSessionClosed
	default:
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(tokenHeader, s.token)
	req.Header.Set("Content-Type", "application/json")

	s.log.DebugContext(ctx, "sending request",
		slog.String("operation", env.Data.Name),
		slog.String("type", string(env.Data.Type)),
	)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, s.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected HTTP status %d", ErrConnection, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.transportError(ctx, err)
	}

	return raw, nil
}

// transportError separates caller cancellation from the session's own request
// deadline and from plain transport failures.
func (s *Session) transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
	}

	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// Close releases the underlying channel. Safe to call multiple times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.httpClient.CloseIdleConnections()
		s.log.Debug("session closed")
	})
}
