// Package api implements the API gateway client: the single point of outbound
// HTTP calls. It attaches the session token, applies timeouts, and normalizes
// transport and HTTP failures into the error taxonomy. No raw transport error
// escapes this package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	apierrors "github.com/dev-dhiraj01/FeelInsight/internal/errors"
	"github.com/dev-dhiraj01/FeelInsight/internal/metrics"
	"github.com/dev-dhiraj01/FeelInsight/internal/platform/correlation"
)

// maxResponseBytes caps how much of a response body is read. The largest
// legitimate payload is a full history page, well under this.
const maxResponseBytes = 4 << 20

// TokenSource supplies the current session token. Injected rather than held as
// mutable client state, so the client stays testable in isolation and token
// changes are atomic from the client's point of view.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the API gateway client. All components issue requests through it.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      TokenSource
	authTimeout time.Duration
	breaker     circuitbreaker.CircuitBreaker[any]
}

// NewClient creates a gateway client for the given base URL (including the
// /api prefix). authTimeout bounds authentication calls; requestTimeout bounds
// everything else.
func NewClient(baseURL string, tokens TokenSource, authTimeout, requestTimeout time.Duration) *Client {
	breaker := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "api",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			metrics.CircuitBreakerStateChanges.WithLabelValues(e.NewState.String()).Inc()
			metrics.CircuitBreakerState.Set(stateToFloat(e.NewState))
		}).
		Build()

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: requestTimeout},
		tokens:      tokens,
		authTimeout: authTimeout,
		breaker:     breaker,
	}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// credentialEndpoint reports whether path is a login/register call: the two
// endpoints that carry no token and where a 401 means bad credentials rather
// than an expired session.
func credentialEndpoint(path string) bool {
	return path == "/auth/login" || path == "/auth/register"
}

// do issues one request and decodes a 2xx response body into out (ignored when
// out is nil). Every failure is returned as an *errors.APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx = correlation.Ensure(ctx)
	endpoint := method + " " + trimQuery(path)

	start := time.Now()
	err := c.execute(ctx, method, path, body, out)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = string(apierrors.KindOf(err))
		slog.DebugContext(ctx, "API request failed", "endpoint", endpoint, "error", err)
	}
	metrics.APIRequestsTotal.WithLabelValues(endpoint, result).Inc()

	return err
}

func (c *Client) execute(ctx context.Context, method, path string, body, out any) error {
	if !c.breaker.TryAcquirePermit() {
		return &apierrors.APIError{
			Kind:    apierrors.KindNetworkUnavailable,
			Message: "service temporarily unavailable",
			Cause:   circuitbreaker.ErrOpen,
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.breaker.RecordSuccess()
			return &apierrors.APIError{Kind: apierrors.KindValidation, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		c.breaker.RecordSuccess()
		return &apierrors.APIError{Kind: apierrors.KindValidation, Message: "failed to build request", Cause: err}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.tokens.Token(); ok && !credentialEndpoint(path) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	correlation.Stamp(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordError(err)
		return apierrors.FromTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.breaker.RecordError(err)
		return apierrors.FromTransport(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.RecordError(fmt.Errorf("server returned %d", resp.StatusCode))
	} else {
		c.breaker.RecordSuccess()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierrors.FromStatus(resp.StatusCode, respBody, credentialEndpoint(path))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &apierrors.APIError{
				Kind:    apierrors.KindServer,
				Status:  resp.StatusCode,
				Message: "malformed response body",
				Cause:   err,
			}
		}
	}
	return nil
}

// withAuthTimeout bounds authentication calls to the configured auth timeout.
func (c *Client) withAuthTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.authTimeout)
}

// BreakerState exposes the circuit breaker state for monitoring and tests.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

func trimQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
