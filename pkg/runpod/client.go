package runpod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/gpuctl/rpctl/pkg/defaults"
	rperrors "github.com/gpuctl/rpctl/pkg/errors"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// HeaderRequestID is the header used to correlate requests.
const HeaderRequestID = "X-Request-ID"

// Option is a functional option for configuring Client instances.
type Option func(*Client)

// WithAPIKey sets the API key sent as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithEndpoint overrides the GraphQL endpoint URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit sets the client-side request rate. A non-positive limit disables limiting.
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithBackoff sets the retry backoff. Steps is the maximum number of attempts.
func WithBackoff(b wait.Backoff) Option {
	return func(c *Client) {
		if b.Steps < 1 {
			b.Steps = 1
		}
		c.backoff = b
	}
}

// WithPollInterval sets how often WaitForStatus polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithVersion sets the version reported in the User-Agent header.
func WithVersion(version string) Option {
	return func(c *Client) {
		c.userAgent = "rpctl/" + version
	}
}

// Client talks to the RunPod GraphQL API. It is safe for concurrent use.
type Client struct {
	endpoint     string
	apiKey       string
	userAgent    string
	httpClient   *http.Client
	limiter      *rate.Limiter
	backoff      wait.Backoff
	pollInterval time.Duration
}

var _ Interface = (*Client)(nil)

// New creates a Client with defaults from the defaults package and the given options.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   defaults.APIURL,
		userAgent:  "rpctl/dev",
		httpClient: &http.Client{Timeout: defaults.APIRequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaults.APIRateLimit), defaults.APIRateBurst),
		backoff: wait.Backoff{
			Steps:    defaults.RetrySteps,
			Duration: defaults.RetryInitialBackoff,
			Factor:   defaults.RetryBackoffFactor,
			Jitter:   defaults.RetryJitter,
		},
		pollInterval: defaults.PodPollInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type graphQLRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// operation describes one GraphQL call.
type operation struct {
	name      string
	query     string
	variables map[string]any

	// idempotent operations are retried for every transient code;
	// others only when the API rejected them with 429.
	idempotent bool
}

// do executes op with retries, decoding the "data" object into out.
func (c *Client) do(ctx context.Context, op operation, out any) error {
	if c.apiKey == "" {
		return rperrors.New(rperrors.ErrCodeUnauthorized, "runpod api key is not set (use --api-key or RUNPOD_API_KEY)")
	}

	body, err := json.Marshal(graphQLRequest{
		OperationName: op.name,
		Query:         op.query,
		Variables:     op.variables,
	})
	if err != nil {
		return rperrors.Wrap(rperrors.ErrCodeInternal, "failed to encode graphql request", err)
	}

	start := time.Now()
	attempt := 0
	err = retry.OnError(c.backoff, func(err error) bool {
		if ctx.Err() != nil {
			return false
		}
		if op.idempotent {
			return rperrors.IsRetryable(err)
		}
		return rperrors.IsCode(err, rperrors.ErrCodeRateLimitExceeded)
	}, func() error {
		attempt++
		if attempt > 1 {
			apiRetryTotal.WithLabelValues(op.name).Inc()
			slog.Debug("retrying runpod request", "operation", op.name, "attempt", attempt)
		}
		return c.roundTrip(ctx, op.name, body, out)
	})

	apiRequestDuration.WithLabelValues(op.name).Observe(time.Since(start).Seconds())
	apiRequestTotal.WithLabelValues(op.name, statusLabel(err)).Inc()

	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	return nil
}

func statusLabel(err error) string {
	if err == nil {
		return "success"
	}
	if code := rperrors.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

// roundTrip performs a single HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, opName string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return contextError(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return rperrors.Wrap(rperrors.ErrCodeInternal, "failed to build request", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)

	slog.Debug("runpod request", "operation", opName, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return contextError(ctx, err)
		}
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return rperrors.Wrap(rperrors.ErrCodeTimeout, "runpod api request timed out", err)
		}
		return rperrors.Wrap(rperrors.ErrCodeUnavailable, "runpod api request failed", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("failed to close response body", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return contextError(ctx, err)
		}
		return rperrors.Wrap(rperrors.ErrCodeUnavailable, "failed to read runpod api response", err)
	}

	slog.Debug("runpod response",
		"operation", opName,
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(raw),
	)

	var gr graphQLResponse
	decodeErr := json.Unmarshal(raw, &gr)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && len(gr.Errors) > 0 {
			msg = joinMessages(gr.Errors)
		}
		return statusError(resp.StatusCode, msg)
	}

	if decodeErr != nil {
		return rperrors.Wrap(rperrors.ErrCodeUnavailable, "invalid runpod api response", decodeErr)
	}

	if len(gr.Errors) > 0 {
		return graphQLErrorToStructured(gr.Errors)
	}

	if out == nil || len(gr.Data) == 0 || string(gr.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(gr.Data, out); err != nil {
		return rperrors.Wrap(rperrors.ErrCodeInternal, "failed to decode runpod api data", err)
	}
	return nil
}

func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return rperrors.Wrap(rperrors.ErrCodeTimeout, "runpod api request timed out", err)
	}
	return fmt.Errorf("runpod api request canceled: %w", err)
}

func statusError(status int, msg string) error {
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	details := map[string]any{"status": status}
	cause := errors.New(msg)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return rperrors.WrapWithContext(rperrors.ErrCodeUnauthorized, "runpod api rejected the api key", cause, details)
	case status == http.StatusNotFound:
		return rperrors.WrapWithContext(rperrors.ErrCodeNotFound, "runpod api resource not found", cause, details)
	case status == http.StatusTooManyRequests:
		return rperrors.WrapWithContext(rperrors.ErrCodeRateLimitExceeded, "runpod api rate limit exceeded", cause, details)
	case status >= http.StatusInternalServerError:
		return rperrors.WrapWithContext(rperrors.ErrCodeUnavailable, "runpod api unavailable", cause, details)
	default:
		return rperrors.WrapWithContext(rperrors.ErrCodeInvalidRequest, "runpod api rejected the request", cause, details)
	}
}

func joinMessages(errs []graphQLError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

// graphQLErrorToStructured classifies GraphQL error messages returned with HTTP 200.
func graphQLErrorToStructured(errs []graphQLError) error {
	msg := joinMessages(errs)
	lower := strings.ToLower(msg)
	cause := errors.New(msg)

	switch {
	case strings.Contains(lower, "not found"), strings.Contains(lower, "does not exist"):
		return rperrors.Wrap(rperrors.ErrCodeNotFound, "runpod resource not found", cause)
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "unauthenticated"),
		strings.Contains(lower, "invalid api key"), strings.Contains(lower, "permission"):
		return rperrors.Wrap(rperrors.ErrCodeUnauthorized, "runpod api rejected the api key", cause)
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "too many requests"):
		return rperrors.Wrap(rperrors.ErrCodeRateLimitExceeded, "runpod api rate limit exceeded", cause)
	case strings.Contains(lower, "no longer any instances available"), strings.Contains(lower, "not enough"),
		strings.Contains(lower, "no available"):
		return rperrors.Wrap(rperrors.ErrCodeConflict, "no capacity for the requested pod", cause)
	default:
		return rperrors.Wrap(rperrors.ErrCodeInvalidRequest, "runpod api returned an error", cause)
	}
}
