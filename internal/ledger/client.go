// Package ledger is the client for the inventory/purchasing ledger gateway.
//
// Every gateway endpoint is a POST of a JSON body to
// {base}/{integration-token}/v1/{endpoint} and answers with an envelope
// {"ok": bool, "result": ...}. A response with ok=false is a hard failure
// regardless of the HTTP status; the error code and description live inside
// result. List endpoints return the payload either as a bare array or nested
// one level under a "result" field, so unwrapping happens in exactly one
// place here.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/rezonia/docvision/internal/model"
)

const (
	DefaultBaseURL = "https://integration.regos.uz/gateway/out"
	DefaultTimeout = 30 * time.Second

	refdataTTL = 5 * time.Minute
)

// Client talks to the ledger integration gateway
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	limiter *rate.Limiter
	cache   *cache.Cache
	log     *slog.Logger
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL string
	timeout time.Duration
	httpc   *http.Client
	rps     float64
	burst   int
	log     *slog.Logger
}

// WithBaseURL sets a custom gateway base URL
func WithBaseURL(url string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.baseURL = url
	}
}

// WithTimeout sets the per-call HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client (used by tests)
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpc = httpc
	}
}

// WithRateLimit caps outbound calls per second. The gateway is shared by
// every operator of the account, so parallel matching must not stampede it.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(cfg *clientConfig) {
		cfg.rps = rps
		cfg.burst = burst
	}
}

// WithLogger sets the structured logger
func WithLogger(log *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.log = log
	}
}

// NewClient creates a ledger client for the given integration token
func NewClient(token string, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		rps:     10,
		burst:   20,
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	httpc := cfg.httpc
	if httpc == nil {
		httpc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.baseURL, "/"),
		token:   token,
		httpc:   httpc,
		limiter: rate.NewLimiter(rate.Limit(cfg.rps), cfg.burst),
		cache:   cache.New(refdataTTL, 2*refdataTTL),
		log:     cfg.log,
	}
}

// envelope is the gateway's response wrapper
type envelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
}

// apiError is the shape of result when ok=false
type apiError struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

// call posts a request body and returns the raw result payload
func (c *Client) call(ctx context.Context, endpoint string, payload interface{}) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "rate limiter wait cancelled", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "encode request", err)
	}

	url := fmt.Sprintf("%s/%s/v1/%s", c.baseURL, c.token, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewRemoteCallError(endpoint, "", fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "decode response", err)
	}

	if !env.OK {
		apiErr := apiError{Error: "Unknown", Description: "Unknown error"}
		if len(env.Result) > 0 {
			_ = json.Unmarshal(env.Result, &apiErr)
		}
		c.log.Error("ledger API error",
			"endpoint", endpoint,
			"code", apiErr.Error,
			"description", apiErr.Description)
		return nil, model.NewRemoteCallError(endpoint, apiErr.Error, apiErr.Description, nil)
	}

	return env.Result, nil
}

// decodeList unwraps a list result that is either a bare array or an object
// carrying the array under "result"
func decodeList[T any](endpoint string, raw json.RawMessage) ([]T, error) {
	var direct []T
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	var nested struct {
		Result []T `json:"result"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "unexpected result shape", err)
	}
	return nested.Result, nil
}

// newID is the result shape of the create endpoints
type newID struct {
	NewID int64 `json:"new_id"`
}

func decodeNewID(endpoint string, raw json.RawMessage) (int64, error) {
	var out newID
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, model.NewRemoteCallError(endpoint, "", "decode created id", err)
	}
	if out.NewID == 0 {
		return 0, model.NewRemoteCallError(endpoint, "", "no id in create response", nil)
	}
	return out.NewID, nil
}
