// Package source is the client for the electronic trade-document service the
// imports are read from. The service is read-only from our side: documents
// are listed, fetched and downloaded, never modified.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rezonia/docvision/internal/model"
)

const (
	DefaultBaseURL = "https://api2.didox.uz/v2"
	DefaultTimeout = 60 * time.Second
)

// Document owner sides as the source service encodes them
const (
	OwnerIncoming = 0
	OwnerOutgoing = 1
)

// Client talks to the document source API. Each call authenticates with a
// per-user session key plus the static partner token.
type Client struct {
	baseURL      string
	partnerToken string
	httpc        *http.Client
	log          *slog.Logger
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL string
	timeout time.Duration
	httpc   *http.Client
	log     *slog.Logger
}

// WithBaseURL sets a custom API base URL
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

// WithLogger sets the structured logger
func WithLogger(log *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.log = log
	}
}

// NewClient creates a document source client
func NewClient(partnerToken string, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
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
		baseURL:      strings.TrimRight(cfg.baseURL, "/"),
		partnerToken: partnerToken,
		httpc:        httpc,
		log:          cfg.log,
	}
}

// ListFilter narrows a document list call
type ListFilter struct {
	Owner        int
	Page         int
	Limit        int
	DocumentType string
	DateFrom     string
	DateTo       string
	Partner      string
}

func (f ListFilter) query() url.Values {
	q := url.Values{}
	q.Set("owner", strconv.Itoa(f.Owner))
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if f.DocumentType != "" {
		q.Set("doctype", f.DocumentType)
	}
	if f.DateFrom != "" {
		q.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_to", f.DateTo)
	}
	if f.Partner != "" {
		q.Set("partner", f.Partner)
	}
	return q
}

func (c *Client) get(ctx context.Context, userKey, endpoint string, query url.Values) ([]byte, error) {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "build request", err)
	}
	req.Header.Set("user-key", userKey)
	req.Header.Set("Partner-Authorization", c.partnerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := string(body)
		if len(detail) > 500 {
			detail = detail[:500]
		}
		return nil, model.NewRemoteCallError(endpoint, strconv.Itoa(resp.StatusCode), detail, nil)
	}

	return body, nil
}

// Documents lists documents visible to the session
func (c *Client) Documents(ctx context.Context, userKey string, filter ListFilter) (*DocumentList, error) {
	body, err := c.get(ctx, userKey, "documents", filter.query())
	if err != nil {
		return nil, err
	}
	return parseDocumentList(body)
}

// Document fetches one document with its full JSON payload
func (c *Client) Document(ctx context.Context, userKey, documentID string) (*Document, error) {
	body, err := c.get(ctx, userKey, fmt.Sprintf("documents/%s", documentID), nil)
	if err != nil {
		return nil, err
	}
	return NewDocument(documentID, body), nil
}

// DownloadPDF fetches the rendered PDF of a document
func (c *Client) DownloadPDF(ctx context.Context, userKey, documentID string) ([]byte, error) {
	return c.get(ctx, userKey, fmt.Sprintf("documents/%s/pdf", documentID), nil)
}
