package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rezonia/docvision/internal/model"
)

const (
	DefaultPartnerBaseURL  = "https://api-partners.didox.uz/v1"
	DefaultProviderTimeout = 60 * time.Second
	DefaultLocale          = "ru"
)

// SignedProof is the output of the operator's local signing tool: a PKCS7
// container over the base64 tax id plus the raw signature. How it is
// produced is not our concern; we only forward it.
type SignedProof struct {
	PKCS7        string `json:"pkcs7"`
	SignatureHex string `json:"signature_hex"`
}

// AuthenticationProvider exchanges a signed proof for a document-source
// session token
type AuthenticationProvider interface {
	Authenticate(ctx context.Context, taxID string, proof SignedProof) (string, error)
}

// PartnerProvider implements AuthenticationProvider against the source's
// partner API: first the proof is timestamped, then the timestamped
// signature is traded for a session token.
type PartnerProvider struct {
	baseURL string
	locale  string
	httpc   *http.Client
	log     *slog.Logger
}

// ProviderOption configures the provider
type ProviderOption func(*PartnerProvider)

// WithProviderBaseURL sets a custom partner API base URL
func WithProviderBaseURL(url string) ProviderOption {
	return func(p *PartnerProvider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithProviderHTTPClient replaces the underlying HTTP client (used by tests)
func WithProviderHTTPClient(httpc *http.Client) ProviderOption {
	return func(p *PartnerProvider) {
		p.httpc = httpc
	}
}

// WithProviderLogger sets the structured logger
func WithProviderLogger(log *slog.Logger) ProviderOption {
	return func(p *PartnerProvider) {
		p.log = log
	}
}

// NewPartnerProvider creates the partner-API authentication provider
func NewPartnerProvider(opts ...ProviderOption) *PartnerProvider {
	p := &PartnerProvider{
		baseURL: DefaultPartnerBaseURL,
		locale:  DefaultLocale,
		httpc:   &http.Client{Timeout: DefaultProviderTimeout},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Authenticate performs the two-step token exchange
func (p *PartnerProvider) Authenticate(ctx context.Context, taxID string, proof SignedProof) (string, error) {
	tsToken, err := p.timestamp(ctx, proof)
	if err != nil {
		return "", err
	}

	token, err := p.login(ctx, taxID, tsToken)
	if err != nil {
		return "", err
	}

	p.log.Info("source session obtained", "tax_id", taxID)
	return token, nil
}

func (p *PartnerProvider) timestamp(ctx context.Context, proof SignedProof) (string, error) {
	body, err := p.post(ctx, "/dsvs/timestamp", map[string]string{
		"pkcs7":        proof.PKCS7,
		"signatureHex": proof.SignatureHex,
	})
	if err != nil {
		return "", err
	}

	tsToken := gjson.GetBytes(body, "timeStampTokenB64").String()
	if tsToken == "" {
		return "", model.NewRemoteCallError("dsvs/timestamp", "", "no timestamp token in response", nil)
	}
	return tsToken, nil
}

func (p *PartnerProvider) login(ctx context.Context, taxID, tsToken string) (string, error) {
	endpoint := "/auth/" + taxID + "/token/" + p.locale
	body, err := p.post(ctx, endpoint, map[string]string{"signature": tsToken})
	if err != nil {
		return "", err
	}

	// The token field name varies across deployments of the service.
	for _, field := range []string{"token", "access_token", "accessToken", "auth_token"} {
		if v := gjson.GetBytes(body, field).String(); v != "" {
			return v, nil
		}
	}

	// Some deployments answer with a bare JSON string.
	var bare string
	if err := json.Unmarshal(body, &bare); err == nil && bare != "" {
		return bare, nil
	}

	return "", model.NewRemoteCallError(endpoint, "", "no session token in response", nil)
}

func (p *PartnerProvider) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, model.NewRemoteCallError(endpoint, "", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
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
		if len(detail) > 300 {
			detail = detail[:300]
		}
		return nil, model.NewRemoteCallError(endpoint, http.StatusText(resp.StatusCode), detail, nil)
	}
	return body, nil
}
