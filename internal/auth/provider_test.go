package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docvision/internal/auth"
)

func TestPartnerProvider_Authenticate(t *testing.T) {
	tests := []struct {
		name          string
		tokenResponse string
	}{
		{name: "token field", tokenResponse: `{"token":"session-key"}`},
		{name: "access_token field", tokenResponse: `{"access_token":"session-key"}`},
		{name: "camel case field", tokenResponse: `{"accessToken":"session-key"}`},
		{name: "bare string", tokenResponse: `"session-key"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/dsvs/timestamp":
					var payload map[string]string
					require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
					assert.Equal(t, "pkcs7-blob", payload["pkcs7"])
					assert.Equal(t, "deadbeef", payload["signatureHex"])
					_, _ = w.Write([]byte(`{"timeStampTokenB64":"stamped"}`))
				case "/auth/123456789/token/ru":
					var payload map[string]string
					require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
					assert.Equal(t, "stamped", payload["signature"])
					_, _ = w.Write([]byte(tt.tokenResponse))
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer srv.Close()

			provider := auth.NewPartnerProvider(auth.WithProviderBaseURL(srv.URL))

			token, err := provider.Authenticate(context.Background(), "123456789", auth.SignedProof{
				PKCS7:        "pkcs7-blob",
				SignatureHex: "deadbeef",
			})
			require.NoError(t, err)
			assert.Equal(t, "session-key", token)
		})
	}
}

func TestPartnerProvider_TimestampMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	provider := auth.NewPartnerProvider(auth.WithProviderBaseURL(srv.URL))

	_, err := provider.Authenticate(context.Background(), "123456789", auth.SignedProof{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no timestamp token")
}

func TestPartnerProvider_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dsvs/timestamp" {
			_, _ = w.Write([]byte(`{"timeStampTokenB64":"stamped"}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"certificate revoked"}`))
	}))
	defer srv.Close()

	provider := auth.NewPartnerProvider(auth.WithProviderBaseURL(srv.URL))

	_, err := provider.Authenticate(context.Background(), "123456789", auth.SignedProof{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate revoked")
}
