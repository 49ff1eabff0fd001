package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docvision/internal/model"
	"github.com/rezonia/docvision/internal/source"
)

func TestClient_Documents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/documents", r.URL.Path)
		assert.Equal(t, "session-key", r.Header.Get("user-key"))
		assert.Equal(t, "partner-token", r.Header.Get("Partner-Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "0", q.Get("owner"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "2026-01-01", q.Get("date_from"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 42,
			"data": [
				{"doc_id": "d-1", "name": "Invoice 1", "partnerTin": "123", "total_sum": 1200.5},
				{"doc_id": "d-2", "name": "Invoice 2", "partnerTin": "456"}
			]
		}`))
	}))
	defer srv.Close()

	client := source.NewClient("partner-token", source.WithBaseURL(srv.URL))

	list, err := client.Documents(context.Background(), "session-key", source.ListFilter{
		Owner:    source.OwnerIncoming,
		Page:     2,
		Limit:    10,
		DateFrom: "2026-01-01",
	})
	require.NoError(t, err)

	assert.Equal(t, 42, list.Total)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "d-1", list.Data[0].DocID)
	require.NotNil(t, list.Data[0].TotalSum)
	assert.Equal(t, 1200.5, *list.Data[0].TotalSum)
	assert.Nil(t, list.Data[1].TotalSum)
}

func TestClient_Documents_DefaultPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "20", q.Get("limit"))
		_, _ = w.Write([]byte(`{"total":0,"data":[]}`))
	}))
	defer srv.Close()

	client := source.NewClient("partner-token", source.WithBaseURL(srv.URL))
	_, err := client.Documents(context.Background(), "session-key", source.ListFilter{})
	require.NoError(t, err)
}

func TestClient_Document(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/doc-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"document":{"name":"Invoice 9"}}}`))
	}))
	defer srv.Close()

	client := source.NewClient("partner-token", source.WithBaseURL(srv.URL))

	doc, err := client.Document(context.Background(), "session-key", "doc-9")
	require.NoError(t, err)
	assert.Equal(t, "doc-9", doc.ID)
	assert.Equal(t, "Invoice 9", doc.Name())
}

func TestClient_DownloadPDF(t *testing.T) {
	payload := []byte("%PDF-1.7 fake body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/doc-9/pdf", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	client := source.NewClient("partner-token", source.WithBaseURL(srv.URL))

	data, err := client.DownloadPDF(context.Background(), "session-key", "doc-9")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"key expired"}`))
	}))
	defer srv.Close()

	client := source.NewClient("partner-token", source.WithBaseURL(srv.URL))

	_, err := client.Documents(context.Background(), "stale-key", source.ListFilter{})

	var rerr *model.RemoteCallError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "401", rerr.Code)
	assert.Contains(t, rerr.Message, "key expired")
}
